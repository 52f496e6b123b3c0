package workflow

import "fmt"

// Report turns the number of indexed records into the status message.
func Report(count int64) string {
	switch count {
	case 0:
		return "Nothing has been indexed."
	case 1:
		return "One record has been indexed."
	default:
		return fmt.Sprintf("%d records have been indexed.", count)
	}
}
