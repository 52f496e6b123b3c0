// Package logging writes structured JSON logs to a size-rotated file under
// ~/.indexpanel/logs/ and reads them back for `indexpanel logs`.
//
// The interactive panel owns the terminal, so in panel mode logs go to the
// file only. Other commands may also mirror them to stderr.
package logging
