// Package errors provides structured error handling for indexpanel.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Document file errors
//   - 3XX: Backend and network errors
//   - 4XX: Submission workflow errors (selection, parsing, reentrancy)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates document file errors.
	CategoryIO Category = "IO"
	// CategoryNetwork indicates transport and backend errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryWorkflow indicates errors raised locally by the submission workflow.
	CategoryWorkflow Category = "WORKFLOW"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityError indicates the operation failed and the user must act.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates a transient failure that may clear on its own.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Document file errors (200-299)
	ErrCodeFileNotFound = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFileLocked   = "ERR_202_FILE_LOCKED"

	// Backend errors (300-399)
	ErrCodeNetworkUnavailable = "ERR_301_NETWORK_UNAVAILABLE"
	ErrCodeBackend            = "ERR_302_BACKEND"
	ErrCodeCancelled          = "ERR_303_CANCELLED"

	// Workflow errors (400-499)
	ErrCodeMissingSchema = "ERR_401_MISSING_SCHEMA"
	ErrCodeMissingIndex  = "ERR_402_MISSING_INDEX"
	ErrCodeEmptyInput    = "ERR_403_EMPTY_INPUT"
	ErrCodeInvalidJSON   = "ERR_404_INVALID_JSON"
	ErrCodeInFlight      = "ERR_405_IN_FLIGHT"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "ERR_401_..." -> '4'
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryWorkflow
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch {
	case code == ErrCodeCancelled:
		return SeverityInfo
	case isRetryableCode(code):
		return SeverityWarning
	default:
		return SeverityError
	}
}

// isRetryableCode checks if an error code represents a retryable error.
// Only connection-level failures qualify; a backend that answered with an
// error is not retried.
func isRetryableCode(code string) bool {
	return code == ErrCodeNetworkUnavailable
}
