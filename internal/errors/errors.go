package errors

import (
	stderrors "errors"
	"fmt"
)

// PanelError is the structured error type for indexpanel.
// It carries the user-facing message shown in the status line along with
// classification used for logging and CLI exit reporting.
type PanelError struct {
	// Code is the unique error code (e.g., "ERR_401_MISSING_SCHEMA").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *PanelError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *PanelError) Unwrap() error {
	return e.Cause
}

// Is matches by code so that sentinel errors compare equal to any error
// carrying the same code.
func (e *PanelError) Is(target error) bool {
	if t, ok := target.(*PanelError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *PanelError) WithDetail(key, value string) *PanelError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *PanelError) WithSuggestion(suggestion string) *PanelError {
	e.Suggestion = suggestion
	return e
}

// New creates a new PanelError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *PanelError {
	return &PanelError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a PanelError from an existing error.
// The error's message becomes the PanelError message.
func Wrap(code string, err error) *PanelError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *PanelError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates a document file error.
func IOError(message string, cause error) *PanelError {
	return New(ErrCodeFileNotFound, message, cause)
}

// NetworkError creates a connection-level error. These are retryable.
func NetworkError(message string, cause error) *PanelError {
	return New(ErrCodeNetworkUnavailable, message, cause)
}

// BackendError creates an error for a backend that answered with a failure.
// The message is the backend's text, surfaced verbatim.
func BackendError(message string, cause error) *PanelError {
	return New(ErrCodeBackend, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *PanelError {
	return New(ErrCodeInternal, message, cause)
}

// As returns the first PanelError in err's chain.
func As(err error) (*PanelError, bool) {
	var pe *PanelError
	if stderrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsRetryable checks if any PanelError in the chain is retryable.
func IsRetryable(err error) bool {
	if pe, ok := As(err); ok {
		return pe.Retryable
	}
	return false
}

// Message returns the user-facing message of err.
// For a PanelError this is the bare message without the code prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if pe, ok := As(err); ok {
		return pe.Message
	}
	return err.Error()
}

// GetCode extracts the error code from a PanelError.
// Returns empty string if not a PanelError.
func GetCode(err error) string {
	if pe, ok := As(err); ok {
		return pe.Code
	}
	return ""
}

// GetCategory extracts the category from a PanelError.
// Returns empty string if not a PanelError.
func GetCategory(err error) Category {
	if pe, ok := As(err); ok {
		return pe.Category
	}
	return ""
}
