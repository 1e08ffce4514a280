package errors

import (
	"fmt"
)

// CoreError is the structured error type returned by every core component.
type CoreError struct {
	// Code is the unique error code (e.g., "ERR_104_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message. Per the propagation
	// policy, it names the offending id/path/query.
	Message string

	// Kind is the taxonomy category (NotFound, Invalid, Stale, ...).
	Kind Kind

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user. The Stale kind
	// always carries one naming the exact re-index command.
	Suggestion string
}

// Error implements the error interface.
func (e *CoreError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *CoreError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *CoreError) Is(target error) bool {
	if t, ok := target.(*CoreError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error. Returns the error for
// method chaining.
func (e *CoreError) WithDetail(key, value string) *CoreError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *CoreError) WithSuggestion(suggestion string) *CoreError {
	e.Suggestion = suggestion
	return e
}

// New creates a new CoreError with the given code and message. Kind is
// derived from the code.
func New(code string, message string, cause error) *CoreError {
	return &CoreError{
		Code:    code,
		Message: message,
		Kind:    kindFromCode(code),
		Cause:   cause,
	}
}

// Wrap creates a CoreError from an existing error. The error's message
// becomes the CoreError message.
func Wrap(code string, err error) *CoreError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// NotFoundError creates a NotFound error.
func NotFoundError(code, message string) *CoreError {
	return New(code, message, nil)
}

// AlreadyExistsError creates an AlreadyExists error.
func AlreadyExistsError(message string) *CoreError {
	return New(ErrCodeSessionExists, message, nil)
}

// InvalidError creates an Invalid error.
func InvalidError(code, message string) *CoreError {
	return New(code, message, nil)
}

// StaleError creates a Stale schema-version error naming both versions and
// the session id, with a re-index suggestion.
func StaleError(sessionID string, found, required uint32) *CoreError {
	msg := fmt.Sprintf(
		"session %q has old schema version %d; current required version is %d",
		sessionID, found, required,
	)
	return New(ErrCodeStaleSchema, msg, nil).
		WithDetail("session_id", sessionID).
		WithSuggestion(fmt.Sprintf("run `shebe reindex %s --force` to rebuild the session", sessionID))
}

// IOError creates an IOFailed error.
func IOError(message string, cause error) *CoreError {
	return New(ErrCodeFilePermission, message, cause)
}

// IndexFailedError creates an IndexFailed error.
func IndexFailedError(message string, cause error) *CoreError {
	e := New(ErrCodeIndexFailed, message, cause)
	return e
}

// SearchFailedError creates a SearchFailed error.
func SearchFailedError(message string, cause error) *CoreError {
	return New(ErrCodeSearchFailed, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *CoreError {
	return New(ErrCodeInternal, message, cause)
}

// Is reports whether err is a *CoreError of the given Kind.
func Is(err error, kind Kind) bool {
	ce, ok := err.(*CoreError)
	return ok && ce.Kind == kind
}

// GetCode extracts the error code from a CoreError. Returns empty string if
// not a CoreError.
func GetCode(err error) string {
	if ce, ok := err.(*CoreError); ok {
		return ce.Code
	}
	return ""
}

// GetKind extracts the Kind from a CoreError. Returns empty string if not a
// CoreError.
func GetKind(err error) Kind {
	if ce, ok := err.(*CoreError); ok {
		return ce.Kind
	}
	return ""
}
