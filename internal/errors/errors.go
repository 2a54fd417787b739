package errors

import "fmt"

// ErrorCode represents an assistant error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrSandboxViolation   ErrorCode = "SANDBOX_VIOLATION"
	ErrUnrecognizedAction ErrorCode = "UNRECOGNIZED_ACTION"
	ErrAcquisitionFailed  ErrorCode = "ACQUISITION_FAILED"
	ErrExecutorFailed     ErrorCode = "EXECUTOR_FAILED"
	ErrInternal           ErrorCode = "INTERNAL"
)

// Error represents a structured error with a code and optional details.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates an error for invalid input parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewNotFound creates an error for a file that cannot be located.
func NewNotFound(path string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewSandboxViolation creates an error for a path resolving outside the
// sandbox root. Callers must reject the step before any I/O happens.
func NewSandboxViolation(path string) *Error {
	return &Error{
		Code:    ErrSandboxViolation,
		Message: fmt.Sprintf("path escapes the sandbox: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewUnrecognizedAction creates an error for an action kind outside the
// known enumeration.
func NewUnrecognizedAction(action string) *Error {
	return &Error{
		Code:    ErrUnrecognizedAction,
		Message: fmt.Sprintf("unrecognized action: %q", action),
		Details: map[string]any{"action": action},
	}
}

// NewAcquisitionFailed creates an error for an unusable model exchange.
// Acquisition failures are always recovered via the fallback parser, so
// this surfaces to the user as an informational note at most.
func NewAcquisitionFailed(reason string) *Error {
	return &Error{
		Code:    ErrAcquisitionFailed,
		Message: reason,
	}
}

// NewExecutorFailed creates an error for an underlying executor failure.
func NewExecutorFailed(action string, err error) *Error {
	msg := "executor failed"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrExecutorFailed,
		Message: msg,
		Details: map[string]any{"action": action},
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Message: msg,
	}
}

// Is checks if an error is an *Error with the given code.
func Is(err error, code ErrorCode) bool {
	if aErr, ok := err.(*Error); ok {
		return aErr.Code == code
	}
	return false
}
