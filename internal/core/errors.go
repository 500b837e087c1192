package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// WrapErrorf creates a new error with the same code and a formatted cause.
func WrapErrorf(base *Error, format string, args ...any) *Error {
	return WrapError(base, fmt.Errorf(format, args...))
}

// Predefined errors
var (
	// Run-fatal errors
	ErrInvalidInput   = &Error{Code: "INVALID_INPUT", Message: "invalid input"}
	ErrDivisionByZero = &Error{Code: "DIVISION_BY_ZERO", Message: "division by zero"}

	// Annotations, never fatal to a run
	ErrExecutionBlocked = &Error{Code: "EXECUTION_BLOCKED", Message: "signal cannot execute in current market status"}
	ErrDataQuality      = &Error{Code: "DATA_QUALITY", Message: "data quality warning"}

	// Batch errors, never fatal to a batch
	ErrBatchUnitFailure = &Error{Code: "BATCH_UNIT_FAILURE", Message: "batch unit failed"}

	// Surrounding application errors
	ErrConfigInvalid   = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrRunNotFound     = &Error{Code: "RUN_NOT_FOUND", Message: "run not found"}
	ErrStorageFailed   = &Error{Code: "STORAGE_FAILED", Message: "storage operation failed"}
	ErrFetchFailed     = &Error{Code: "FETCH_FAILED", Message: "bar fetch failed"}
	ErrDetectorUnknown = &Error{Code: "DETECTOR_UNKNOWN", Message: "detector not registered"}
)
