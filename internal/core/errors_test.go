// internal/core/errors_test.go
package core

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{Code: "TEST_ERROR", Message: "test message"}
	if err.Error() != "[TEST_ERROR] test message" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Code: "WRAP", Message: "wrapped", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should return cause")
	}
}

func TestError_Is(t *testing.T) {
	if !errors.Is(ErrInvalidInput, ErrInvalidInput) {
		t.Error("same error should match")
	}
	if errors.Is(ErrInvalidInput, ErrDivisionByZero) {
		t.Error("different codes should not match")
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("original")
	wrapped := WrapError(ErrBatchUnitFailure, cause)
	if wrapped.Cause != cause {
		t.Error("cause not set")
	}
	if wrapped.Code != ErrBatchUnitFailure.Code {
		t.Error("code not preserved")
	}
	if !errors.Is(wrapped, ErrBatchUnitFailure) {
		t.Error("wrapped error should match its base by code")
	}
}

func TestWrapErrorf(t *testing.T) {
	wrapped := WrapErrorf(ErrInvalidInput, "bar %d is bad", 7)
	if !errors.Is(wrapped, ErrInvalidInput) {
		t.Error("formatted wrap should match base by code")
	}
	want := "[INVALID_INPUT] invalid input: bar 7 is bad"
	if wrapped.Error() != want {
		t.Errorf("unexpected error string: %s", wrapped.Error())
	}
}
