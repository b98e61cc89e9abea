package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "error without cause",
			err:      &Error{Code: ErrCodeValidation, Message: "invalid port list"},
			expected: "[VALIDATION_ERROR] invalid port list",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeReconcile, "failed to restart session", errors.New("engine exited")),
			expected: "[RECONCILE_ERROR] failed to restart session: engine exited",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInternal, "wrapper", cause)

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected errors.Is to find the cause")
	}
}

func TestError_Is(t *testing.T) {
	err1 := &Error{Code: ErrCodeSession, Message: "test error"}
	err2 := &Error{Code: ErrCodeSession, Message: "another error"}
	err3 := &Error{Code: ErrCodeConfig, Message: "config error"}

	if !err1.Is(err2) {
		t.Errorf("Expected errors with same code to match")
	}
	if err1.Is(err3) {
		t.Errorf("Expected errors with different codes to not match")
	}
}

func TestHasCode(t *testing.T) {
	inner := NewNotFoundError("rule 42 not found")
	wrapped := fmt.Errorf("edit failed: %w", inner)

	if !HasCode(wrapped, ErrCodeNotFound) {
		t.Errorf("Expected wrapped error to carry NOT_FOUND")
	}
	if HasCode(wrapped, ErrCodeValidation) {
		t.Errorf("Expected wrapped error not to carry VALIDATION_ERROR")
	}
	if HasCode(nil, ErrCodeInternal) {
		t.Errorf("Expected nil error to carry no code")
	}
}

func TestNewReconcileError(t *testing.T) {
	cause := errors.New("timeout")
	err := NewReconcileError("session did not stop", cause)

	if err.Code != ErrCodeReconcile {
		t.Errorf("Expected code %v, got %v", ErrCodeReconcile, err.Code)
	}
	if err.Message != "session did not stop" {
		t.Errorf("Expected message 'session did not stop', got %v", err.Message)
	}
	if err.Cause != cause {
		t.Errorf("Expected cause to be preserved")
	}
}
