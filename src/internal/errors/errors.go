// Package errors provides domain-specific error types for the keen-route application.
//
// Errors carry a code so that handlers and tests can branch on the category of a
// failure instead of matching message text.
package errors

import "fmt"

// ErrorCode represents a category of error that can occur in the application.
type ErrorCode string

const (
	// ErrCodeConfig indicates a configuration file error (read, parse, write).
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"

	// ErrCodeValidation indicates a routing rule or settings validation error.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"

	// ErrCodeSession indicates a tunnel session control error.
	ErrCodeSession ErrorCode = "SESSION_ERROR"

	// ErrCodeReconcile indicates that applying a saved configuration to a live session failed.
	ErrCodeReconcile ErrorCode = "RECONCILE_ERROR"

	// ErrCodeNotFound indicates a rule or other resource does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Error represents a domain-specific error with an error code and optional cause.
type Error struct {
	Code    ErrorCode
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

// Unwrap returns the underlying cause of the error for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new domain error with the specified code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// HasCode reports whether err (or anything it wraps) is a domain error with the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, cause error) *Error {
	return Wrap(ErrCodeConfig, message, cause)
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, cause error) *Error {
	return Wrap(ErrCodeValidation, message, cause)
}

// NewSessionError creates a new tunnel session error.
func NewSessionError(message string, cause error) *Error {
	return Wrap(ErrCodeSession, message, cause)
}

// NewReconcileError creates a new reconcile error.
func NewReconcileError(message string, cause error) *Error {
	return Wrap(ErrCodeReconcile, message, cause)
}

// NewNotFoundError creates a new not-found error.
func NewNotFoundError(message string) *Error {
	return New(ErrCodeNotFound, message)
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *Error {
	return Wrap(ErrCodeInternal, message, cause)
}
