package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/maksimkurb/keen-route/src/internal/errors"
	"github.com/maksimkurb/keen-route/src/internal/log"
	"github.com/maksimkurb/keen-route/src/internal/route"
)

// ErrorCode represents standard API error codes.
type ErrorCode string

const (
	// ErrCodeInvalidRequest indicates malformed or invalid request data.
	ErrCodeInvalidRequest ErrorCode = "invalid_request"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeForbidden indicates the client is not allowed to use the API.
	ErrCodeForbidden ErrorCode = "forbidden"

	// ErrCodeInternalError indicates an internal server error.
	ErrCodeInternalError ErrorCode = "internal_error"

	// ErrCodeValidationFailed indicates the routing configuration is invalid.
	ErrCodeValidationFailed ErrorCode = "validation_failed"

	// ErrCodeSessionError indicates a tunnel session operation failed.
	ErrCodeSessionError ErrorCode = "session_error"
)

// APIError represents a structured API error response.
type APIError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse wraps an APIError for JSON responses.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// NewAPIError creates a new APIError with the given code and message.
func NewAPIError(code ErrorCode, message string) APIError {
	return APIError{Code: code, Message: message}
}

// WithDetails adds details to an APIError.
func (e APIError) WithDetails(details map[string]any) APIError {
	e.Details = details
	return e
}

// WriteError writes an error response to the HTTP response writer.
func WriteError(w http.ResponseWriter, statusCode int, err APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if encodeErr := json.NewEncoder(w).Encode(ErrorResponse{Error: err}); encodeErr != nil {
		log.Warnf("Failed to write error response: %v", encodeErr)
	}
}

// WriteInvalidRequest writes a 400 Bad Request error.
func WriteInvalidRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, NewAPIError(ErrCodeInvalidRequest, message))
}

// WriteNotFound writes a 404 Not Found error.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, NewAPIError(ErrCodeNotFound, message))
}

// WriteForbidden writes a 403 Forbidden error.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, NewAPIError(ErrCodeForbidden, message))
}

// WriteInternalError writes a 500 Internal Server Error.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}

// WriteValidationError writes a 400 Bad Request with validation details.
func WriteValidationError(w http.ResponseWriter, message string, details map[string]any) {
	WriteError(w, http.StatusBadRequest, NewAPIError(ErrCodeValidationFailed, message).WithDetails(details))
}

// WriteSessionError writes a 500 Internal Server Error for session failures.
func WriteSessionError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, NewAPIError(ErrCodeSessionError, message))
}

// writeDomainError maps a coded domain error to its HTTP response.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.HasCode(err, errors.ErrCodeNotFound):
		WriteNotFound(w, err.Error())
	case errors.HasCode(err, errors.ErrCodeValidation):
		var details map[string]any
		var verrs route.ValidationErrors
		if stderrors.As(err, &verrs) {
			details = map[string]any{"errors": verrs}
		}
		WriteValidationError(w, err.Error(), details)
	case errors.HasCode(err, errors.ErrCodeSession), errors.HasCode(err, errors.ErrCodeReconcile):
		WriteSessionError(w, err.Error())
	default:
		log.Errorf("API request failed: %v", err)
		WriteInternalError(w, err.Error())
	}
}
