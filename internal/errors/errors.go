package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeConflict   = "CONFLICT"
	ErrCodeUpstream   = "UPSTREAM_ERROR"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code      string // Error code (e.g., "NOT_FOUND", "UPSTREAM_ERROR")
	Message   string // Human-readable error message
	Status    int    // HTTP status code
	Retryable bool   // Whether the client may retry the same request
	Err       error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// NewNotFoundError creates a new NOT_FOUND error that carries err's message
func NewNotFoundError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: err.Error(),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  http.StatusBadRequest,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewConflictError reports a lifecycle action that the current session state does not allow.
func NewConflictError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
		Status:  http.StatusConflict,
		Err:     err,
	}
}

// NewUpstreamError reports a failed call to the review authority. The
// session is left intact, so the request can be retried.
func NewUpstreamError(operation string, err error) *AppError {
	return &AppError{
		Code:      ErrCodeUpstream,
		Message:   fmt.Sprintf("%s failed, please retry", operation),
		Status:    http.StatusBadGateway,
		Retryable: true,
		Err:       err,
	}
}
