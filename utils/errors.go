package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an AppError for transport mapping
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindAuth          ErrorKind = "auth"
	KindAuthorization ErrorKind = "authorization"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
	KindUnexpected    ErrorKind = "unexpected"
)

// FieldError describes one invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError represents a structured application error
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to a response status.
// Conflicts are reported as 400 to match the public API contract.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a validation error, optionally with per-field details
func NewValidationError(message string, fields ...FieldError) *AppError {
	return &AppError{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: message, Fields: fields}
}

// NewAuthError creates an authentication error
func NewAuthError(code, message string) *AppError {
	return &AppError{Kind: KindAuth, Code: code, Message: message}
}

// NewAuthorizationError creates an error for authenticated callers lacking privilege
func NewAuthorizationError(message string) *AppError {
	return &AppError{Kind: KindAuthorization, Code: "FORBIDDEN", Message: message}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(code, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

// NewConflictError creates an error for valid requests hitting an invalid state
func NewConflictError(code, message string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: message}
}

// NewUnexpectedError wraps an unclassified failure
func NewUnexpectedError(message string, err error) *AppError {
	return &AppError{Kind: KindUnexpected, Code: "INTERNAL_ERROR", Message: message, Err: err}
}

// AsAppError returns err as an AppError, wrapping unknown errors as unexpected
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewUnexpectedError("Internal server error", err)
}

// IsKind reports whether err is an AppError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
