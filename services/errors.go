package services

import "fmt"

// Error codes used by the service layer. Controllers map these to HTTP
// statuses.
const (
	CodeValidation   = "VALIDATION"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL"
)

type ServiceError struct {
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Is matches by code so callers can use errors.Is against the sentinels
// below regardless of the message.
func (e *ServiceError) Is(target error) bool {
	if t, ok := target.(*ServiceError); ok {
		return e.Code == t.Code
	}
	return false
}

var (
	// ErrValidation - malformed, missing or out-of-enum input
	ErrValidation = &ServiceError{
		Code:    CodeValidation,
		Message: "validation failed",
	}

	// ErrNotFound - referenced id absent
	ErrNotFound = &ServiceError{
		Code:    CodeNotFound,
		Message: "resource not found",
	}

	// ErrConflict - uniqueness or invariant violation
	ErrConflict = &ServiceError{
		Code:    CodeConflict,
		Message: "resource conflict",
	}

	// ErrInvalidCredentials - unknown email or wrong password on login
	ErrInvalidCredentials = &ServiceError{
		Code:    CodeUnauthorized,
		Message: "Invalid email or password",
	}
)

// NewValidationError creates a VALIDATION error with a caller message
func NewValidationError(message string) *ServiceError {
	return &ServiceError{Code: CodeValidation, Message: message}
}

// NewNotFoundError creates a NOT_FOUND error for a named resource
func NewNotFoundError(resource string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// NewConflictError creates a CONFLICT error with a caller message
func NewConflictError(message string) *ServiceError {
	return &ServiceError{Code: CodeConflict, Message: message}
}
