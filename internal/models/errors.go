package models

import (
	"errors"
	"fmt"
)

// Error codes shared by repositories and handlers.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
	CodeDuplicateUsername = "DUPLICATE_USERNAME"
	CodeInvalidCredential = "INVALID_CREDENTIAL"
	CodeBanned            = "BANNED"
	CodeValidation        = "VALIDATION_ERROR"
	CodeStorage           = "STORAGE_ERROR"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so callers can write
// errors.Is(err, models.ErrNotFound).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound          = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrForbidden         = &AppError{Code: CodeForbidden, Message: "forbidden"}
	ErrDuplicateUsername = &AppError{Code: CodeDuplicateUsername, Message: "username already taken"}
	ErrInvalidCredential = &AppError{Code: CodeInvalidCredential, Message: "invalid credentials"}
	ErrBanned            = &AppError{Code: CodeBanned, Message: "account is banned"}
	ErrValidation        = &AppError{Code: CodeValidation, Message: "validation failed"}
	ErrStorage           = &AppError{Code: CodeStorage, Message: "storage failure"}
)

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v not found", resource, id),
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewDuplicateUsernameError(username string) *AppError {
	return &AppError{
		Code:    CodeDuplicateUsername,
		Message: fmt.Sprintf("username '%s' already taken", username),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewStorageError wraps an I/O or decode failure on a collection.
func NewStorageError(op, collection string, err error) *AppError {
	return &AppError{
		Code:    CodeStorage,
		Message: fmt.Sprintf("%s %s", op, collection),
		Err:     err,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
