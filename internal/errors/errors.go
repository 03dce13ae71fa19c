package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies a failure for the upload pipeline.
type ErrorCategory string

const (
	// CategoryTransient represents failures worth retrying with backoff
	// (network errors, provider 5xx/429, rendering hiccups).
	CategoryTransient ErrorCategory = "transient"
	// CategoryValidation represents bad caller input on the API surface.
	CategoryValidation ErrorCategory = "validation"
	// CategoryNotFound represents a missing entity on the API surface.
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryDatabase represents persistence-layer failures.
	CategoryDatabase ErrorCategory = "database"
)

// CategorizedError is an error with a pipeline category and stable code.
type CategorizedError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates an invalid-input error.
func NewValidationError(message string) *CategorizedError {
	return &CategorizedError{Category: CategoryValidation, Code: "INVALID_INPUT", Message: message}
}

// NewNotFoundError creates a missing-entity error.
func NewNotFoundError(kind, id string) *CategorizedError {
	return &CategorizedError{
		Category: CategoryNotFound,
		Code:     "NOT_FOUND",
		Message:  fmt.Sprintf("%s not found: %s", kind, id),
	}
}

// NewDatabaseError wraps a persistence failure.
func NewDatabaseError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category: CategoryDatabase,
		Code:     "DATABASE_ERROR",
		Message:  fmt.Sprintf("database operation failed: %s", operation),
		Cause:    cause,
	}
}

// CategoryOf returns the category of err. Errors that carry no category are
// treated as transient: the safe default for an at-least-once pipeline is to
// retry until the attempt budget runs out.
func CategoryOf(err error) ErrorCategory {
	var ce *CategorizedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategoryTransient
}

// MessageOf returns the human-readable message of err, falling back to the
// plain error text for uncategorized errors.
func MessageOf(err error) string {
	var ce *CategorizedError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}
