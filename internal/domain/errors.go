package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("duplicate field name")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	// ErrInUse signals a delete blocked by rows that still reference the
	// target, e.g. a unit that still has directory members.
	ErrInUse = errors.New("still referenced")
)

// FieldError describes a validation failure scoped to a single field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the complete set of field-level failures collected
// in one validation pass. Callers always receive every violation, not just
// the first one.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationErrors wraps multiple field errors into a ValidationError.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}
