package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by repositories for a missing feed or entry.
	ErrNotFound = errors.New("entity not found")

	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError describes which field failed validation and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap lets callers match any ValidationError with errors.Is(err, ErrValidationFailed).
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
