package service

import "fmt"

// ValidationError is a field-level validation failure. Handlers translate it
// into a field-keyed 400 response; it is never surfaced as a raw constraint
// violation or a bare 404.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
