package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors returned by lifecycle services. Handlers map these onto the
// HTTP error envelope; anything else is treated as a store failure.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("not authorized")
	ErrInvalidState = errors.New("operation not allowed in current state")
	ErrConflict     = errors.New("conflict")
)

// ValidationError reports missing or invalid fields with per-field messages
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Caller identifies the user performing an operation. Lifecycle services take
// it explicitly instead of reading ambient auth state, so they stay testable
// in isolation.
type Caller struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the caller has the admin role
func (c Caller) IsAdmin() bool {
	return c.Role == "admin"
}
