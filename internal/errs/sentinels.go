// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"strings"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested document does not exist or its ID is malformed.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication (bad credentials or bad token).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAdminNotFound indicates a valid token whose subject no longer resolves to an admin.
	ErrAdminNotFound = errors.New("admin not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates malformed input; see ValidationError for field detail.
	ErrValidation = errors.New("validation failed")

	// ErrInternal indicates a server-side failure such as an upload write error.
	ErrInternal = errors.New("internal error")
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field-level problems of one request.
type ValidationError struct {
	Fields []FieldError
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: msg}}}
}

// Add appends a field problem.
func (e *ValidationError) Add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// OrNil returns nil when no field problems were recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
