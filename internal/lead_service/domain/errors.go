package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownForm indicates that no schema is registered for a form kind.
	ErrUnknownForm = errors.New("unknown form")
	// ErrUnknownField indicates a field name the form does not declare.
	ErrUnknownField = errors.New("unknown field")
	// ErrSessionNotFound indicates that a form session is closed or never existed.
	ErrSessionNotFound = errors.New("form session not found")
	// ErrSessionClosed is returned by a controller used after Close.
	ErrSessionClosed = errors.New("form session closed")
	// ErrSubmitInFlight rejects a submit while a delivery is still pending.
	ErrSubmitInFlight = errors.New("submission already in flight")
)

// FieldError names one field and the rule it broke.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError lists every field that blocked a submission.
type ValidationError struct {
	Form   FormKind
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ":" + f.Rule
	}
	return fmt.Sprintf("form %s failed validation (%s)", e.Form, strings.Join(parts, ", "))
}
