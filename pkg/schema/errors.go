package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Constraint names the rule a field violated.
type Constraint string

const (
	ConstraintRequired Constraint = "required"
	ConstraintType     Constraint = "type"
	ConstraintEnum     Constraint = "enum"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field      string
	Constraint Constraint
	Value      any

	detail string
}

func (e *ValidationError) Error() string {
	if e.detail == "" {
		return fmt.Sprintf("field %q: %s", e.Field, e.Constraint)
	}
	return fmt.Sprintf("field %q: %s: %s", e.Field, e.Constraint, e.detail)
}

// AggregateError collects every field failure found by [Validate].
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// FieldErrors returns the individual field failures contained in err, or nil
// when err carries none.
func FieldErrors(err error) []*ValidationError {
	var agg *AggregateError
	if !errors.As(err, &agg) {
		var single *ValidationError
		if errors.As(err, &single) {
			return []*ValidationError{single}
		}
		return nil
	}
	out := make([]*ValidationError, 0, len(agg.Errors))
	for _, e := range agg.Errors {
		var ve *ValidationError
		if errors.As(e, &ve) {
			out = append(out, ve)
		}
	}
	return out
}
