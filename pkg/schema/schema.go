// Package schema describes and enforces the shape of flow inputs and outputs.
//
// A [Schema] maps field names to a [Field] declaration. [Validate] checks a
// candidate record against it and returns a freshly allocated, coerced copy
// that contains only the declared fields. The candidate is never modified, so
// the same validator serves both directions of a flow: rejecting malformed
// caller input before any network call, and rejecting a malformed model reply
// instead of propagating it as a success.
package schema

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Type is the value type of a field.
type Type string

const (
	// String accepts a Go string.
	String Type = "string"

	// StringList accepts []string, or []any whose elements are all strings
	// (the shape produced by encoding/json).
	StringList Type = "string_list"
)

// Field declares one field of a [Schema].
type Field struct {
	// Type is the expected value type.
	Type Type

	// Required marks the field as mandatory. Optional fields that are absent
	// or nil are omitted from the validated result.
	Required bool

	// Enum, when non-empty, restricts a String field to the listed values.
	Enum []string

	// Description is a short human-readable explanation used when the schema
	// is presented to a model.
	Description string
}

// Schema maps field names to their declarations.
type Schema map[string]Field

// Names returns the declared field names in sorted order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is declared in s.
func (s Schema) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Validate checks data against s and returns a new map holding the coerced
// values of all declared fields that are present. Undeclared keys are
// dropped. On failure the returned error is an [*AggregateError] with one
// [*ValidationError] per offending field, in field-name order.
func Validate(s Schema, data map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(s))
	var errs []error

	for _, name := range s.Names() {
		f := s[name]
		raw, ok := data[name]
		if !ok || raw == nil {
			if f.Required {
				errs = append(errs, &ValidationError{Field: name, Constraint: ConstraintRequired})
			}
			continue
		}

		v, err := f.coerce(raw)
		if err != nil {
			errs = append(errs, &ValidationError{Field: name, Constraint: ConstraintType, Value: raw, detail: err.Error()})
			continue
		}
		if len(f.Enum) > 0 {
			if str, _ := v.(string); !slices.Contains(f.Enum, str) {
				errs = append(errs, &ValidationError{
					Field:      name,
					Constraint: ConstraintEnum,
					Value:      raw,
					detail:     "must be one of " + strings.Join(f.Enum, ", "),
				})
				continue
			}
		}
		out[name] = v
	}

	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}
	return out, nil
}

// coerce converts raw into the canonical Go representation of f.Type.
func (f Field) coerce(raw any) (any, error) {
	switch f.Type {
	case String:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}
		return s, nil

	case StringList:
		switch v := raw.(type) {
		case []string:
			return slices.Clone(v), nil
		case []any:
			list := make([]string, len(v))
			for i, el := range v {
				s, ok := el.(string)
				if !ok {
					return nil, fmt.Errorf("element %d: expected string, got %T", i, el)
				}
				list[i] = s
			}
			return list, nil
		default:
			return nil, fmt.Errorf("expected list of strings, got %T", raw)
		}
	}
	return nil, fmt.Errorf("unsupported field type %q", f.Type)
}
