package schema

import (
	"fmt"
	"strings"
)

// JSONSchema renders s as a JSON-Schema object suitable for provider-side
// structured output. All declared fields appear under "properties"; required
// fields are listed under "required" in sorted order.
func (s Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s))
	required := []string{}
	for _, name := range s.Names() {
		f := s[name]
		prop := map[string]any{}
		switch f.Type {
		case StringList:
			prop["type"] = "array"
			prop["items"] = map[string]any{"type": "string"}
		default:
			prop["type"] = "string"
		}
		if len(f.Enum) > 0 {
			enum := make([]any, len(f.Enum))
			for i, v := range f.Enum {
				enum[i] = v
			}
			prop["enum"] = enum
		}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		props[name] = prop
		if f.Required {
			required = append(required, name)
		}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

// Describe returns a plain-text listing of the fields of s, one per line,
// for backends that only accept free-form instructions.
func (s Schema) Describe() string {
	var b strings.Builder
	for _, name := range s.Names() {
		f := s[name]
		kind := "string"
		if f.Type == StringList {
			kind = "array of strings"
		}
		req := "optional"
		if f.Required {
			req = "required"
		}
		fmt.Fprintf(&b, "- %s (%s, %s)", name, kind, req)
		if len(f.Enum) > 0 {
			fmt.Fprintf(&b, " one of: %s", strings.Join(f.Enum, ", "))
		}
		if f.Description != "" {
			b.WriteString(": ")
			b.WriteString(f.Description)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
