package prompt

import "fmt"

// TemplateError reports a placeholder that has no corresponding value in the
// record being rendered. It indicates a mismatch between a template and the
// schema that feeds it.
type TemplateError struct {
	Template string
	Field    string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("prompt: template %q: no value for placeholder %q", e.Template, e.Field)
}

// SyntaxError reports malformed template source.
type SyntaxError struct {
	Template string
	Offset   int
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("prompt: template %q: offset %d: %s", e.Template, e.Offset, e.Msg)
}
