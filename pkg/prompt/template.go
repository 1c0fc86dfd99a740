// Package prompt renders natural-language instructions from a small
// expression tree.
//
// A [Template] is an ordered list of [Node] values. There are three kinds:
// [Text] literals, [Field] substitutions and [Optional] blocks, which choose
// between two sub-trees depending on whether a field is present. Templates can
// be built directly from nodes or parsed from the familiar
// "{{field}}" / "{{#if field}}…{{else}}…{{/if}}" syntax with [Parse].
//
// Rendering is pure and deterministic: the same template and record always
// produce the same string.
package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// Node is one element of a template's expression tree.
type Node interface {
	render(b *strings.Builder, tmpl string, data map[string]any) error
	collect(seen map[string]struct{})
}

// Text is a literal segment copied verbatim to the output.
type Text string

func (t Text) render(b *strings.Builder, _ string, _ map[string]any) error {
	b.WriteString(string(t))
	return nil
}

func (Text) collect(map[string]struct{}) {}

// Field substitutes the textual representation of a record field. A field
// with no value is a [*TemplateError].
type Field string

func (f Field) render(b *strings.Builder, tmpl string, data map[string]any) error {
	v, ok := data[string(f)]
	if !ok || v == nil {
		return &TemplateError{Template: tmpl, Field: string(f)}
	}
	b.WriteString(format(v))
	return nil
}

func (f Field) collect(seen map[string]struct{}) { seen[string(f)] = struct{}{} }

// Optional renders Then when Field is present and non-empty, and Else
// otherwise.
type Optional struct {
	Field string
	Then  []Node
	Else  []Node
}

func (o Optional) render(b *strings.Builder, tmpl string, data map[string]any) error {
	branch := o.Else
	if present(data[o.Field]) {
		branch = o.Then
	}
	for _, n := range branch {
		if err := n.render(b, tmpl, data); err != nil {
			return err
		}
	}
	return nil
}

func (o Optional) collect(seen map[string]struct{}) {
	seen[o.Field] = struct{}{}
	for _, n := range o.Then {
		n.collect(seen)
	}
	for _, n := range o.Else {
		n.collect(seen)
	}
}

// Template is a named, immutable expression tree.
type Template struct {
	name  string
	nodes []Node
}

// New builds a template from nodes.
func New(name string, nodes ...Node) *Template {
	return &Template{name: name, nodes: append([]Node(nil), nodes...)}
}

// Name returns the template name used in errors.
func (t *Template) Name() string { return t.name }

// Render produces the instruction string for data.
func (t *Template) Render(data map[string]any) (string, error) {
	var b strings.Builder
	for _, n := range t.nodes {
		if err := n.render(&b, t.name, data); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// Fields returns every field name referenced anywhere in the template, in
// sorted order.
func (t *Template) Fields() []string {
	seen := make(map[string]struct{})
	for _, n := range t.nodes {
		n.collect(seen)
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// present reports whether v selects the Then branch. Absent, nil, empty
// strings and empty lists count as missing.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case []string:
		return len(x) > 0
	case []any:
		return len(x) > 0
	}
	return true
}

func format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, len(x))
		for i, el := range x {
			parts[i] = format(el)
		}
		return strings.Join(parts, ", ")
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
