package prompt

import (
	"strings"
	"unicode"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Parse compiles src into a [Template]. Supported tags:
//
//	{{name}} and {{{name}}}   field substitution
//	{{#if name}}              start of an optional block
//	{{else}}                  alternative branch of the innermost block
//	{{/if}}                   end of the innermost block
//
// Field names consist of letters, digits, '_' and '.'.
func Parse(name, src string) (*Template, error) {
	p := &parser{name: name, src: src}
	nodes, err := p.parseNodes(0)
	if err != nil {
		return nil, err
	}
	return &Template{name: name, nodes: nodes}, nil
}

// MustParse is like [Parse] but panics on error. Intended for templates
// defined as package-level constants.
func MustParse(name, src string) *Template {
	t, err := Parse(name, src)
	if err != nil {
		panic(err)
	}
	return t
}

type tagKind int

const (
	tagField tagKind = iota
	tagIf
	tagElse
	tagEnd
)

type tag struct {
	kind   tagKind
	field  string
	offset int
}

type parser struct {
	name string
	src  string
	pos  int
}

func (p *parser) errorf(offset int, msg string) error {
	return &SyntaxError{Template: p.name, Offset: offset, Msg: msg}
}

// parseNodes reads nodes until EOF (depth 0) or until an {{else}} / {{/if}}
// tag, which is left for the caller to consume.
func (p *parser) parseNodes(depth int) ([]Node, error) {
	var nodes []Node
	for p.pos < len(p.src) {
		i := strings.Index(p.src[p.pos:], openDelim)
		if i < 0 {
			nodes = append(nodes, Text(p.src[p.pos:]))
			p.pos = len(p.src)
			break
		}
		if i > 0 {
			nodes = append(nodes, Text(p.src[p.pos:p.pos+i]))
			p.pos += i
		}

		start := p.pos
		t, end, err := p.readTag()
		if err != nil {
			return nil, err
		}

		switch t.kind {
		case tagField:
			p.pos = end
			nodes = append(nodes, Field(t.field))
		case tagIf:
			p.pos = end
			opt, err := p.parseOptional(t)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, opt)
		case tagElse, tagEnd:
			if depth == 0 {
				return nil, p.errorf(start, "unexpected "+p.src[start:end])
			}
			return nodes, nil
		}
	}
	if depth > 0 {
		return nil, p.errorf(len(p.src), "unterminated {{#if}} block")
	}
	return nodes, nil
}

func (p *parser) parseOptional(open tag) (Optional, error) {
	opt := Optional{Field: open.field}

	then, err := p.parseNodes(1)
	if err != nil {
		return Optional{}, err
	}
	opt.Then = then

	t, end, err := p.readTag()
	if err != nil {
		return Optional{}, err
	}
	p.pos = end
	if t.kind == tagElse {
		els, err := p.parseNodes(1)
		if err != nil {
			return Optional{}, err
		}
		opt.Else = els

		t, end, err = p.readTag()
		if err != nil {
			return Optional{}, err
		}
		if t.kind != tagEnd {
			return Optional{}, p.errorf(t.offset, "expected {{/if}} after {{else}} branch")
		}
		p.pos = end
	}
	return opt, nil
}

// readTag decodes the tag starting at p.pos without advancing. It returns the
// offset just past the closing delimiter.
func (p *parser) readTag() (tag, int, error) {
	start := p.pos
	rest := p.src[start+len(openDelim):]
	triple := strings.HasPrefix(rest, "{")
	if triple {
		rest = rest[1:]
	}
	closing := closeDelim
	if triple {
		closing = "}}}"
	}
	j := strings.Index(rest, closing)
	if j < 0 {
		return tag{}, 0, p.errorf(start, "unclosed tag")
	}
	body := strings.TrimSpace(rest[:j])
	end := len(p.src) - len(rest) + j + len(closing)

	switch {
	case strings.HasPrefix(body, "#if"):
		if triple {
			return tag{}, 0, p.errorf(start, "block tags cannot use triple braces")
		}
		field := strings.TrimSpace(strings.TrimPrefix(body, "#if"))
		if !validField(field) || !strings.HasPrefix(body, "#if ") {
			return tag{}, 0, p.errorf(start, "malformed {{#if}} tag")
		}
		return tag{kind: tagIf, field: field, offset: start}, end, nil
	case body == "else":
		return tag{kind: tagElse, offset: start}, end, nil
	case body == "/if":
		return tag{kind: tagEnd, offset: start}, end, nil
	case validField(body):
		return tag{kind: tagField, field: body, offset: start}, end, nil
	}
	return tag{}, 0, p.errorf(start, "invalid placeholder "+strings.TrimSpace(p.src[start:end]))
}

func validField(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return false
		}
	}
	return true
}
