package flow

import (
	"errors"
	"fmt"
	"sort"
)

// Registry is an immutable, validated set of flow specs keyed by name.
type Registry struct {
	specs map[string]*Spec
}

// NewRegistry validates every spec and returns a Registry holding them.
// Duplicate names and invalid specs are reported together.
func NewRegistry(specs ...*Spec) (*Registry, error) {
	r := &Registry{specs: make(map[string]*Spec, len(specs))}
	var errs []error
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.specs[s.Name]; dup {
			errs = append(errs, fmt.Errorf("flow: duplicate flow name %q", s.Name))
			continue
		}
		r.specs[s.Name] = s
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Lookup returns the spec registered under name or an error wrapping
// [ErrUnknownFlow].
func (r *Registry) Lookup(name string) (*Spec, error) {
	s, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFlow, name)
	}
	return s, nil
}

// List returns all specs sorted by name.
func (r *Registry) List() []*Spec {
	out := make([]*Spec, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
