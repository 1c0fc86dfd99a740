package config

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/linguaweave/linguaweave/pkg/provider/image"
	"github.com/linguaweave/linguaweave/pkg/provider/llm"
	"github.com/linguaweave/linguaweave/pkg/provider/tts"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider kind. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	text   map[string]func(ProviderEntry) (llm.Provider, error)
	speech map[string]func(ProviderEntry) (tts.Provider, error)
	image  map[string]func(ProviderEntry) (image.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		text:   make(map[string]func(ProviderEntry) (llm.Provider, error)),
		speech: make(map[string]func(ProviderEntry) (tts.Provider, error)),
		image:  make(map[string]func(ProviderEntry) (image.Provider, error)),
	}
}

// RegisterText registers a text provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterText(name string, factory func(ProviderEntry) (llm.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.text[name] = factory
}

// RegisterSpeech registers a speech provider factory under name.
func (r *Registry) RegisterSpeech(name string, factory func(ProviderEntry) (tts.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speech[name] = factory
}

// RegisterImage registers an image provider factory under name.
func (r *Registry) RegisterImage(name string, factory func(ProviderEntry) (image.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.image[name] = factory
}

// CreateText instantiates a text provider using the factory registered under entry.Name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for that name.
func (r *Registry) CreateText(entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.text[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: text/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateSpeech instantiates a speech provider using the factory registered under entry.Name.
func (r *Registry) CreateSpeech(entry ProviderEntry) (tts.Provider, error) {
	r.mu.RLock()
	factory, ok := r.speech[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: speech/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateImage instantiates an image provider using the factory registered under entry.Name.
func (r *Registry) CreateImage(entry ProviderEntry) (image.Provider, error) {
	r.mu.RLock()
	factory, ok := r.image[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: image/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// Names returns the sorted provider names registered for each kind.
func (r *Registry) Names() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[string][]string{
		"text":   sortedKeys(r.text),
		"speech": sortedKeys(r.speech),
		"image":  sortedKeys(r.image),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
