package openai

import (
	"fmt"
	"maps"
	"slices"
)

type endpoint struct {
	baseURL string
	// keyless servers accept any bearer token.
	keyless bool
}

// compatible lists chat completion endpoints that speak the OpenAI wire
// format. Local servers default to their usual listen address.
var compatible = map[string]endpoint{
	"deepseek":  {baseURL: "https://api.deepseek.com/v1"},
	"groq":      {baseURL: "https://api.groq.com/openai/v1"},
	"mistral":   {baseURL: "https://api.mistral.ai/v1"},
	"llamacpp":  {baseURL: "http://127.0.0.1:8080/v1", keyless: true},
	"llamafile": {baseURL: "http://127.0.0.1:8080/v1", keyless: true},
}

// placeholderKey is sent to keyless servers when no key is configured.
const placeholderKey = "sk-no-key-required"

// Compatible returns the sorted backend names accepted by NewCompatible.
func Compatible() []string {
	return slices.Sorted(maps.Keys(compatible))
}

// NewCompatible returns a Provider for an OpenAI-compatible backend. The
// backend's default base URL applies unless opts override it.
func NewCompatible(backend, apiKey, model string, opts ...Option) (*Provider, error) {
	ep, ok := compatible[backend]
	if !ok {
		return nil, fmt.Errorf("openai: %q is not an OpenAI-compatible backend", backend)
	}
	if apiKey == "" && ep.keyless {
		apiKey = placeholderKey
	}
	return New(apiKey, model, append([]Option{WithBaseURL(ep.baseURL)}, opts...)...)
}
