// Package anyllm adapts github.com/mozilla-ai/any-llm-go to llm.Provider for
// backends that have no dedicated adapter. Today that is Ollama; hosted
// APIs use the openai or anthropic adapters, which turn SDK retries off.
//
// any-llm-go has no portable structured-output option. A ResponseSchema is
// therefore described in the system prompt, and a reply wrapped in a
// markdown code fence is unwrapped before it is returned.
package anyllm

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"

	"github.com/linguaweave/linguaweave/pkg/provider/llm"
)

type constructor func(...anyllmlib.Option) (anyllmlib.Provider, error)

func adapt[P anyllmlib.Provider](fn func(...anyllmlib.Option) (P, error)) constructor {
	return func(opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
		return fn(opts...)
	}
}

var constructors = map[string]constructor{
	"ollama": adapt(ollama.New),
}

// Backends returns the sorted backend names accepted by New.
func Backends() []string {
	return slices.Sorted(maps.Keys(constructors))
}

// noRetry marks every response as not retryable via the X-Should-Retry
// header, which SDK clients built on the shared HTTP client honour. Transport
// errors are left alone.
type noRetry struct{ base http.RoundTripper }

func (t noRetry) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(r)
	if resp != nil {
		resp.Header.Set("X-Should-Retry", "false")
	}
	return resp, err
}

// Provider implements llm.Provider on top of an any-llm-go backend.
type Provider struct {
	backend anyllmlib.Provider
	name    string
	model   string
}

// New creates a Provider for the named backend. Names are case-insensitive.
// opts are passed to the backend after an HTTP client that disables retries
// and carries the timeout set with anyllmlib.WithTimeout.
func New(backend, model string, opts ...anyllmlib.Option) (*Provider, error) {
	if model == "" {
		return nil, errors.New("anyllm: model must not be empty")
	}
	name := strings.ToLower(backend)
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("anyllm: unsupported backend %q (supported: %s)", backend, strings.Join(Backends(), ", "))
	}
	// A custom client makes any-llm ignore Config.Timeout, so it is copied.
	cfg, err := anyllmlib.NewConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: %s options: %w", name, err)
	}
	client := &http.Client{Timeout: cfg.Timeout, Transport: noRetry{base: http.DefaultTransport}}
	b, err := ctor(append([]anyllmlib.Option{anyllmlib.WithHTTPClient(client)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %s backend: %w", name, err)
	}
	return &Provider{backend: b, name: name, model: model}, nil
}

// Name returns the lower-cased backend name.
func (p *Provider) Name() string { return p.name }

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	resp, err := p.backend.Completion(ctx, p.params(req))
	if err != nil {
		return nil, fmt.Errorf("anyllm: %s completion: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("anyllm: %s returned no choices", p.name)
	}

	content := resp.Choices[0].Message.ContentString()
	if req.ResponseSchema != nil {
		content = llm.Unfence(content)
	}
	out := &llm.CompletionResponse{Content: content}
	if u := resp.Usage; u != nil {
		out.Usage = llm.Usage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	return out, nil
}

func (p *Provider) params(req llm.CompletionRequest) anyllmlib.CompletionParams {
	msgs := make([]anyllmlib.Message, 0, len(req.Messages)+1)
	system := strings.TrimSpace(strings.Join([]string{req.SystemPrompt, llm.SchemaInstruction(req.ResponseSchema)}, "\n\n"))
	if system != "" {
		msgs = append(msgs, anyllmlib.Message{Role: anyllmlib.RoleSystem, Content: system})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, anyllmlib.Message{Role: m.Role, Content: m.Content})
	}

	params := anyllmlib.CompletionParams{Model: p.model, Messages: msgs}
	if req.Temperature != 0 {
		params.Temperature = &req.Temperature
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = &req.MaxTokens
	}
	return params
}

var _ llm.Provider = (*Provider)(nil)
