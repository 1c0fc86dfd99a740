// Package anthropic implements llm.Provider with the Anthropic Messages API.
// The SDK's automatic retries are disabled so that every Complete is one
// HTTP request.
//
// The Messages API has no JSON-schema response format, so a ResponseSchema is
// described in the system prompt and a fenced reply is unwrapped.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linguaweave/linguaweave/pkg/provider/llm"
)

// DefaultMaxTokens caps replies when a request leaves MaxTokens at zero. The
// API requires an explicit limit.
const DefaultMaxTokens = 2048

// Provider implements llm.Provider using the Anthropic API.
type Provider struct {
	client sdk.Client
	model  string
}

type config struct {
	baseURL string
	timeout time.Duration
}

// Option adjusts the client connection.
type Option func(*config)

// WithBaseURL points the client at a different API host.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout bounds each HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New returns a Provider for model.
func New(apiKey, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: apiKey must not be empty")
	}
	if model == "" {
		return nil, errors.New("anthropic: model must not be empty")
	}
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}

	ropts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		ropts = append(ropts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		ropts = append(ropts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}
	return &Provider{client: sdk.NewClient(ropts...), model: model}, nil
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}
	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: messages: %w", err)
	}

	switch msg.StopReason {
	case "refusal":
		return nil, fmt.Errorf("anthropic: %w", llm.ErrRefused)
	case "max_tokens":
		if req.ResponseSchema != nil {
			return nil, fmt.Errorf("anthropic: %w", llm.ErrTruncated)
		}
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	content := text.String()
	if req.ResponseSchema != nil {
		content = llm.Unfence(content)
	}
	in, out := int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
	return &llm.CompletionResponse{
		Content: content,
		Usage:   llm.Usage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out},
	}, nil
}

// buildParams folds system-role messages and the schema instruction into the
// top-level system prompt, which is the only place the API accepts them.
func (p *Provider) buildParams(req llm.CompletionRequest) (sdk.MessageNewParams, error) {
	system := []string{req.SystemPrompt}
	var msgs []sdk.MessageParam
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleUser:
			msgs = append(msgs, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case llm.RoleAssistant:
			msgs = append(msgs, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		default:
			return sdk.MessageNewParams{}, fmt.Errorf("anthropic: unknown message role %q", m.Role)
		}
	}
	if len(msgs) == 0 {
		return sdk.MessageNewParams{}, errors.New("anthropic: at least one user or assistant message is required")
	}
	system = append(system, llm.SchemaInstruction(req.ResponseSchema))

	maxTokens := int64(DefaultMaxTokens)
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if s := joinNonEmpty(system); s != "" {
		params.System = []sdk.TextBlockParam{{Text: s}}
	}
	if req.Temperature != 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}
	return params, nil
}

func joinNonEmpty(parts []string) string {
	kept := parts[:0:0]
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n\n")
}

var _ llm.Provider = (*Provider)(nil)
