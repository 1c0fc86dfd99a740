// Package openai implements llm.Provider with the OpenAI chat completions
// API. A ResponseSchema becomes a strict json_schema response format, so
// replies need no fence stripping.
package openai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/linguaweave/linguaweave/pkg/provider/internal/openaiclient"
	"github.com/linguaweave/linguaweave/pkg/provider/llm"
)

// Provider implements llm.Provider using the OpenAI API.
type Provider struct {
	client oai.Client
	model  string
}

// Option adjusts the client connection.
type Option func(*openaiclient.Config)

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *openaiclient.Config) { c.BaseURL = url }
}

// WithOrganization sets the OpenAI-Organization header.
func WithOrganization(org string) Option {
	return func(c *openaiclient.Config) { c.Organization = org }
}

// WithTimeout bounds each HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(c *openaiclient.Config) { c.Timeout = d }
}

// New returns a Provider for model.
func New(apiKey, model string, opts ...Option) (*Provider, error) {
	if model == "" {
		return nil, errors.New("openai: model must not be empty")
	}
	cfg := openaiclient.Config{APIKey: apiKey}
	for _, o := range opts {
		o(&cfg)
	}
	client, err := openaiclient.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Provider{client: client, model: model}, nil
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: no choices in response")
	}

	choice := resp.Choices[0]
	switch {
	case choice.Message.Refusal != "":
		return nil, fmt.Errorf("openai: %w: %s", llm.ErrRefused, choice.Message.Refusal)
	case choice.FinishReason == "content_filter":
		return nil, fmt.Errorf("openai: %w: content filter", llm.ErrRefused)
	case choice.FinishReason == "length" && req.ResponseSchema != nil:
		return nil, fmt.Errorf("openai: %w", llm.ErrTruncated)
	}
	return &llm.CompletionResponse{
		Content: choice.Message.Content,
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func (p *Provider) buildParams(req llm.CompletionRequest) (oai.ChatCompletionNewParams, error) {
	msgs := make([]oai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, oai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			msgs = append(msgs, oai.SystemMessage(m.Content))
		case llm.RoleUser:
			msgs = append(msgs, oai.UserMessage(m.Content))
		case llm.RoleAssistant:
			msgs = append(msgs, oai.AssistantMessage(m.Content))
		default:
			return oai.ChatCompletionNewParams{}, fmt.Errorf("openai: unknown message role %q", m.Role)
		}
	}

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: msgs,
	}
	if req.Temperature != 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}
	if rs := req.ResponseSchema; rs != nil {
		params.ResponseFormat = oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName(rs.Name),
					Strict: param.NewOpt(true),
					Schema: rs.Schema,
				},
			},
		}
	}
	return params, nil
}

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// schemaName maps name onto the json_schema name alphabet, at most 64 chars.
func schemaName(name string) string {
	name = invalidNameChars.ReplaceAllString(name, "_")
	if name == "" {
		return "reply"
	}
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}

var _ llm.Provider = (*Provider)(nil)
