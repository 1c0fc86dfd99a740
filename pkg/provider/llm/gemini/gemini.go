// Package gemini provides a text provider backed by the Google Gemini API via
// google.golang.org/genai. Response schemas are passed through as the
// request's JSON response schema so the model answers with a conforming
// object.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/linguaweave/linguaweave/pkg/provider/internal/googleai"
	"github.com/linguaweave/linguaweave/pkg/provider/llm"
)

// DefaultModel is used when New is called with an empty model.
const DefaultModel = "gemini-2.5-flash"

// Provider implements llm.Provider using the Gemini API.
type Provider struct {
	client *genai.Client
	model  string
}

type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the Gemini API endpoint. Used by tests.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a Gemini text Provider.
func New(ctx context.Context, apiKey, model string, opts ...Option) (*Provider, error) {
	if model == "" {
		model = DefaultModel
	}
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	client, err := googleai.NewClient(ctx, apiKey, cfg.baseURL, cfg.timeout)
	if err != nil {
		return nil, err
	}
	return &Provider{client: client, model: model}, nil
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	contents, err := convertMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, buildConfig(req))
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, fmt.Errorf("gemini: %w: prompt blocked: %s", llm.ErrRefused, fb.BlockReason)
	}
	if len(resp.Candidates) > 0 {
		switch resp.Candidates[0].FinishReason {
		case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent:
			return nil, fmt.Errorf("gemini: %w: %s", llm.ErrRefused, resp.Candidates[0].FinishReason)
		case genai.FinishReasonMaxTokens:
			if req.ResponseSchema != nil {
				return nil, fmt.Errorf("gemini: %w", llm.ErrTruncated)
			}
		}
	}

	out := &llm.CompletionResponse{Content: resp.Text()}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = llm.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

func buildConfig(req llm.CompletionRequest) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Temperature != 0 {
		t := float32(req.Temperature)
		gc.Temperature = &t
	}
	if req.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxTokens)
	}
	if rs := req.ResponseSchema; rs != nil {
		gc.ResponseMIMEType = "application/json"
		gc.ResponseJsonSchema = rs.Schema
	}
	return gc
}

// convertMessages maps roles onto Gemini's user/model pair. System messages
// inside the conversation are sent as user turns.
func convertMessages(msgs []llm.Message) ([]*genai.Content, error) {
	if len(msgs) == 0 {
		return nil, errors.New("gemini: at least one message is required")
	}
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		var role genai.Role
		switch m.Role {
		case llm.RoleUser, llm.RoleSystem:
			role = genai.RoleUser
		case llm.RoleAssistant:
			role = genai.RoleModel
		default:
			return nil, fmt.Errorf("gemini: unknown message role %q", m.Role)
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return out, nil
}

var _ llm.Provider = (*Provider)(nil)
