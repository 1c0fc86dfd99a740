// Package llm defines the Provider interface for text-generation backends.
//
// A text provider wraps a remote or local model API (OpenAI, Gemini, Anthropic,
// a local Ollama instance, ...) and exposes a single request/response
// completion call. Flows that expect structured output pass a ResponseSchema;
// providers with native structured-output support forward it to the API, the
// rest fold a plain-text description of the schema into the system prompt.
//
// Implementors must be safe for concurrent use.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrRefused is returned when the model declines to answer, either by an
	// explicit refusal or a safety stop.
	ErrRefused = errors.New("llm: model refused")

	// ErrTruncated is returned when a schema reply hit the token limit and
	// cannot be a complete JSON document.
	ErrTruncated = errors.New("llm: reply truncated at token limit")
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single message in the request conversation.
type Message struct {
	// Role is one of RoleSystem, RoleUser or RoleAssistant.
	Role string

	// Content is the text content of the message.
	Content string
}

// ResponseSchema asks the model to answer with a JSON object of a known shape.
type ResponseSchema struct {
	// Name identifies the schema. Some APIs require it to match ^[a-zA-Z0-9_-]+$.
	Name string

	// Schema is a JSON-Schema object describing the expected reply.
	Schema map[string]any

	// Description is a plain-text rendering of Schema for providers that cannot
	// enforce a schema natively.
	Description string
}

// Usage holds token accounting information returned by the backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the model needs to produce a reply.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation. The last message is typically from
	// the user role and drives the response.
	Messages []Message

	// SystemPrompt is an optional high-priority instruction injected before the
	// conversation.
	SystemPrompt string

	// Temperature controls output randomness. Zero means provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens. Zero means provider default.
	MaxTokens int

	// ResponseSchema, when non-nil, requests a JSON object reply.
	ResponseSchema *ResponseSchema
}

// CompletionResponse is the model's full reply.
type CompletionResponse struct {
	// Content is the text of the reply. For schema requests it holds the JSON
	// document, possibly wrapped in a Markdown code fence.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any text-generation backend.
type Provider interface {
	// Complete sends req to the model and waits for the full response. Exactly
	// one request is issued; implementations do not retry.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// SchemaInstruction returns the system-prompt suffix used by providers that
// cannot enforce a response schema natively.
func SchemaInstruction(rs *ResponseSchema) string {
	if rs == nil {
		return ""
	}
	return "Respond with a single JSON object and nothing else. Fields:\n" + rs.Description
}
