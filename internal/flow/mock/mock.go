// Package mock provides a test double for the typed flow client.
//
// Client records every request under a mutex and returns the configured
// result or error. Set Hook to run code inside a call, for example to block
// until the test changes session state while a flow is in flight.
package mock

import (
	"context"
	"sync"

	"github.com/linguaweave/linguaweave/internal/flow"
)

// Call records a single invocation.
type Call struct {
	// Flow is the built-in flow name.
	Flow string
	// Req is the typed request passed to the method.
	Req any
}

// Client is a mock of the methods exposed by flow.Client.
type Client struct {
	mu sync.Mutex

	GrammarResult      flow.GrammarResult
	GrammarErr         error
	LessonResult       flow.LessonResult
	LessonErr          error
	ConversationResult flow.ConversationResult
	ConversationErr    error
	SpeechResult       flow.SpeechResult
	SpeechErr          error
	ImageResult        flow.ImageResult
	ImageErr           error

	// Hook, if set, is called with the flow name before each method returns.
	// It runs without the mock's lock held.
	Hook func(ctx context.Context, name string)

	calls []Call
}

func (c *Client) record(ctx context.Context, name string, req any) {
	c.mu.Lock()
	c.calls = append(c.calls, Call{Flow: name, Req: req})
	hook := c.Hook
	c.mu.Unlock()
	if hook != nil {
		hook(ctx, name)
	}
}

// CheckGrammar records the call and returns GrammarResult, GrammarErr.
func (c *Client) CheckGrammar(ctx context.Context, req flow.GrammarRequest) (flow.GrammarResult, error) {
	c.record(ctx, flow.GrammarCheck, req)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.GrammarResult, c.GrammarErr
}

// VocabularyLesson records the call and returns LessonResult, LessonErr.
func (c *Client) VocabularyLesson(ctx context.Context, req flow.LessonRequest) (flow.LessonResult, error) {
	c.record(ctx, flow.VocabularyLesson, req)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.LessonResult, c.LessonErr
}

// Converse records the call and returns ConversationResult, ConversationErr.
func (c *Client) Converse(ctx context.Context, req flow.ConversationRequest) (flow.ConversationResult, error) {
	c.record(ctx, flow.Conversation, req)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ConversationResult, c.ConversationErr
}

// Speak records the call and returns SpeechResult, SpeechErr.
func (c *Client) Speak(ctx context.Context, req flow.SpeechRequest) (flow.SpeechResult, error) {
	c.record(ctx, flow.TextToSpeech, req)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.SpeechResult, c.SpeechErr
}

// GenerateImage records the call and returns ImageResult, ImageErr.
func (c *Client) GenerateImage(ctx context.Context, req flow.ImageRequest) (flow.ImageResult, error) {
	c.record(ctx, flow.ImageGeneration, req)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ImageResult, c.ImageErr
}

// Calls returns a copy of the recorded calls. Thread-safe.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Reset clears all recorded calls. Thread-safe.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}
