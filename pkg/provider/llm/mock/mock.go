// Package mock provides a scripted llm.Provider for tests.
//
// Replies are served from Script in order. Once Script is used up, every call
// returns CompleteResponse and CompleteErr. Handler, when set, takes
// precedence over both.
//
//	p := &mock.Provider{Script: []mock.Reply{
//	    {Content: `{"aiResponse":"Bonjour"}`},
//	    {Err: errors.New("rate limited")},
//	}}
package mock

import (
	"context"
	"sync"

	"github.com/linguaweave/linguaweave/pkg/provider/llm"
)

// Reply is one scripted outcome.
type Reply struct {
	Content string
	Err     error
}

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	Ctx context.Context
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider. The zero value answers
// (nil, nil).
type Provider struct {
	mu sync.Mutex

	Script           []Reply
	CompleteResponse *llm.CompletionResponse
	CompleteErr      error
	Handler          func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)

	calls []CompleteCall
}

// Complete records the call and returns the next scripted outcome.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	req.Messages = append([]llm.Message(nil), req.Messages...)
	p.calls = append(p.calls, CompleteCall{Ctx: ctx, Req: req})
	h := p.Handler
	if h == nil && len(p.Script) > 0 {
		r := p.Script[0]
		p.Script = p.Script[1:]
		p.mu.Unlock()
		if r.Err != nil {
			return nil, r.Err
		}
		return &llm.CompletionResponse{Content: r.Content}, nil
	}
	resp, err := p.CompleteResponse, p.CompleteErr
	p.mu.Unlock()

	if h != nil {
		return h(ctx, req)
	}
	return resp, err
}

// Calls returns a copy of the recorded calls.
func (p *Provider) Calls() []CompleteCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]CompleteCall(nil), p.calls...)
}

// Reset clears recorded calls. Script is left as is.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}

var _ llm.Provider = (*Provider)(nil)
