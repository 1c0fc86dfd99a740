// Package mock provides a test double for the image.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/linguaweave/linguaweave/pkg/provider/image"
)

// GenerateCall records a single invocation of Generate.
type GenerateCall struct {
	Ctx context.Context
	Req image.Request
}

// Provider is a mock implementation of image.Provider.
type Provider struct {
	mu sync.Mutex

	// GenerateResult is returned by Generate. May be nil.
	GenerateResult *image.Image

	// GenerateErr, if non-nil, is returned as the error from Generate.
	GenerateErr error

	// GenerateCalls records every call to Generate in order.
	GenerateCalls []GenerateCall
}

// Generate records the call and returns GenerateResult, GenerateErr.
func (p *Provider) Generate(ctx context.Context, req image.Request) (*image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.GenerateCalls = append(p.GenerateCalls, GenerateCall{Ctx: ctx, Req: req})
	return p.GenerateResult, p.GenerateErr
}

// Calls returns a copy of the recorded calls. Thread-safe.
func (p *Provider) Calls() []GenerateCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]GenerateCall(nil), p.GenerateCalls...)
}

var _ image.Provider = (*Provider)(nil)
