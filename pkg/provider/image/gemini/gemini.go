// Package gemini provides an image provider backed by Imagen through the
// Gemini API.
package gemini

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/linguaweave/linguaweave/pkg/provider/image"
	"github.com/linguaweave/linguaweave/pkg/provider/internal/googleai"
)

// DefaultModel is used when New is called with an empty model.
const DefaultModel = "imagen-4.0-fast-generate-001"

// Provider implements image.Provider using Imagen.
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

// WithBaseURL overrides the Gemini API endpoint.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs an Imagen Provider.
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

// Generate implements image.Provider.
func (p *Provider) Generate(ctx context.Context, req image.Request) (*image.Image, error) {
	resp, err := p.client.Models.GenerateImages(ctx, p.model, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    req.AspectRatio,
		OutputMIMEType: image.DefaultMIMEType,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini image: generate images: %w", err)
	}
	for _, gi := range resp.GeneratedImages {
		if gi == nil || gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
			continue
		}
		return &image.Image{Data: gi.Image.ImageBytes, MIMEType: gi.Image.MIMEType}, nil
	}
	return &image.Image{}, nil
}

var _ image.Provider = (*Provider)(nil)
