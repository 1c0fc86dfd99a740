// Package openai provides an image provider backed by the OpenAI images API.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"

	"github.com/linguaweave/linguaweave/pkg/provider/image"
	"github.com/linguaweave/linguaweave/pkg/provider/internal/openaiclient"
)

// DefaultModel is used when New is called with an empty model.
const DefaultModel = oai.ImageModelGPTImage1

// Provider implements image.Provider using the OpenAI images API.
type Provider struct {
	client oai.Client
	model  string
}

type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs an OpenAI image Provider.
func New(apiKey, model string, opts ...Option) (*Provider, error) {
	if model == "" {
		model = DefaultModel
	}
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	client, err := openaiclient.New(openaiclient.Config{
		APIKey:  apiKey,
		BaseURL: cfg.baseURL,
		Timeout: cfg.timeout,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{client: client, model: model}, nil
}

// Generate implements image.Provider. AspectRatio maps onto the nearest
// supported size.
func (p *Provider) Generate(ctx context.Context, req image.Request) (*image.Image, error) {
	params := oai.ImageGenerateParams{
		Prompt: req.Prompt,
		Model:  p.model,
		N:      param.NewOpt(int64(1)),
		Size:   sizeFor(req.AspectRatio),
	}
	// gpt-image-1 always answers in base64 and rejects response_format.
	if p.model != oai.ImageModelGPTImage1 {
		params.ResponseFormat = oai.ImageGenerateParamsResponseFormatB64JSON
	}
	resp, err := p.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai image: generate: %w", err)
	}
	for _, d := range resp.Data {
		if d.B64JSON == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("openai image: decode: %w", err)
		}
		return &image.Image{Data: data, MIMEType: mimeFor(string(resp.OutputFormat))}, nil
	}
	return &image.Image{}, nil
}

func sizeFor(aspect string) oai.ImageGenerateParamsSize {
	switch aspect {
	case "16:9", "3:2", "4:3":
		return oai.ImageGenerateParamsSize1536x1024
	case "9:16", "2:3", "3:4":
		return oai.ImageGenerateParamsSize1024x1536
	case "":
		return ""
	default:
		return oai.ImageGenerateParamsSize1024x1024
	}
}

func mimeFor(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return image.DefaultMIMEType
	}
}

var _ image.Provider = (*Provider)(nil)
