// Package openaiclient builds openai-go clients shared by the OpenAI text,
// speech and image providers.
package openaiclient

import (
	"errors"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Config is the connection setup common to all OpenAI providers.
type Config struct {
	APIKey       string
	BaseURL      string
	Organization string
	Timeout      time.Duration
}

// New returns a client with SDK retries disabled so that every call maps to
// exactly one HTTP request.
func New(cfg Config) (oai.Client, error) {
	if cfg.APIKey == "" {
		return oai.Client{}, errors.New("openai: apiKey must not be empty")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Organization != "" {
		opts = append(opts, option.WithOrganization(cfg.Organization))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	return oai.NewClient(opts...), nil
}
