// Package googleai builds google.golang.org/genai clients shared by the
// Gemini text, speech and image providers.
package googleai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"
)

// NewClient returns a Gemini API client. baseURL and timeout are optional.
func NewClient(ctx context.Context, apiKey, baseURL string, timeout time.Duration) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: apiKey must not be empty")
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions.BaseURL = baseURL
	}
	if timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: timeout}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return client, nil
}
