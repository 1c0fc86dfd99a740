package app

import (
	"context"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/linguaweave/linguaweave/internal/config"
	"github.com/linguaweave/linguaweave/pkg/provider/image"
	geminiimage "github.com/linguaweave/linguaweave/pkg/provider/image/gemini"
	oaimage "github.com/linguaweave/linguaweave/pkg/provider/image/openai"
	"github.com/linguaweave/linguaweave/pkg/provider/llm"
	"github.com/linguaweave/linguaweave/pkg/provider/llm/anthropic"
	"github.com/linguaweave/linguaweave/pkg/provider/llm/anyllm"
	geminillm "github.com/linguaweave/linguaweave/pkg/provider/llm/gemini"
	oaillm "github.com/linguaweave/linguaweave/pkg/provider/llm/openai"
	"github.com/linguaweave/linguaweave/pkg/provider/tts"
	"github.com/linguaweave/linguaweave/pkg/provider/tts/coqui"
	"github.com/linguaweave/linguaweave/pkg/provider/tts/elevenlabs"
	geminitts "github.com/linguaweave/linguaweave/pkg/provider/tts/gemini"
	oaitts "github.com/linguaweave/linguaweave/pkg/provider/tts/openai"
)

// providerOptions are the keys accepted under a provider's options block.
// Not every provider reads every key, but unknown keys fail for all of them.
type providerOptions struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	Organization string        `mapstructure:"organization"`
	Voice        string        `mapstructure:"voice"`
	Language     string        `mapstructure:"language"`
	APIMode      string        `mapstructure:"api_mode"`
	OutputFormat string        `mapstructure:"output_format"`
}

func decodeOptions(e config.ProviderEntry) (providerOptions, error) {
	var o providerOptions
	err := e.DecodeOptions(&o)
	return o, err
}

func openAIOptions(e config.ProviderEntry, o providerOptions) []oaillm.Option {
	var opts []oaillm.Option
	if e.BaseURL != "" {
		opts = append(opts, oaillm.WithBaseURL(e.BaseURL))
	}
	if o.Organization != "" {
		opts = append(opts, oaillm.WithOrganization(o.Organization))
	}
	if o.Timeout > 0 {
		opts = append(opts, oaillm.WithTimeout(o.Timeout))
	}
	return opts
}

// RegisterProviders wires every provider implementation that ships with
// LinguaWeave into reg. ctx is used by clients that dial on construction.
func RegisterProviders(ctx context.Context, reg *config.Registry) {
	// ── Text ──────────────────────────────────────────────────────────────────
	reg.RegisterText("openai", func(e config.ProviderEntry) (llm.Provider, error) {
		o, err := decodeOptions(e)
		if err != nil {
			return nil, err
		}
		return oaillm.New(e.APIKey, e.Model, openAIOptions(e, o)...)
	})

	// Hosted and local servers speaking the chat completions protocol.
	for _, name := range oaillm.Compatible() {
		reg.RegisterText(name, func(e config.ProviderEntry) (llm.Provider, error) {
			o, err := decodeOptions(e)
			if err != nil {
				return nil, err
			}
			return oaillm.NewCompatible(name, e.APIKey, e.Model, openAIOptions(e, o)...)
		})
	}

	reg.RegisterText("anthropic", func(e config.ProviderEntry) (llm.Provider, error) {
		o, err := decodeOptions(e)
		if err != nil {
			return nil, err
		}
		var opts []anthropic.Option
		if e.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(e.BaseURL))
		}
		if o.Timeout > 0 {
			opts = append(opts, anthropic.WithTimeout(o.Timeout))
		}
		return anthropic.New(e.APIKey, e.Model, opts...)
	})

	reg.RegisterText("gemini", func(e config.ProviderEntry) (llm.Provider, error) {
		o, err := decodeOptions(e)
		if err != nil {
			return nil, err
		}
		var opts []geminillm.Option
		if e.BaseURL != "" {
			opts = append(opts, geminillm.WithBaseURL(e.BaseURL))
		}
		if o.Timeout > 0 {
			opts = append(opts, geminillm.WithTimeout(o.Timeout))
		}
		return geminillm.New(ctx, e.APIKey, e.Model, opts...)
	})

	for _, name := range anyllm.Backends() {
		reg.RegisterText(name, func(e config.ProviderEntry) (llm.Provider, error) {
			o, err := decodeOptions(e)
			if err != nil {
				return nil, err
			}
			var opts []anyllmlib.Option
			if e.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(e.APIKey))
			}
			if e.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(e.BaseURL))
			}
			if o.Timeout > 0 {
				opts = append(opts, anyllmlib.WithTimeout(o.Timeout))
			}
			return anyllm.New(name, e.Model, opts...)
		})
	}

	// ── Speech ────────────────────────────────────────────────────────────────
	reg.RegisterSpeech("openai", func(e config.ProviderEntry) (tts.Provider, error) {
		o, err := decodeOptions(e)
		if err != nil {
			return nil, err
		}
		var opts []oaitts.Option
		if e.BaseURL != "" {
			opts = append(opts, oaitts.WithBaseURL(e.BaseURL))
		}
		if o.Timeout > 0 {
			opts = append(opts, oaitts.WithTimeout(o.Timeout))
		}
		if o.Voice != "" {
			opts = append(opts, oaitts.WithDefaultVoice(o.Voice))
		}
		return oaitts.New(e.APIKey, e.Model, opts...)
	})

	reg.RegisterSpeech("gemini", func(e config.ProviderEntry) (tts.Provider, error) {
		o, err := decodeOptions(e)
		if err != nil {
			return nil, err
		}
		var opts []geminitts.Option
		if e.BaseURL != "" {
			opts = append(opts, geminitts.WithBaseURL(e.BaseURL))
		}
		if o.Timeout > 0 {
			opts = append(opts, geminitts.WithTimeout(o.Timeout))
		}
		if o.Voice != "" {
			opts = append(opts, geminitts.WithDefaultVoice(o.Voice))
		}
		return geminitts.New(ctx, e.APIKey, e.Model, opts...)
	})

	reg.RegisterSpeech("elevenlabs", func(e config.ProviderEntry) (tts.Provider, error) {
		o, err := decodeOptions(e)
		if err != nil {
			return nil, err
		}
		var opts []elevenlabs.Option
		if e.Model != "" {
			opts = append(opts, elevenlabs.WithModel(e.Model))
		}
		if o.OutputFormat != "" {
			opts = append(opts, elevenlabs.WithOutputFormat(o.OutputFormat))
		}
		if o.Voice != "" {
			opts = append(opts, elevenlabs.WithDefaultVoice(o.Voice))
		}
		return elevenlabs.New(e.APIKey, opts...)
	})

	reg.RegisterSpeech("coqui", func(e config.ProviderEntry) (tts.Provider, error) {
		o, err := decodeOptions(e)
		if err != nil {
			return nil, err
		}
		var opts []coqui.Option
		if o.Language != "" {
			opts = append(opts, coqui.WithLanguage(o.Language))
		}
		if o.APIMode != "" {
			opts = append(opts, coqui.WithAPIMode(coqui.APIMode(o.APIMode)))
		}
		if o.Timeout > 0 {
			opts = append(opts, coqui.WithTimeout(o.Timeout))
		}
		return coqui.New(e.BaseURL, opts...)
	})

	// ── Image ─────────────────────────────────────────────────────────────────
	reg.RegisterImage("openai", func(e config.ProviderEntry) (image.Provider, error) {
		o, err := decodeOptions(e)
		if err != nil {
			return nil, err
		}
		var opts []oaimage.Option
		if e.BaseURL != "" {
			opts = append(opts, oaimage.WithBaseURL(e.BaseURL))
		}
		if o.Timeout > 0 {
			opts = append(opts, oaimage.WithTimeout(o.Timeout))
		}
		return oaimage.New(e.APIKey, e.Model, opts...)
	})

	reg.RegisterImage("gemini", func(e config.ProviderEntry) (image.Provider, error) {
		o, err := decodeOptions(e)
		if err != nil {
			return nil, err
		}
		var opts []geminiimage.Option
		if e.BaseURL != "" {
			opts = append(opts, geminiimage.WithBaseURL(e.BaseURL))
		}
		if o.Timeout > 0 {
			opts = append(opts, geminiimage.WithTimeout(o.Timeout))
		}
		return geminiimage.New(ctx, e.APIKey, e.Model, opts...)
	})
}
