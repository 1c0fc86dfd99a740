// Package openai provides a TTS provider backed by the OpenAI audio speech
// endpoint. Audio is requested as raw PCM, which OpenAI always delivers as
// 24 kHz mono 16-bit little-endian.
package openai

import (
	"context"
	"fmt"
	"io"
	"time"

	oai "github.com/openai/openai-go"

	"github.com/linguaweave/linguaweave/pkg/audio"
	"github.com/linguaweave/linguaweave/pkg/provider/internal/openaiclient"
	"github.com/linguaweave/linguaweave/pkg/provider/tts"
)

const (
	// DefaultModel is used when New is called with an empty model.
	DefaultModel = oai.SpeechModelGPT4oMiniTTS

	// DefaultVoice is used when a request names no voice.
	DefaultVoice = "alloy"
)

// pcmFormat is the fixed layout of response_format=pcm.
var pcmFormat = audio.Format{SampleRate: 24000, Channels: 1, BitDepth: 16}

var voices = []string{
	"alloy", "ash", "ballad", "coral", "echo", "fable", "nova", "onyx", "sage", "shimmer", "verse",
}

// Provider implements tts.Provider using the OpenAI speech API.
type Provider struct {
	client oai.Client
	model  string
	voice  string
}

type config struct {
	baseURL string
	timeout time.Duration
	voice   string
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

// WithDefaultVoice sets the voice used when a request does not name one.
func WithDefaultVoice(voice string) Option {
	return func(c *config) { c.voice = voice }
}

// New constructs an OpenAI TTS Provider.
func New(apiKey, model string, opts ...Option) (*Provider, error) {
	if model == "" {
		model = DefaultModel
	}
	cfg := &config{voice: DefaultVoice}
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
	return &Provider{client: client, model: model, voice: cfg.voice}, nil
}

// Synthesize implements tts.Provider. LanguageCode is ignored; the model
// infers the language from the text.
func (p *Provider) Synthesize(ctx context.Context, req tts.Request) (*tts.Speech, error) {
	voice := req.Voice
	if voice == "" {
		voice = p.voice
	}
	resp, err := p.client.Audio.Speech.New(ctx, oai.AudioSpeechNewParams{
		Input:          req.Text,
		Model:          p.model,
		Voice:          oai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormatPCM,
	})
	if err != nil {
		return nil, fmt.Errorf("openai tts: speech: %w", err)
	}
	defer resp.Body.Close()

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai tts: read body: %w", err)
	}
	// A trailing odd byte cannot form a sample.
	pcm = pcm[:len(pcm)-len(pcm)%pcmFormat.BlockAlign()]
	return &tts.Speech{PCM: pcm, Format: pcmFormat}, nil
}

// ListVoices implements tts.Provider. The OpenAI voice set is static.
func (p *Provider) ListVoices(_ context.Context) ([]tts.Voice, error) {
	out := make([]tts.Voice, 0, len(voices))
	for _, v := range voices {
		out = append(out, tts.Voice{ID: v, Name: v, Provider: "openai"})
	}
	return out, nil
}

var _ tts.Provider = (*Provider)(nil)
