// Package gemini provides a TTS provider backed by Gemini native speech
// generation. The model answers with raw 16-bit PCM whose sample rate is
// carried in the part's MIME type, e.g. "audio/L16;codec=pcm;rate=24000".
package gemini

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/linguaweave/linguaweave/pkg/audio"
	"github.com/linguaweave/linguaweave/pkg/provider/internal/googleai"
	"github.com/linguaweave/linguaweave/pkg/provider/tts"
)

const (
	// DefaultModel is used when New is called with an empty model.
	DefaultModel = "gemini-2.5-flash-preview-tts"

	// DefaultVoice is the prebuilt voice used when a request names none.
	DefaultVoice = "Algenib"

	defaultSampleRate = 24000
)

// prebuiltVoices lists the voices the speech models accept.
var prebuiltVoices = []string{
	"Achernar", "Achird", "Algenib", "Algieba", "Alnilam", "Aoede", "Autonoe",
	"Callirrhoe", "Charon", "Despina", "Enceladus", "Erinome", "Fenrir",
	"Gacrux", "Iapetus", "Kore", "Laomedeia", "Leda", "Orus", "Puck",
	"Pulcherrima", "Rasalgethi", "Sadachbia", "Sadaltager", "Schedar",
	"Sulafat", "Umbriel", "Vindemiatrix", "Zephyr", "Zubenelgenubi",
}

// Provider implements tts.Provider using Gemini speech generation.
type Provider struct {
	client *genai.Client
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

// WithBaseURL overrides the Gemini API endpoint.
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

// New constructs a Gemini TTS Provider.
func New(ctx context.Context, apiKey, model string, opts ...Option) (*Provider, error) {
	if model == "" {
		model = DefaultModel
	}
	cfg := &config{voice: DefaultVoice}
	for _, o := range opts {
		o(cfg)
	}
	client, err := googleai.NewClient(ctx, apiKey, cfg.baseURL, cfg.timeout)
	if err != nil {
		return nil, err
	}
	return &Provider{client: client, model: model, voice: cfg.voice}, nil
}

// Synthesize implements tts.Provider. The text is sent as the only user turn.
func (p *Provider) Synthesize(ctx context.Context, req tts.Request) (*tts.Speech, error) {
	voice := req.Voice
	if voice == "" {
		voice = p.voice
	}
	gc := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
			LanguageCode: req.LanguageCode,
		},
	}
	contents := []*genai.Content{genai.NewContentFromText(req.Text, genai.RoleUser)}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, gc)
	if err != nil {
		return nil, fmt.Errorf("gemini tts: generate content: %w", err)
	}
	return collectAudio(resp), nil
}

// collectAudio concatenates every inline audio part of the first candidate.
func collectAudio(resp *genai.GenerateContentResponse) *tts.Speech {
	out := &tts.Speech{Format: audio.Format{SampleRate: defaultSampleRate, Channels: 1, BitDepth: 16}}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		if rate := sampleRate(part.InlineData.MIMEType); rate > 0 {
			out.Format.SampleRate = rate
		}
		out.PCM = append(out.PCM, part.InlineData.Data...)
	}
	return out
}

// sampleRate extracts the rate parameter from an L16 MIME type. Zero means
// the type carried no usable rate.
func sampleRate(mimeType string) int {
	for _, field := range strings.Split(mimeType, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok || !strings.EqualFold(k, "rate") {
			continue
		}
		if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
			return rate
		}
	}
	return 0
}

// ListVoices implements tts.Provider. The prebuilt voice set is static.
func (p *Provider) ListVoices(_ context.Context) ([]tts.Voice, error) {
	out := make([]tts.Voice, 0, len(prebuiltVoices))
	for _, v := range prebuiltVoices {
		out = append(out, tts.Voice{ID: v, Name: v, Provider: "gemini"})
	}
	return out, nil
}

var _ tts.Provider = (*Provider)(nil)
