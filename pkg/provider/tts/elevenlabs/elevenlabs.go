// Package elevenlabs provides an ElevenLabs-backed TTS provider using the
// ElevenLabs stream-input WebSocket API. One Synthesize call opens one socket,
// sends the whole text, flushes, and collects the audio frames until the
// server marks the stream final.
package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/coder/websocket"

	"github.com/linguaweave/linguaweave/pkg/audio"
	"github.com/linguaweave/linguaweave/pkg/provider/tts"
)

const (
	defaultWSBase    = "wss://api.elevenlabs.io"
	defaultAPIBase   = "https://api.elevenlabs.io"
	defaultModel     = "eleven_flash_v2_5"
	defaultOutputFmt = "pcm_16000"
	// defaultVoice is the stock "Rachel" voice.
	defaultVoice = "21m00Tcm4TlvDq8ikWAM"
)

// Option is a functional option for configuring the ElevenLabs Provider.
type Option func(*Provider)

// WithModel sets the ElevenLabs model ID (e.g., "eleven_multilingual_v2").
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithOutputFormat sets the PCM output format ("pcm_16000", "pcm_24000", ...).
func WithOutputFormat(format string) Option {
	return func(p *Provider) {
		p.outputFormat = format
	}
}

// WithDefaultVoice sets the voice used when a request does not name one.
func WithDefaultVoice(id string) Option {
	return func(p *Provider) {
		p.defaultVoice = id
	}
}

// WithBaseURLs overrides the WebSocket and REST endpoints. Used by tests.
func WithBaseURLs(wsBase, apiBase string) Option {
	return func(p *Provider) {
		p.wsBase = strings.TrimRight(wsBase, "/")
		p.apiBase = strings.TrimRight(apiBase, "/")
	}
}

// Provider implements tts.Provider backed by the ElevenLabs streaming API.
type Provider struct {
	apiKey       string
	model        string
	outputFormat string
	defaultVoice string
	wsBase       string
	apiBase      string
	httpClient   *http.Client
}

// New creates a new ElevenLabs Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("elevenlabs: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:       apiKey,
		model:        defaultModel,
		outputFormat: defaultOutputFmt,
		defaultVoice: defaultVoice,
		wsBase:       defaultWSBase,
		apiBase:      defaultAPIBase,
		httpClient:   &http.Client{},
	}
	for _, o := range opts {
		o(p)
	}
	if _, err := parseOutputFormat(p.outputFormat); err != nil {
		return nil, err
	}
	return p, nil
}

// ---- WebSocket message types ----

// textMessage is the JSON payload sent to ElevenLabs for each text fragment.
type textMessage struct {
	Text          string         `json:"text"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

// voiceSettings mirrors the ElevenLabs voice_settings object.
type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// audioResponse is the JSON message received from ElevenLabs over the WebSocket.
type audioResponse struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// boiMessage is the initial "begin of input" handshake.
type boiMessage struct {
	Text          string         `json:"text"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
	XiAPIKey      string         `json:"xi_api_key"`
	OutputFormat  string         `json:"output_format,omitempty"`
}

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(ctx context.Context, req tts.Request) (*tts.Speech, error) {
	format, err := parseOutputFormat(p.outputFormat)
	if err != nil {
		return nil, err
	}
	voice := req.Voice
	if voice == "" {
		voice = p.defaultVoice
	}

	conn, _, err := websocket.Dial(ctx, p.streamURL(voice), nil)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// ElevenLabs requires a non-empty first text value.
	boi := boiMessage{
		Text:          " ",
		VoiceSettings: &voiceSettings{Stability: 0.5, SimilarityBoost: 0.75},
		XiAPIKey:      p.apiKey,
		OutputFormat:  p.outputFormat,
	}
	msgs := []any{boi}
	if req.Text != "" {
		msgs = append(msgs, textMessage{Text: req.Text + " "})
	}
	msgs = append(msgs, textMessage{Text: ""}) // flush

	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("elevenlabs: encode message: %w", err)
		}
		if err := conn.Write(ctx, websocket.MessageText, b); err != nil {
			return nil, fmt.Errorf("elevenlabs: write: %w", err)
		}
	}

	pcm, err := collectAudio(ctx, conn)
	if err != nil {
		return nil, err
	}
	return &tts.Speech{PCM: pcm, Format: format}, nil
}

// collectAudio reads frames until the server sends isFinal or closes the
// socket normally.
func collectAudio(ctx context.Context, conn *websocket.Conn) ([]byte, error) {
	var pcm []byte
	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return pcm, nil
			}
			return nil, fmt.Errorf("elevenlabs: read: %w", err)
		}
		var resp audioResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			return nil, fmt.Errorf("elevenlabs: decode frame: %w", err)
		}
		if resp.Error != "" {
			return nil, fmt.Errorf("elevenlabs: server error: %s: %s", resp.Error, resp.Message)
		}
		if resp.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(resp.Audio)
			if err != nil {
				return nil, fmt.Errorf("elevenlabs: decode audio: %w", err)
			}
			pcm = append(pcm, chunk...)
		}
		if resp.IsFinal {
			return pcm, nil
		}
	}
}

func (p *Provider) streamURL(voiceID string) string {
	return fmt.Sprintf("%s/v1/text-to-speech/%s/stream-input?model_id=%s",
		p.wsBase, url.PathEscape(voiceID), url.QueryEscape(p.model))
}

// parseOutputFormat maps "pcm_<rate>" to a mono 16-bit Format. Compressed
// formats are rejected because the caller needs raw samples.
func parseOutputFormat(s string) (audio.Format, error) {
	rate, ok := strings.CutPrefix(s, "pcm_")
	if !ok {
		return audio.Format{}, fmt.Errorf("elevenlabs: output format %q is not raw PCM", s)
	}
	n, err := strconv.Atoi(rate)
	if err != nil || n <= 0 {
		return audio.Format{}, fmt.Errorf("elevenlabs: invalid sample rate in output format %q", s)
	}
	return audio.Format{SampleRate: n, Channels: 1, BitDepth: 16}, nil
}

// ---- ListVoices ----

type voicesResponse struct {
	Voices []elevenLabsVoice `json:"voices"`
}

type elevenLabsVoice struct {
	VoiceID  string            `json:"voice_id"`
	Name     string            `json:"name"`
	Category string            `json:"category"`
	Labels   map[string]string `json:"labels"`
}

// ListVoices returns all voices available for the configured API key.
func (p *Provider) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+"/v1/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices HTTP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs: list voices: unexpected status %d", resp.StatusCode)
	}

	var vr voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices decode: %w", err)
	}
	return toVoices(vr), nil
}

func toVoices(vr voicesResponse) []tts.Voice {
	voices := make([]tts.Voice, 0, len(vr.Voices))
	for _, v := range vr.Voices {
		meta := make(map[string]string, len(v.Labels)+1)
		for k, val := range v.Labels {
			meta[k] = val
		}
		if v.Category != "" {
			meta["category"] = v.Category
		}
		voices = append(voices, tts.Voice{
			ID:       v.VoiceID,
			Name:     v.Name,
			Provider: "elevenlabs",
			Metadata: meta,
		})
	}
	return voices
}

var _ tts.Provider = (*Provider)(nil)
