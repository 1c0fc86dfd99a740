// Package coqui provides a TTS provider for a locally running Coqui server,
// either the standard Coqui TTS server or the XTTS v2 API server.
//
// Two API modes are supported:
//
//   - APIModeStandard (default): targets the standard Coqui TTS server
//     (ghcr.io/coqui-ai/tts-cpu). Synthesis is performed via GET /api/tts with
//     URL query parameters; the voice catalogue comes from GET /details.
//
//   - APIModeXTTS: targets the Coqui XTTS v2 API server. Synthesis is performed
//     via POST /tts_to_audio/ with a JSON body; the voice catalogue comes from
//     GET /studio_speakers.
//
// Both servers answer with a WAV file, which is unwrapped into raw PCM.
//
// Typical usage:
//
//	p, err := coqui.New("http://localhost:8002",
//	    coqui.WithLanguage("fr"),
//	    coqui.WithAPIMode(coqui.APIModeXTTS),
//	)
package coqui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/linguaweave/linguaweave/pkg/audio"
	"github.com/linguaweave/linguaweave/pkg/provider/tts"
)

var _ tts.Provider = (*Provider)(nil)

const (
	defaultLanguage        = "en"
	defaultTimeout         = 30 * time.Second
	ttsEndpoint            = "/tts_to_audio/"
	studioSpeakersEndpoint = "/studio_speakers"
	apiTTSEndpoint         = "/api/tts"
	detailsEndpoint        = "/details"
)

// APIMode selects which Coqui server API the provider will target.
type APIMode string

const (
	// APIModeXTTS targets the Coqui XTTS v2 API server (/tts_to_audio/).
	APIModeXTTS APIMode = "xtts"

	// APIModeStandard targets the standard Coqui TTS server (/api/tts).
	APIModeStandard APIMode = "standard"
)

// Option is a functional option for configuring a Coqui Provider.
type Option func(*Provider)

// WithLanguage sets the default language code sent to the TTS server (e.g.,
// "fr", "zh-cn"). A request's LanguageCode takes precedence.
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		p.language = lang
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 30 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// WithAPIMode sets the server API mode.
func WithAPIMode(mode APIMode) Option {
	return func(p *Provider) {
		p.apiMode = mode
	}
}

// Provider implements tts.Provider backed by a Coqui TTS server.
type Provider struct {
	serverURL  string
	language   string
	httpClient *http.Client
	apiMode    APIMode
}

// New creates a Provider that targets the TTS server at serverURL.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("coqui: serverURL must not be empty")
	}
	p := &Provider{
		serverURL: strings.TrimRight(serverURL, "/"),
		language:  defaultLanguage,
		apiMode:   APIModeStandard,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, o := range opts {
		o(p)
	}
	switch p.apiMode {
	case APIModeStandard, APIModeXTTS:
	default:
		return nil, fmt.Errorf("coqui: unknown api mode %q", p.apiMode)
	}
	return p, nil
}

// ttsRequest is the JSON body sent to POST /tts_to_audio/ (XTTS mode).
type ttsRequest struct {
	Text       string `json:"text"`
	SpeakerWav string `json:"speaker_wav"`
	Language   string `json:"language"`
}

// studioSpeakersResponse maps voice names to speaker embeddings; only the keys
// are used.
type studioSpeakersResponse map[string]json.RawMessage

// detailsResponse is the JSON body returned by GET /details (standard mode).
// Speakers is nil for single-speaker models.
type detailsResponse struct {
	ModelName string   `json:"model_name"`
	Language  string   `json:"language"`
	Speakers  []string `json:"speakers"`
}

// Synthesize implements tts.Provider with one HTTP request to the server.
func (p *Provider) Synthesize(ctx context.Context, req tts.Request) (*tts.Speech, error) {
	lang := p.language
	if req.LanguageCode != "" {
		lang = coquiLanguage(req.LanguageCode)
	}

	var (
		httpReq *http.Request
		err     error
	)
	if p.apiMode == APIModeStandard {
		httpReq, err = p.standardRequest(ctx, req.Text, req.Voice, lang)
	} else {
		httpReq, err = p.xttsRequest(ctx, req.Text, req.Voice, lang)
	}
	if err != nil {
		return nil, err
	}

	wav, err := p.do(httpReq)
	if err != nil {
		return nil, err
	}
	if len(wav) == 0 {
		return &tts.Speech{}, nil
	}
	pcm, format, err := audio.DecodeWAV(wav)
	if err != nil {
		return nil, fmt.Errorf("coqui: %w", err)
	}
	return &tts.Speech{PCM: pcm, Format: format}, nil
}

func (p *Provider) xttsRequest(ctx context.Context, text, voice, lang string) (*http.Request, error) {
	data, err := json.Marshal(ttsRequest{Text: text, SpeakerWav: voice, Language: lang})
	if err != nil {
		return nil, fmt.Errorf("coqui: marshal tts request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+ttsEndpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("coqui: create tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")
	return req, nil
}

func (p *Provider) standardRequest(ctx context.Context, text, voice, lang string) (*http.Request, error) {
	params := url.Values{}
	params.Set("text", text)
	if voice != "" {
		params.Set("speaker_id", voice)
	}
	if lang != "" {
		params.Set("language_id", lang)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serverURL+apiTTSEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("coqui: create tts request: %w", err)
	}
	req.Header.Set("Accept", "audio/wav")
	return req, nil
}

func (p *Provider) do(req *http.Request) ([]byte, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coqui: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coqui: %s %s returned status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("coqui: read response: %w", err)
	}
	return body, nil
}

// coquiLanguage reduces a BCP-47 tag to what Coqui expects: the primary
// subtag, except Chinese which XTTS names "zh-cn".
func coquiLanguage(tag string) string {
	lower := strings.ToLower(tag)
	if strings.HasPrefix(lower, "zh") || strings.HasPrefix(lower, "cmn") {
		return "zh-cn"
	}
	primary, _, _ := strings.Cut(lower, "-")
	return primary
}

// ListVoices retrieves the voices available on the server. In APIModeXTTS
// they come from GET /studio_speakers; in APIModeStandard from GET /details,
// one per speaker for multi-speaker models or a single entry named after the
// model otherwise.
func (p *Provider) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	endpoint := detailsEndpoint
	if p.apiMode == APIModeXTTS {
		endpoint = studioSpeakersEndpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serverURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("coqui: create list-voices request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := p.do(req)
	if err != nil {
		return nil, err
	}
	if p.apiMode == APIModeXTTS {
		return parseStudioSpeakers(body)
	}
	return parseDetails(body)
}

func parseStudioSpeakers(body []byte) ([]tts.Voice, error) {
	var raw studioSpeakersResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("coqui: decode studio speakers: %w", err)
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	voices := make([]tts.Voice, 0, len(names))
	for _, name := range names {
		voices = append(voices, tts.Voice{
			ID:       name,
			Name:     name,
			Provider: "coqui",
			Metadata: map[string]string{"type": "studio"},
		})
	}
	return voices, nil
}

func parseDetails(body []byte) ([]tts.Voice, error) {
	var details detailsResponse
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("coqui: decode details response: %w", err)
	}

	if len(details.Speakers) > 0 {
		speakers := append([]string(nil), details.Speakers...)
		sort.Strings(speakers)

		voices := make([]tts.Voice, 0, len(speakers))
		for _, spk := range speakers {
			voices = append(voices, tts.Voice{
				ID:       spk,
				Name:     spk,
				Provider: "coqui",
				Metadata: map[string]string{"type": "speaker", "model_name": details.ModelName},
			})
		}
		return voices, nil
	}

	name := details.ModelName
	if name == "" {
		name = "default"
	}
	return []tts.Voice{{
		ID:       name,
		Name:     name,
		Provider: "coqui",
		Metadata: map[string]string{"type": "single-speaker", "model_name": name},
	}}, nil
}
