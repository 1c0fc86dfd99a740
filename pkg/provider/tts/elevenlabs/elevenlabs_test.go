package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/coder/websocket"

	"github.com/linguaweave/linguaweave/pkg/audio"
	"github.com/linguaweave/linguaweave/pkg/provider/tts"
)

// fakeServer accepts one stream-input socket, records the client messages
// and answers with the configured frames.
type fakeServer struct {
	mu       sync.Mutex
	paths    []string
	received []map[string]any
	frames   []audioResponse
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/voices" {
			if r.Header.Get("xi-api-key") != "key" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"voices":[{"voice_id":"v1","name":"Amélie","category":"premade","labels":{"accent":"french"}}]}`))
			return
		}

		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path+"?"+r.URL.RawQuery)
		f.mu.Unlock()

		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "")

		ctx := r.Context()
		for {
			_, data, err := c.Read(ctx)
			if err != nil {
				return
			}
			var m map[string]any
			_ = json.Unmarshal(data, &m)
			f.mu.Lock()
			f.received = append(f.received, m)
			f.mu.Unlock()
			if m["text"] == "" {
				break
			}
		}
		for _, fr := range f.frames {
			b, _ := json.Marshal(fr)
			if err := c.Write(ctx, websocket.MessageText, b); err != nil {
				return
			}
		}
	})
}

func newTestProvider(t *testing.T, f *fakeServer) *Provider {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	ws := "ws" + strings.TrimPrefix(srv.URL, "http")
	p, err := New("key", WithBaseURLs(ws, srv.URL), WithOutputFormat("pcm_24000"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestSynthesize_CollectsFrames(t *testing.T) {
	t.Parallel()

	f := &fakeServer{frames: []audioResponse{
		{Audio: base64.StdEncoding.EncodeToString([]byte{1, 2})},
		{Audio: base64.StdEncoding.EncodeToString([]byte{3, 4})},
		{IsFinal: true},
	}}
	p := newTestProvider(t, f)

	speech, err := p.Synthesize(context.Background(), tts.Request{Text: "Bonjour", Voice: "v1"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(speech.PCM) != "\x01\x02\x03\x04" {
		t.Errorf("pcm = %v", speech.PCM)
	}
	want := audio.Format{SampleRate: 24000, Channels: 1, BitDepth: 16}
	if speech.Format != want {
		t.Errorf("format = %v, want %v", speech.Format, want)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.paths) != 1 || f.paths[0] != "/v1/text-to-speech/v1/stream-input?model_id=eleven_flash_v2_5" {
		t.Errorf("paths = %v", f.paths)
	}
	if len(f.received) != 3 {
		t.Fatalf("expected BOI, text and flush, got %d messages", len(f.received))
	}
	if f.received[0]["xi_api_key"] != "key" || f.received[0]["output_format"] != "pcm_24000" {
		t.Errorf("BOI = %v", f.received[0])
	}
	if f.received[1]["text"] != "Bonjour " {
		t.Errorf("text message = %v", f.received[1])
	}
}

func TestSynthesize_EmptyTextYieldsNoAudio(t *testing.T) {
	t.Parallel()

	f := &fakeServer{frames: []audioResponse{{IsFinal: true}}}
	p := newTestProvider(t, f)

	speech, err := p.Synthesize(context.Background(), tts.Request{})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(speech.PCM) != 0 {
		t.Errorf("expected no audio, got %d bytes", len(speech.PCM))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.paths) != 1 {
		t.Errorf("expected one socket, got %d", len(f.paths))
	}
	if !strings.Contains(f.paths[0], defaultVoice) {
		t.Errorf("default voice not used: %s", f.paths[0])
	}
}

func TestSynthesize_ServerError(t *testing.T) {
	t.Parallel()

	f := &fakeServer{frames: []audioResponse{{Error: "quota_exceeded", Message: "out of credits"}}}
	p := newTestProvider(t, f)

	_, err := p.Synthesize(context.Background(), tts.Request{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "quota_exceeded") {
		t.Fatalf("expected server error, got %v", err)
	}
}

func TestListVoices(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, &fakeServer{})
	voices, err := p.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 1 {
		t.Fatalf("expected 1 voice, got %d", len(voices))
	}
	v := voices[0]
	if v.ID != "v1" || v.Name != "Amélie" || v.Provider != "elevenlabs" {
		t.Errorf("voice = %+v", v)
	}
	if v.Metadata["accent"] != "french" || v.Metadata["category"] != "premade" {
		t.Errorf("metadata = %v", v.Metadata)
	}
}

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	if f, err := parseOutputFormat("pcm_44100"); err != nil || f.SampleRate != 44100 {
		t.Errorf("pcm_44100: %v, %v", f, err)
	}
	for _, bad := range []string{"mp3_44100_128", "pcm_", "pcm_x", "pcm_-1"} {
		if _, err := parseOutputFormat(bad); err == nil {
			t.Errorf("%s: expected error", bad)
		}
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	if _, err := New(""); err == nil {
		t.Error("expected error for empty API key")
	}
	if _, err := New("key", WithOutputFormat("mp3_44100_128")); err == nil {
		t.Error("expected error for compressed output format")
	}
	p, err := New("key", WithModel("eleven_multilingual_v2"), WithDefaultVoice("abc"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.model != "eleven_multilingual_v2" || p.defaultVoice != "abc" || p.outputFormat != defaultOutputFmt {
		t.Errorf("options not applied: %+v", p)
	}
}
