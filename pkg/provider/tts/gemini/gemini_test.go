package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/linguaweave/linguaweave/pkg/provider/tts"
)

func TestSampleRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mime string
		want int
	}{
		{"audio/L16;codec=pcm;rate=24000", 24000},
		{"audio/L16; rate=16000", 16000},
		{"audio/L16;codec=pcm", 0},
		{"audio/L16;rate=abc", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := sampleRate(tt.mime); got != tt.want {
			t.Errorf("sampleRate(%q) = %d, want %d", tt.mime, got, tt.want)
		}
	}
}

func TestSynthesize(t *testing.T) {
	t.Parallel()

	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash-preview-tts:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		gen, _ := body["generationConfig"].(map[string]any)
		raw, _ := json.Marshal(gen)
		for _, want := range []string{`"AUDIO"`, `"voiceName":"Kore"`, `"languageCode":"fr-FR"`} {
			if !strings.Contains(string(raw), want) {
				t.Errorf("generationConfig %s missing %s", raw, want)
			}
		}
		half := base64.StdEncoding.EncodeToString(pcm[:4])
		rest := base64.StdEncoding.EncodeToString(pcm[4:])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[` +
			`{"inlineData":{"mimeType":"audio/L16;codec=pcm;rate=22050","data":"` + half + `"}},` +
			`{"inlineData":{"mimeType":"audio/L16;codec=pcm;rate=22050","data":"` + rest + `"}}]}}]}`))
	}))
	defer srv.Close()

	p, err := New(context.Background(), "key", "", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sp, err := p.Synthesize(context.Background(), tts.Request{Text: "Bonjour", Voice: "Kore", LanguageCode: "fr-FR"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(sp.PCM) != string(pcm) {
		t.Errorf("PCM = %v, want %v", sp.PCM, pcm)
	}
	if sp.Format.SampleRate != 22050 || sp.Format.Channels != 1 || sp.Format.Bits() != 16 {
		t.Errorf("format = %v", sp.Format)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestSynthesize_NoAudio(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"sorry"}]}}]}`))
	}))
	defer srv.Close()

	p, err := New(context.Background(), "key", "", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sp, err := p.Synthesize(context.Background(), tts.Request{Text: ""})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(sp.PCM) != 0 {
		t.Errorf("expected empty PCM, got %d bytes", len(sp.PCM))
	}
	if sp.Format.SampleRate != 24000 {
		t.Errorf("default sample rate = %d", sp.Format.SampleRate)
	}
}

func TestSynthesize_ServerErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := New(context.Background(), "key", "", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Synthesize(context.Background(), tts.Request{Text: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestListVoices(t *testing.T) {
	t.Parallel()

	p, err := New(context.Background(), "key", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	voices, err := p.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	var found bool
	for _, v := range voices {
		if v.ID == DefaultVoice {
			found = true
		}
		if v.Provider != "gemini" {
			t.Errorf("voice %s provider = %q", v.ID, v.Provider)
		}
	}
	if !found {
		t.Errorf("default voice %s missing from list", DefaultVoice)
	}
}

func TestNew_EmptyKey(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), "", ""); err == nil {
		t.Error("expected error for empty API key")
	}
}
