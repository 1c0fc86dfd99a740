package anyllm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/linguaweave/linguaweave/pkg/provider/llm"
)

func TestNew(t *testing.T) {
	tests := []struct {
		backend, model string
		wantErr        string
	}{
		{backend: "ollama", model: "", wantErr: "model must not be empty"},
		{backend: "anthropic", model: "claude-3-5-haiku-latest", wantErr: `unsupported backend "anthropic"`},
		{backend: "Ollama", model: "llama3"},
		{backend: "ollama", model: "qwen2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.backend+"/"+tt.model, func(t *testing.T) {
			p, err := New(tt.backend, tt.model, anyllmlib.WithBaseURL("http://127.0.0.1:11434"))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("New() error = %v, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if p.Name() != strings.ToLower(tt.backend) || p.model != tt.model {
				t.Errorf("got name %q model %q", p.Name(), p.model)
			}
		})
	}
}

func TestBackends(t *testing.T) {
	if diff := cmp.Diff([]string{"ollama"}, Backends()); diff != "" {
		t.Errorf("Backends() mismatch (-want +got):\n%s", diff)
	}
}

func TestComplete_ServerErrorNotRetried(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			t.Parallel()
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				hits.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"error":"model is overloaded"}`))
			}))
			defer srv.Close()

			p, err := New("ollama", "llama3", anyllmlib.WithBaseURL(srv.URL))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if _, err := p.Complete(context.Background(), llm.CompletionRequest{
				Messages: []llm.Message{{Role: llm.RoleUser, Content: "Bonjour"}},
			}); err == nil {
				t.Fatal("expected error")
			}
			if n := hits.Load(); n != 1 {
				t.Errorf("requests = %d, want 1", n)
			}
		})
	}
}

func TestNew_TimeoutApplies(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p, err := New("ollama", "llama3", anyllmlib.WithBaseURL(srv.URL), anyllmlib.WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	if _, err := p.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Bonjour"}},
	}); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Complete took %v, want the 50ms client timeout to apply", elapsed)
	}
}

func TestNew_InvalidOption(t *testing.T) {
	t.Parallel()

	if _, err := New("ollama", "llama3", anyllmlib.WithTimeout(-time.Second)); err == nil {
		t.Error("expected error for negative timeout")
	}
}

func TestNoRetry_MarksResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := &http.Client{Transport: noRetry{base: http.DefaultTransport}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Should-Retry"); got != "false" {
		t.Errorf("X-Should-Retry = %q, want false", got)
	}
}

func TestParams_SchemaInstructionJoinsSystemPrompt(t *testing.T) {
	p := &Provider{model: "llama3"}
	params := p.params(llm.CompletionRequest{
		SystemPrompt: "You are a French tutor.",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "Je suis allé au marché"}},
		Temperature:  0.2,
		MaxTokens:    256,
		ResponseSchema: &llm.ResponseSchema{
			Name:        "grammar-check",
			Description: "- correctedText (string, required)\n",
		},
	})

	if len(params.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(params.Messages))
	}
	sys := params.Messages[0]
	if sys.Role != anyllmlib.RoleSystem {
		t.Errorf("first role = %q, want system", sys.Role)
	}
	if c := sys.ContentString(); !strings.HasPrefix(c, "You are a French tutor.\n\n") || !strings.Contains(c, "correctedText") {
		t.Errorf("system prompt = %q", c)
	}
	if params.Temperature == nil || *params.Temperature != 0.2 {
		t.Errorf("temperature = %v", params.Temperature)
	}
	if params.MaxTokens == nil || *params.MaxTokens != 256 {
		t.Errorf("max tokens = %v", params.MaxTokens)
	}
}

func TestParams_OnlyUserMessage(t *testing.T) {
	p := &Provider{model: "llama3"}
	params := p.params(llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hola"}},
	})
	if len(params.Messages) != 1 || params.Messages[0].Role != llm.RoleUser {
		t.Fatalf("messages = %+v, want the single user message", params.Messages)
	}
	if params.Temperature != nil || params.MaxTokens != nil {
		t.Error("zero temperature and max tokens should stay unset")
	}
}
