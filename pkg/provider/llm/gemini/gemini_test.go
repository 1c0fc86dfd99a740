package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/linguaweave/linguaweave/pkg/provider/llm"
)

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	schema := map[string]any{"type": "object"}
	gc := buildConfig(llm.CompletionRequest{
		SystemPrompt:   "tutor",
		Temperature:    0.5,
		MaxTokens:      100,
		ResponseSchema: &llm.ResponseSchema{Name: "x", Schema: schema},
	})
	if gc.SystemInstruction == nil || gc.SystemInstruction.Parts[0].Text != "tutor" {
		t.Error("system instruction not set")
	}
	if gc.Temperature == nil || *gc.Temperature != 0.5 {
		t.Errorf("temperature = %v", gc.Temperature)
	}
	if gc.MaxOutputTokens != 100 {
		t.Errorf("max output tokens = %d", gc.MaxOutputTokens)
	}
	if gc.ResponseMIMEType != "application/json" {
		t.Errorf("response MIME type = %q", gc.ResponseMIMEType)
	}
	if gc.ResponseJsonSchema == nil {
		t.Error("response schema not set")
	}
}

func TestConvertMessages(t *testing.T) {
	t.Parallel()

	got, err := convertMessages([]llm.Message{
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, Content: "salut"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Role != "user" || got[1].Role != "model" {
		t.Errorf("roles = %q, %q", got[0].Role, got[1].Role)
	}
	if _, err := convertMessages(nil); err == nil {
		t.Error("expected error for empty conversation")
	}
	if _, err := convertMessages([]llm.Message{{Role: "tool"}}); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestComplete(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		gen, _ := body["generationConfig"].(map[string]any)
		if gen["responseMimeType"] != "application/json" {
			t.Errorf("generationConfig = %v", gen)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"aiResponse\":\"你好\"}"}]}}],
			"usageMetadata": {"promptTokenCount": 3, "candidatesTokenCount": 4, "totalTokenCount": 7}
		}`))
	}))
	defer srv.Close()

	p, err := New(context.Background(), "key", "", WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages:       []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
		ResponseSchema: &llm.ResponseSchema{Name: "conversation", Schema: map[string]any{"type": "object"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"aiResponse":"你好"}` {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 7 {
		t.Errorf("total tokens = %d", resp.Usage.TotalTokens)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 request, got %d", calls.Load())
	}
}

func TestNew_MissingKey(t *testing.T) {
	t.Parallel()
	if _, err := New(context.Background(), "", "m"); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestComplete_BlockedPrompt(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"},"usageMetadata":{"promptTokenCount":9}}`))
	}))
	defer srv.Close()

	p, err := New(context.Background(), "key", "", WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	if !errors.Is(err, llm.ErrRefused) {
		t.Errorf("Complete() = %+v, %v, want ErrRefused", resp, err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestComplete_FinishReasons(t *testing.T) {
	t.Parallel()

	schema := &llm.ResponseSchema{Name: "vocabulary-lesson", Schema: map[string]any{"type": "object"}}
	tests := []struct {
		finish string
		schema *llm.ResponseSchema
		want   error
	}{
		{"SAFETY", nil, llm.ErrRefused},
		{"MAX_TOKENS", schema, llm.ErrTruncated},
		{"MAX_TOKENS", nil, nil},
		{"STOP", schema, nil},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/schema=%t", tt.finish, tt.schema != nil), func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = fmt.Fprintf(w, `{"candidates":[{"finishReason":%q,"content":{"role":"model","parts":[{"text":"{}"}]}}]}`, tt.finish)
			}))
			defer srv.Close()

			p, err := New(context.Background(), "key", "", WithBaseURL(srv.URL+"/"))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			_, err = p.Complete(context.Background(), llm.CompletionRequest{
				Messages:       []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
				ResponseSchema: tt.schema,
			})
			if !errors.Is(err, tt.want) {
				t.Errorf("Complete() error = %v, want %v", err, tt.want)
			}
		})
	}
}
