package openai

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

func TestBuildParams_Roles(t *testing.T) {
	t.Parallel()

	p := &Provider{model: "gpt-4o-mini"}
	params, err := p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "tutor"},
			{Role: llm.RoleUser, Content: "Hola"},
			{Role: llm.RoleAssistant, Content: "¡Hola!"},
		},
	})
	if err != nil {
		t.Fatalf("buildParams: %v", err)
	}
	m := params.Messages
	if len(m) != 3 || m[0].OfSystem == nil || m[1].OfUser == nil || m[2].OfAssistant == nil {
		t.Errorf("unexpected message mapping: %+v", m)
	}

	if _, err := p.buildParams(llm.CompletionRequest{Messages: []llm.Message{{Role: "tool", Content: "x"}}}); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestSchemaName(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"grammar-check":  "grammar-check",
		"story to image": "story_to_image",
		"":               "reply",
		"é!":             "_",
	} {
		if got := schemaName(in); got != want {
			t.Errorf("schemaName(%q) = %q, want %q", in, got, want)
		}
	}
	if got := schemaName(strings.Repeat("a", 80)); len(got) != 64 {
		t.Errorf("long name not truncated: %d chars", len(got))
	}
}

// replyServer answers every chat completion with a single choice.
func replyServer(t *testing.T, message, finish string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"id":"c","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":%q,"message":%s}],
			"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`, finish, message)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestComplete_RejectsUnusableReplies(t *testing.T) {
	t.Parallel()

	schema := &llm.ResponseSchema{Name: "vocab", Schema: map[string]any{"type": "object"}}
	tests := []struct {
		name    string
		message string
		finish  string
		schema  *llm.ResponseSchema
		want    error
	}{
		{"refusal", `{"role":"assistant","content":null,"refusal":"I can't help"}`, "stop", schema, llm.ErrRefused},
		{"content filter", `{"role":"assistant","content":""}`, "content_filter", nil, llm.ErrRefused},
		{"truncated schema reply", `{"role":"assistant","content":"{\"word"}`, "length", schema, llm.ErrTruncated},
		{"truncated free text", `{"role":"assistant","content":"Bonjour, je"}`, "length", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := replyServer(t, tt.message, tt.finish)
			p, err := New("sk-test", "gpt-4o-mini", WithBaseURL(srv.URL))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			_, err = p.Complete(context.Background(), llm.CompletionRequest{
				Messages:       []llm.Message{{Role: llm.RoleUser, Content: "x"}},
				ResponseSchema: tt.schema,
			})
			if !errors.Is(err, tt.want) || (tt.want == nil && err != nil) {
				t.Errorf("Complete() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuildParams_ResponseSchema(t *testing.T) {
	t.Parallel()

	p := &Provider{model: "gpt-4o-mini"}
	params, err := p.buildParams(llm.CompletionRequest{
		SystemPrompt: "be brief",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
		Temperature:  0.4,
		ResponseSchema: &llm.ResponseSchema{
			Name:   "conversation",
			Schema: map[string]any{"type": "object"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(params.Messages) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(params.Messages))
	}
	js := params.ResponseFormat.OfJSONSchema
	if js == nil {
		t.Fatal("expected json_schema response format")
	}
	if js.JSONSchema.Name != "conversation" {
		t.Errorf("schema name = %q", js.JSONSchema.Name)
	}
	if !js.JSONSchema.Strict.Value {
		t.Error("expected strict schema")
	}
	if params.Temperature.Value != 0.4 {
		t.Errorf("temperature = %v", params.Temperature.Value)
	}
}

func TestComplete_SingleRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["model"] != "gpt-4o-mini" {
			t.Errorf("model = %v", body["model"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"aiResponse\":\"Bonjour !\"}", "refusal": null}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	p, err := New("sk-test", "gpt-4o-mini", WithBaseURL(srv.URL+"/v1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Salut"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"aiResponse":"Bonjour !"}` {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("total tokens = %d", resp.Usage.TotalTokens)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 request, got %d", n)
	}
}

func TestComplete_ServerErrorNotRetried(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			t.Parallel()
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			}))
			defer srv.Close()

			p, err := New("sk-test", "gpt-4o-mini", WithBaseURL(srv.URL))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if _, err := p.Complete(context.Background(), llm.CompletionRequest{
				Messages: []llm.Message{{Role: llm.RoleUser, Content: "x"}},
			}); err == nil {
				t.Fatal("expected error")
			}
			if n := calls.Load(); n != 1 {
				t.Errorf("requests = %d, want 1", n)
			}
		})
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New("", "gpt-4o"); err == nil {
		t.Error("expected error for empty API key")
	}
	if _, err := New("sk-test", ""); err == nil {
		t.Error("expected error for empty model")
	}
	if _, err := New("sk-test", "gpt-4o", WithBaseURL("https://custom.example.com"), WithOrganization("org-123")); err != nil {
		t.Errorf("unexpected error with valid options: %v", err)
	}
}
