package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/linguaweave/linguaweave/pkg/provider/llm"
)

func messageServer(t *testing.T, hits *atomic.Int32, text, stop string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest",
			"content":[{"type":"text","text":%q}],"stop_reason":%q,"stop_sequence":null,
			"usage":{"input_tokens":12,"output_tokens":7}}`, text, stop)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New("", "claude-3-5-haiku-latest"); err == nil {
		t.Error("expected error for empty api key")
	}
	if _, err := New("sk-ant-test", ""); err == nil {
		t.Error("expected error for empty model")
	}
}

func TestComplete(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := messageServer(t, &hits, "```json\n{\"aiResponse\":\"Bonjour !\"}\n```", "end_turn")
	p, err := New("sk-ant-test", "claude-3-5-haiku-latest", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt:   "You are a French tutor.",
		Messages:       []llm.Message{{Role: llm.RoleUser, Content: "Salut"}},
		ResponseSchema: &llm.ResponseSchema{Name: "conversation", Description: "- aiResponse (string, required)\n"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"aiResponse":"Bonjour !"}` {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 19 {
		t.Errorf("total tokens = %d, want 19", resp.Usage.TotalTokens)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestComplete_RejectsUnusableReplies(t *testing.T) {
	t.Parallel()

	schema := &llm.ResponseSchema{Name: "vocab"}
	tests := []struct {
		name   string
		stop   string
		schema *llm.ResponseSchema
		want   error
	}{
		{"refusal", "refusal", nil, llm.ErrRefused},
		{"truncated schema reply", "max_tokens", schema, llm.ErrTruncated},
		{"truncated free text", "max_tokens", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var hits atomic.Int32
			srv := messageServer(t, &hits, `{"word`, tt.stop)
			p, err := New("sk-ant-test", "claude-3-5-haiku-latest", WithBaseURL(srv.URL))
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

func TestComplete_ServerErrorNotRetried(t *testing.T) {
	t.Parallel()

	// 529 is the API's overloaded status.
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, 529} {
		t.Run(strconv.Itoa(status), func(t *testing.T) {
			t.Parallel()
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				hits.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
			}))
			defer srv.Close()

			p, err := New("sk-ant-test", "claude-3-5-haiku-latest", WithBaseURL(srv.URL))
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

func TestBuildParams(t *testing.T) {
	t.Parallel()

	p := &Provider{model: "claude-3-5-haiku-latest"}
	params, err := p.buildParams(llm.CompletionRequest{
		SystemPrompt: "You are a Spanish tutor.",
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "Level: A2."},
			{Role: llm.RoleUser, Content: "Hola"},
			{Role: llm.RoleAssistant, Content: "¡Hola! ¿Qué tal?"},
			{Role: llm.RoleUser, Content: "Bien"},
		},
		Temperature:    0.3,
		ResponseSchema: &llm.ResponseSchema{Name: "conversation", Description: "- aiResponse (string, required)\n"},
	})
	if err != nil {
		t.Fatalf("buildParams: %v", err)
	}
	if len(params.Messages) != 3 {
		t.Errorf("messages = %d, want 3", len(params.Messages))
	}
	if len(params.System) != 1 {
		t.Fatalf("system blocks = %d, want 1", len(params.System))
	}
	sys := params.System[0].Text
	if !strings.HasPrefix(sys, "You are a Spanish tutor.\n\nLevel: A2.") || !strings.Contains(sys, "aiResponse") {
		t.Errorf("system prompt = %q", sys)
	}
	if params.MaxTokens != DefaultMaxTokens {
		t.Errorf("max tokens = %d, want %d", params.MaxTokens, DefaultMaxTokens)
	}

	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["temperature"] != 0.3 {
		t.Errorf("temperature = %v", body["temperature"])
	}
}

func TestBuildParams_RequiresConversation(t *testing.T) {
	t.Parallel()

	p := &Provider{model: "claude-3-5-haiku-latest"}
	if _, err := p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleSystem, Content: "only a system turn"}},
	}); err == nil {
		t.Error("expected error without user messages")
	}
	if _, err := p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{{Role: "tool", Content: "x"}},
	}); err == nil {
		t.Error("expected error for unknown role")
	}
}
