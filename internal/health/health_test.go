package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
)

func pass(name string) Checker {
	return Checker{Name: name, Check: func(context.Context) error { return nil }}
}

func failing(name, msg string) Checker {
	return Checker{Name: name, Check: func(context.Context) error { return errors.New(msg) }}
}

// probe serves path through a router built with Register and decodes the body.
func probe(t *testing.T, h *Handler, req *http.Request) (int, result) {
	t.Helper()
	r := chi.NewRouter()
	h.Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return rec.Code, body
}

func TestHealthz_IgnoresCheckers(t *testing.T) {
	t.Parallel()

	h := New(failing("text", "down"))
	code, body := probe(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if code != http.StatusOK || body.Status != "ok" {
		t.Errorf("got %d %q, want 200 ok", code, body.Status)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		checkers []Checker
		code     int
		want     result
	}{
		{
			name: "no checkers",
			code: http.StatusOK,
			want: result{Status: "ok"},
		},
		{
			name:     "all pass",
			checkers: []Checker{pass("text"), Soft(pass("speech"))},
			code:     http.StatusOK,
			want:     result{Status: "ok", Checks: map[string]string{"text": "ok", "speech": "ok"}},
		},
		{
			name:     "hard failure",
			checkers: []Checker{failing("text", "no model"), pass("speech")},
			code:     http.StatusServiceUnavailable,
			want:     result{Status: "fail", Checks: map[string]string{"text": "fail: no model", "speech": "ok"}},
		},
		{
			name:     "soft failure degrades",
			checkers: []Checker{pass("text"), Soft(failing("image", "quota"))},
			code:     http.StatusOK,
			want:     result{Status: "degraded", Checks: map[string]string{"text": "ok", "image": "degraded: quota"}},
		},
		{
			name:     "hard failure wins over soft",
			checkers: []Checker{failing("text", "down"), Soft(failing("speech", "down"))},
			code:     http.StatusServiceUnavailable,
			want:     result{Status: "fail", Checks: map[string]string{"text": "fail: down", "speech": "degraded: down"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, body := probe(t, New(tt.checkers...), httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if code != tt.code {
				t.Errorf("status code = %d, want %d", code, tt.code)
			}
			if diff := cmp.Diff(tt.want, body); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadyz_CancelledRequest(t *testing.T) {
	t.Parallel()

	h := New(Checker{Name: "text", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, body := probe(t, h, httptest.NewRequest(http.MethodGet, "/readyz", nil).WithContext(ctx))
	if code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want %d", code, http.StatusServiceUnavailable)
	}
	if body.Checks["text"] != "fail: "+context.Canceled.Error() {
		t.Errorf("check = %q", body.Checks["text"])
	}
}

func TestConfigured_TracksReload(t *testing.T) {
	t.Parallel()

	var configured bool
	h := New(Soft(Configured("speech", func() bool { return configured })))

	_, body := probe(t, h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if got := body.Checks["speech"]; got != "degraded: speech is not configured" {
		t.Errorf("before reload: check = %q", got)
	}

	configured = true
	_, body = probe(t, h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if body.Status != "ok" {
		t.Errorf("after reload: status = %q, want ok", body.Status)
	}
}

func TestReadyz_ChecksRunConcurrently(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{}, 2)
	blocking := func(context.Context) error {
		started <- struct{}{}
		<-release
		return nil
	}
	h := New(Checker{Name: "text", Check: blocking}, Soft(Checker{Name: "speech", Check: blocking}))

	done := make(chan int)
	go func() {
		rec := httptest.NewRecorder()
		h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		done <- rec.Code
	}()
	<-started
	<-started
	close(release)
	if code := <-done; code != http.StatusOK {
		t.Errorf("status code = %d, want %d", code, http.StatusOK)
	}
}
