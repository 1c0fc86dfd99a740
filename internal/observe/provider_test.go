package observe_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/linguaweave/linguaweave/internal/observe"
)

func TestInitProvider_ServesFlowMetrics(t *testing.T) {
	t.Parallel()

	tel, err := observe.InitProvider(context.Background(), observe.ProviderConfig{
		ServiceVersion: "test",
		Registry:       prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	ctx := context.Background()
	tel.Metrics.RecordFlow(ctx, "grammar-check", "", 0.3)
	tel.Metrics.RecordSessionMessage(ctx, "user")

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"linguaweave_flow_requests_total",
		"linguaweave_flow_duration_seconds_bucket",
		"linguaweave_session_messages_total",
		`flow="grammar-check"`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestInitProvider_DefaultRegistryHasRuntimeCollectors(t *testing.T) {
	t.Parallel()

	tel, err := observe.InitProvider(context.Background(), observe.ProviderConfig{})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("default registry should expose Go runtime metrics")
	}
}

func TestTelemetry_ShutdownIsClean(t *testing.T) {
	t.Parallel()

	tel, err := observe.InitProvider(context.Background(), observe.ProviderConfig{Registry: prometheus.NewRegistry()})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
