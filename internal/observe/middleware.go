package observe

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.opentelemetry.io/otel/trace"
)

// CorrelationHeader carries the trace ID back to API clients.
const CorrelationHeader = "X-Correlation-ID"

// probeRoutes are scraped by orchestrators every few seconds and logged at
// debug level only.
var probeRoutes = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// Middleware traces, times and logs every API request. It continues a W3C
// trace from the request headers, reports the trace ID in
// [CorrelationHeader], and names spans and metrics after the matched chi
// route so session IDs stay out of metric labels. Requests for a flow or a
// session carry its name or ID as a span attribute.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	prop := propagation.TraceContext{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := StartSpan(ctx, "HTTP "+r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
				),
			)
			defer span.End()

			cid := CorrelationID(ctx)
			if cid != "" {
				w.Header().Set(CorrelationHeader, cid)
			}
			prop.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			r = r.WithContext(ctx)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routeOf(r)
			span.SetName("HTTP " + r.Method + " " + route)
			span.SetAttributes(
				semconv.HTTPRoute(route),
				semconv.HTTPResponseStatusCode(status),
			)
			span.SetAttributes(resourceAttrs(r)...)
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			elapsed := time.Since(start)
			m.HTTPRequestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("path", route),
				attribute.String("status", statusClass(status)),
			))

			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelWarn
			case probeRoutes[route]:
				level = slog.LevelDebug
			}
			slog.LogAttrs(ctx, level, "request completed",
				slog.String("trace_id", cid),
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", elapsed),
			)
		})
	}
}

// routeOf returns the matched chi route pattern, or the raw path when the
// request did not pass through a chi router.
func routeOf(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// resourceAttrs names the flow or session a request addresses.
func resourceAttrs(r *http.Request) []attribute.KeyValue {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	var attrs []attribute.KeyValue
	if v := rctx.URLParam("name"); v != "" {
		attrs = append(attrs, attribute.String("linguaweave.flow", v))
	}
	if v := rctx.URLParam("id"); v != "" {
		attrs = append(attrs, attribute.String("linguaweave.session", v))
	}
	return attrs
}

// statusClass maps 404 to "4xx".
func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
