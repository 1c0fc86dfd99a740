package observe

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name for the LinguaWeave tracer.
const tracerName = "github.com/linguaweave/linguaweave"

// Tracer returns the package-level [trace.Tracer]. It uses the globally
// registered [trace.TracerProvider].
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a new span and returns the updated context and span. The
// caller must call span.End() when done.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// EndSpan marks span as failed when err is non-nil and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CorrelationID extracts the trace ID from the OTel span context in ctx.
// Returns the empty string when no active span with a valid trace ID exists.
// The trace ID is what the HTTP layer reports as X-Correlation-ID.
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

type logAttrsKey struct{}

// WithLogAttrs returns a copy of ctx that carries args (slog key/value pairs
// or slog.Attr values) for [Logger]. A key that is already carried is
// replaced, so nested layers can tag the same session or flow without
// duplicating it.
func WithLogAttrs(ctx context.Context, args ...any) context.Context {
	prev, _ := ctx.Value(logAttrsKey{}).([]slog.Attr)
	next := slices.Clone(prev)

	r := slog.NewRecord(time.Time{}, 0, "", 0)
	r.Add(args...)
	r.Attrs(func(a slog.Attr) bool {
		if i := slices.IndexFunc(next, func(b slog.Attr) bool { return b.Key == a.Key }); i >= 0 {
			next[i] = a
		} else {
			next = append(next, a)
		}
		return true
	})
	return context.WithValue(ctx, logAttrsKey{}, next)
}

// Logger returns the default logger enriched with trace_id and span_id from
// the span in ctx and with every attribute added by [WithLogAttrs].
func Logger(ctx context.Context) *slog.Logger {
	var args []any
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		args = append(args,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if carried, ok := ctx.Value(logAttrsKey{}).([]slog.Attr); ok {
		for _, a := range carried {
			args = append(args, a)
		}
	}
	if len(args) == 0 {
		return slog.Default()
	}
	return slog.Default().With(args...)
}
