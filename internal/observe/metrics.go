// Package observe provides application-wide observability primitives for
// LinguaWeave: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Instruments are created from any [metric.MeterProvider]; [InitProvider]
// wires one to a Prometheus registry for the /metrics endpoint. Tests build
// their own [Metrics] with [NewMetrics] over a manual reader.
package observe

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/linguaweave/linguaweave"

// Metrics holds the OpenTelemetry instruments used across LinguaWeave.
type Metrics struct {
	// Flow invocations, labelled by flow and status (errors also by kind).
	FlowDuration metric.Float64Histogram
	FlowRequests metric.Int64Counter
	FlowErrors   metric.Int64Counter

	// Backend calls, labelled by provider, modality and status. Duration
	// covers only the provider round trip, not prompt rendering or
	// validation.
	ProviderDuration metric.Float64Histogram
	ProviderRequests metric.Int64Counter

	ActiveSessions  metric.Int64UpDownCounter
	SessionMessages metric.Int64Counter
	SessionsEvicted metric.Int64Counter

	// HTTPRequestDuration is labelled by method, route pattern and status class.
	HTTPRequestDuration metric.Float64Histogram
}

// modelBuckets span sub-second text replies up to slow image generations.
var modelBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40}

// NewMetrics creates every instrument on mp's meter. Errors from individual
// instruments are joined.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var errs []error
	hist := func(dst *metric.Float64Histogram, name, desc string, buckets ...float64) {
		opts := []metric.Float64HistogramOption{metric.WithDescription(desc), metric.WithUnit("s")}
		if len(buckets) > 0 {
			opts = append(opts, metric.WithExplicitBucketBoundaries(buckets...))
		}
		var err error
		*dst, err = m.Float64Histogram(name, opts...)
		errs = append(errs, err)
	}
	counter := func(dst *metric.Int64Counter, name, desc string) {
		var err error
		*dst, err = m.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
	}

	hist(&met.FlowDuration, "linguaweave.flow.duration", "Latency of flow invocations.", modelBuckets...)
	counter(&met.FlowRequests, "linguaweave.flow.requests", "Flow invocations by flow and status.")
	counter(&met.FlowErrors, "linguaweave.flow.errors", "Failed flow invocations by flow and error kind.")
	hist(&met.ProviderDuration, "linguaweave.provider.duration", "Latency of backend provider calls.", modelBuckets...)
	counter(&met.ProviderRequests, "linguaweave.provider.requests", "Backend provider calls by provider, modality and status.")
	counter(&met.SessionMessages, "linguaweave.session.messages", "Conversation messages appended to sessions by role.")
	counter(&met.SessionsEvicted, "linguaweave.session.evictions", "Sessions removed after the idle timeout.")
	hist(&met.HTTPRequestDuration, "linguaweave.http.request.duration", "HTTP request latency by method, route and status class.")

	var err error
	met.ActiveSessions, err = m.Int64UpDownCounter("linguaweave.active_sessions",
		metric.WithDescription("Number of live learner sessions."))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a process-wide [Metrics] built on
// [otel.GetMeterProvider] at first use. It panics if the global provider
// rejects an instrument.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

func outcome(failed bool) string {
	if failed {
		return "error"
	}
	return "ok"
}

// RecordFlow records one flow invocation. kind is empty on success.
func (m *Metrics) RecordFlow(ctx context.Context, flow, kind string, seconds float64) {
	byFlow := attribute.String("flow", flow)
	if kind != "" {
		m.FlowErrors.Add(ctx, 1, metric.WithAttributes(byFlow, attribute.String("kind", kind)))
	}
	m.FlowRequests.Add(ctx, 1, metric.WithAttributes(byFlow, attribute.String("status", outcome(kind != ""))))
	m.FlowDuration.Record(ctx, seconds, metric.WithAttributes(byFlow))
}

// RecordProvider records one backend call and its round-trip latency.
func (m *Metrics) RecordProvider(ctx context.Context, provider, modality string, err error, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("modality", modality),
		attribute.String("status", outcome(err != nil)),
	)
	m.ProviderRequests.Add(ctx, 1, attrs)
	m.ProviderDuration.Record(ctx, seconds, attrs)
}

// RecordSessionMessage counts one message appended to a conversation.
func (m *Metrics) RecordSessionMessage(ctx context.Context, role string) {
	m.SessionMessages.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
}

// RecordEvictions removes n idle sessions from the active gauge.
func (m *Metrics) RecordEvictions(ctx context.Context, n int) {
	m.ActiveSessions.Add(ctx, int64(-n))
	m.SessionsEvicted.Add(ctx, int64(n))
}
