// Package metrics holds the OpenTelemetry instruments for calls to facet
// endpoints.
package metrics

import (
	"context"
	"log/slog"
	"sync"

	"go.ntppool.org/common/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	FacetCalls        metric.Int64Counter
	FacetCallDuration metric.Float64Histogram

	setupOnce sync.Once
	setupErr  error
)

// InitInstruments initializes the instruments. It is safe to call more
// than once.
func InitInstruments() error {
	setupOnce.Do(func() {
		setupErr = initializeInstruments()
	})
	return setupErr
}

func initializeInstruments() error {
	log := slog.Default()
	meter := metrics.GetMeter("diamond.invoke")

	var err error

	FacetCalls, err = meter.Int64Counter("diamond.facet_calls_total",
		metric.WithDescription("Calls made to facet endpoints by result"))
	if err != nil {
		log.ErrorContext(context.Background(), "failed to create FacetCalls counter", "err", err)
		return err
	}

	FacetCallDuration, err = meter.Float64Histogram("diamond.facet_call_duration",
		metric.WithDescription("Duration of calls to facet endpoints"),
		metric.WithUnit("s"))
	if err != nil {
		log.ErrorContext(context.Background(), "failed to create FacetCallDuration histogram", "err", err)
		return err
	}

	return nil
}

// RecordFacetCall records one call; result is "ok", "error" or an HTTP
// status code.
func RecordFacetCall(ctx context.Context, facet, result string, seconds float64) {
	if InitInstruments() != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("facet", facet),
		attribute.String("result", result),
	)
	FacetCalls.Add(ctx, 1, attrs)
	FacetCallDuration.Record(ctx, seconds, attrs)
}
