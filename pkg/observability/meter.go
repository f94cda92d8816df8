package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DurationMetric is the histogram fed by RecordDuration
const DurationMetric = "datascope.operation.duration"

var (
	meterMu  sync.Mutex
	meter    metric.Meter
	duration metric.Float64Histogram
)

// SetMeterProvider routes RecordDuration to mp. A nil mp falls back to the
// global provider, which is a no-op unless the embedding program installs one.
func SetMeterProvider(mp metric.MeterProvider) {
	if mp == nil {
		setMeter(nil)
		return
	}
	setMeter(mp.Meter(instrumentationName))
}

func setMeter(m metric.Meter) {
	meterMu.Lock()
	defer meterMu.Unlock()
	meter = m
	duration = nil
}

func durationHistogram() (metric.Float64Histogram, error) {
	meterMu.Lock()
	defer meterMu.Unlock()
	if duration != nil {
		return duration, nil
	}

	m := meter
	if m == nil {
		m = otel.Meter(instrumentationName)
	}
	h, err := m.Float64Histogram(DurationMetric,
		metric.WithDescription("Duration of ingestion operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	duration = h
	return h, nil
}

// RecordDuration adds one observation of an operation (ingest, sql) to the
// duration histogram.
func RecordDuration(ctx context.Context, operation, format, status string, d time.Duration) {
	h, err := durationHistogram()
	if err != nil {
		return
	}
	h.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("format", format),
		attribute.String("status", status),
	))
}
