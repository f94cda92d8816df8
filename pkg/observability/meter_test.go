package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func useMeterReader(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	SetMeterProvider(mp)
	t.Cleanup(func() {
		SetMeterProvider(nil)
		_ = mp.Shutdown(context.Background())
	})
	return reader
}

func TestRecordDuration(t *testing.T) {
	reader := useMeterReader(t)
	ctx := context.Background()

	RecordDuration(ctx, "ingest", "csv", "success", 250*time.Millisecond)
	RecordDuration(ctx, "ingest", "csv", "success", 750*time.Millisecond)
	RecordDuration(ctx, "ingest", "json", "error", time.Second)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	m := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, DurationMetric, m.Name)
	assert.Equal(t, "s", m.Unit)

	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 2)

	for _, dp := range hist.DataPoints {
		format, ok := dp.Attributes.Value("format")
		require.True(t, ok)
		op, _ := dp.Attributes.Value("operation")
		assert.Equal(t, "ingest", op.AsString())

		switch format.AsString() {
		case "csv":
			assert.Equal(t, uint64(2), dp.Count)
			assert.InDelta(t, 1.0, dp.Sum, 1e-9)
		case "json":
			status, _ := dp.Attributes.Value("status")
			assert.Equal(t, "error", status.AsString())
			assert.Equal(t, uint64(1), dp.Count)
		default:
			t.Fatalf("unexpected format %q", format.AsString())
		}
	}
}

func TestRecordDurationWithoutProviderIsNoop(t *testing.T) {
	SetMeterProvider(nil)
	assert.NotPanics(t, func() {
		RecordDuration(context.Background(), "sql", "sql", "success", time.Millisecond)
	})
}
