package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	setTracer(tp.Tracer("test"))
	t.Cleanup(func() {
		setTracer(nil)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestSpanAttributesAndStatus(t *testing.T) {
	rec := useRecorder(t)

	_, span := NewSpan(context.Background(), "ingest.read")
	span.SetAttribute("format", "csv")
	span.SetAttribute("rows", 5)
	span.SetAttribute("ratio", 0.5)
	span.Finish(nil)

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "ingest.read", ended[0].Name())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "csv", attrs["format"])
	assert.Equal(t, "5", attrs["rows"])
	assert.Contains(t, attrs, "duration_ms")
}

func TestTraceRecordsErrors(t *testing.T) {
	rec := useRecorder(t)
	boom := errors.New("boom")

	err := Trace(context.Background(), "ingest.validate", func(ctx context.Context, span *Span) error {
		_, child := NewSpan(ctx, "child")
		child.End()
		span.SetAttribute("diagnostics", 2)
		return boom
	})
	require.ErrorIs(t, err, boom)

	ended := rec.Ended()
	require.Len(t, ended, 2)
	parent := ended[1]
	assert.Equal(t, "ingest.validate", parent.Name())
	assert.Equal(t, codes.Error, parent.Status().Code)
	assert.Equal(t, parent.SpanContext().SpanID(), ended[0].Parent().SpanID())

	attrs := map[string]string{}
	for _, kv := range parent.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "2", attrs["diagnostics"])
}

func TestAddEvent(t *testing.T) {
	rec := useRecorder(t)

	_, span := NewSpan(context.Background(), "ingest.validate")
	span.AddEvent("duplicate_rows", attribute.Int("count", 3))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	events := ended[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "duplicate_rows", events[0].Name)
	require.Len(t, events[0].Attributes, 1)
	assert.Equal(t, int64(3), events[0].Attributes[0].Value.AsInt64())
}

func TestInitTracingExportsToWriter(t *testing.T) {
	var out bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Output = &out

	shutdown, err := InitTracing(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { setTracer(nil) })

	_, span := NewSpan(context.Background(), "exported-span")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, out.String(), "exported-span")
}
