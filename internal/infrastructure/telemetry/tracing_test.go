package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func TestStartServiceSpan(t *testing.T) {
	recorder := installRecorder(t)
	depositID := uuid.New()

	ctx, span := StartServiceSpan(context.Background(), "deposit", "approve", SpanAttrDepositID, depositID, "attempt", 1)
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
	AddEvent(span, "cas_miss", SpanAttrStatus, "approved")
	RecordError(span, errors.New("already decided"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "deposit.approve", s.Name())
	assert.Equal(t, codes.Error, s.Status().Code)

	attrs := map[string]string{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, depositID.String(), attrs[SpanAttrDepositID])
	assert.Equal(t, "1", attrs["attempt"])
	require.Len(t, s.Events(), 2)
}

func TestToAttributes_SkipsNonStringKeys(t *testing.T) {
	attrs := toAttributes([]any{"a", true, 42, "ignored", "b"})
	require.Len(t, attrs, 1)
	assert.Equal(t, "a", string(attrs[0].Key))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Equal(t, "AlwaysOffSampler", samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestDisabledProviders(t *testing.T) {
	p, err := Setup(context.Background(), Config{ServiceName: "dealerdesk-test"}, nil)
	require.NoError(t, err)
	assert.False(t, p.TracingEnabled())
	assert.False(t, p.MetricsEnabled())
	assert.NotNil(t, p.Tracer("x"))
	assert.NotNil(t, p.Meter("x"))
	assert.NoError(t, p.Shutdown(context.Background()))

	m, err := RegisterDBMetrics(nil, p, DBMetricsConfig{}, nil)
	assert.NoError(t, err)
	assert.Nil(t, m)
}

func TestOperationOf(t *testing.T) {
	assert.Equal(t, "SELECT", operationOf(" select * from deposits"))
	assert.Equal(t, "UPDATE", operationOf("UPDATE deposits SET status = 'approved'"))
	assert.Equal(t, "OTHER", operationOf("BEGIN"))
}
