// AngelaMos | 2026
// telemetry_test.go

package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/marketflow/agency-api/internal/config"
)

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased{0.5}")
	assert.Contains(t, sampler(0).Description(), "TraceIDRatioBased{0.1}")
	assert.Contains(t, sampler(3).Description(), "TraceIDRatioBased{0.1}")
}

func TestDisabledTelemetryIsNoop(t *testing.T) {
	tel, err := NewTelemetry(
		context.Background(),
		config.OtelConfig{Enabled: false},
		config.AppConfig{Name: "agency-api"},
	)
	require.NoError(t, err)
	assert.NotNil(t, tel.Tracer)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestEndSpanRecordsErrors(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, ok := StartSpan(context.Background(), "task.transition", attribute.String("to", "approved"))
	EndSpan(ok, nil)
	_, failed := StartSpan(context.Background(), "brief.create")
	EndSpan(failed, errors.New("boom"))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "task.transition", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "boom", spans[1].Status().Description)
}
