package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewProviderWithExporters(t *testing.T) {
	ctx := context.Background()
	// Nothing listens on the endpoint; exporters are lazy so init still succeeds.
	p, err := NewProvider(ctx, Options{
		ServiceName: "car-park-test",
		Endpoint:    "http://localhost:4318",
		Environment: "test",
	})
	require.NoError(t, err)
	assert.NotNil(t, p.Tracer())
	assert.NotNil(t, p.Meter())

	shutdownCtx, cancel := context.WithCancel(ctx)
	cancel()
	// Flushing to a missing collector may fail; only the call path matters.
	_ = p.Shutdown(shutdownCtx)
}

func TestNewProviderDisabled(t *testing.T) {
	ctx := context.Background()
	p, err := NewProvider(ctx, Options{ServiceName: "car-park-test", Disabled: true})
	require.NoError(t, err)

	_, span := p.Tracer().Start(ctx, "test")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, p.Shutdown(ctx))
}

func TestNewProviderFrom(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	mp := sdkmetric.NewMeterProvider()

	p := NewProviderFrom("car-park-test", tp, mp)
	assert.NotNil(t, p.Tracer())
	assert.NotNil(t, p.Meter())
	require.NoError(t, p.Shutdown(context.Background()))
}
