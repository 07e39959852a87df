package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidtube/internal/config"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), &config.Config{TracingEnabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_StdoutExporter(t *testing.T) {
	prev := Tracer
	t.Cleanup(func() { Tracer = prev })

	cfg := &config.Config{
		Env:                "test",
		TracingEnabled:     true,
		TracingExporter:    "stdout",
		TracingSampleRatio: 1,
	}
	shutdown, err := InitTracing(context.Background(), cfg)
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "session.login")
	assert.True(t, span.SpanContext().IsSampled())
	EndSpan(span, nil)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		ratio    float64
		contains string
	}{
		{ratio: 1, contains: "AlwaysOnSampler"},
		{ratio: 2, contains: "AlwaysOnSampler"},
		{ratio: 0.5, contains: "TraceIDRatioBased"},
		{ratio: 0, contains: "ParentBased"},
	}
	for _, tt := range tests {
		assert.Contains(t, samplerFor(tt.ratio).Description(), tt.contains)
	}
}
