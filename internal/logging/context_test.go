package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zapcore"
)

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestContextFields_Trace(t *testing.T) {
	tp := trace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	fields := ContextFields(ctx)
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.Contains(t, keys, "trace_id")
	assert.Contains(t, keys, "span_id")
	assert.Contains(t, keys, "trace_sampled")
}

func TestTestLogger_TraceCorrelation(t *testing.T) {
	tp := trace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	logger := NewTestLogger()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.Info(ctx, "inside span")
	span.End()

	logger.AssertTraceCorrelation(t, "inside span")
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc_123-XYZ")
	assert.Equal(t, "abc_123-XYZ", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestValidRequestID(t *testing.T) {
	assert.True(t, ValidRequestID("0b6c1f4e-8f0a-4b8e-9d55-0f4c2f1d3a77"))
	assert.False(t, ValidRequestID(""))
	assert.False(t, ValidRequestID("has space"))
	assert.False(t, ValidRequestID("new\nline"))
	assert.False(t, ValidRequestID(strings.Repeat("a", maxRequestIDLen+1)))
}

func TestWithRequestID_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { WithRequestID(context.Background(), "bad id") })
}

func TestFromContext(t *testing.T) {
	logger := NewTestLogger()
	ctx := WithLogger(context.Background(), logger.Logger)

	FromContext(ctx).Warn(ctx, "from context")
	logger.AssertLogged(t, zapcore.WarnLevel, "from context")

	assert.NotNil(t, FromContext(context.Background()))
}
