package mcp

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/middleout/internal/compression"
	"github.com/fyrsmithlabs/middleout/internal/logging"
)

const instrumentationName = "github.com/fyrsmithlabs/middleout/internal/mcp"

// errInvalidArgument marks tool arguments rejected before reaching the codecs.
var errInvalidArgument = errors.New("invalid argument")

// Metrics records tool calls. Instruments that fail to register are left
// nil and skipped.
type Metrics struct {
	invocations metric.Int64Counter
	duration    metric.Float64Histogram
	errors      metric.Int64Counter
	active      metric.Int64UpDownCounter
	degraded    metric.Int64Counter
}

// NewMetrics registers the tool instruments on mp.
func NewMetrics(mp metric.MeterProvider, logger *logging.Logger) *Metrics {
	meter := mp.Meter(instrumentationName)
	warn := func(name string, err error) {
		if err != nil {
			logger.Warn(context.Background(), "failed to create mcp instrument",
				zap.String("instrument", name), zap.Error(err))
		}
	}

	m := &Metrics{}
	var err error

	m.invocations, err = meter.Int64Counter("middleout.mcp.tool.invocations_total",
		metric.WithDescription("MCP tool calls by tool"),
		metric.WithUnit("{call}"))
	warn("invocations_total", err)

	m.duration, err = meter.Float64Histogram("middleout.mcp.tool.duration_seconds",
		metric.WithDescription("MCP tool call latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1))
	warn("duration_seconds", err)

	m.errors, err = meter.Int64Counter("middleout.mcp.tool.errors_total",
		metric.WithDescription("Failed MCP tool calls by tool and reason"),
		metric.WithUnit("{error}"))
	warn("errors_total", err)

	m.active, err = meter.Int64UpDownCounter("middleout.mcp.tool.active_requests",
		metric.WithDescription("MCP tool calls in flight"),
		metric.WithUnit("{call}"))
	warn("active_requests", err)

	m.degraded, err = meter.Int64Counter("middleout.mcp.decompress.degraded_total",
		metric.WithDescription("decompress tool calls answered by raw recovery, by reason"),
		metric.WithUnit("{call}"))
	warn("degraded_total", err)

	return m
}

// track marks a call to tool in flight and returns the func that records
// its outcome.
func (m *Metrics) track(ctx context.Context, tool string) func(error) {
	attrs := metric.WithAttributes(attribute.String("tool", tool))
	start := time.Now()
	if m.active != nil {
		m.active.Add(ctx, 1, attrs)
	}

	return func(err error) {
		if m.active != nil {
			m.active.Add(ctx, -1, attrs)
		}
		if m.invocations != nil {
			m.invocations.Add(ctx, 1, attrs)
		}
		if m.duration != nil {
			m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		}
		if err != nil && m.errors != nil {
			m.errors.Add(ctx, 1, metric.WithAttributes(
				attribute.String("tool", tool),
				attribute.String("reason", errorReason(err)),
			))
		}
	}
}

// recordDegraded counts a decode that fell back to raw recovery.
func (m *Metrics) recordDegraded(ctx context.Context, reason string) {
	if m.degraded != nil {
		m.degraded.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, errInvalidArgument),
		errors.Is(err, compression.ErrInvalidConfig),
		errors.Is(err, compression.ErrInvalidScore):
		return "validation_error"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal_error"
	}
}
