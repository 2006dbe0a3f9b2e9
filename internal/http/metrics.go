package http

import (
	"context"
	"strconv"
	"time"

	"github.com/fyrsmithlabs/middleout/internal/logging"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/middleout/internal/http"

// HTTPMetrics records request metrics through OpenTelemetry, for export
// over OTLP.
type HTTPMetrics struct {
	requestsTotal  metric.Int64Counter
	requestDur     metric.Float64Histogram
	responseSize   metric.Int64Histogram
	activeRequests metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the OTel instruments. Instruments that fail to
// register are logged and skipped.
func NewHTTPMetrics(mp metric.MeterProvider, logger *logging.Logger) *HTTPMetrics {
	meter := mp.Meter(httpInstrumentationName)
	ctx := context.Background()
	m := &HTTPMetrics{}

	var err error
	m.requestsTotal, err = meter.Int64Counter(
		"middleout.http.requests_total",
		metric.WithDescription("HTTP requests by method, endpoint and status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create requests counter", zap.Error(err))
	}

	m.requestDur, err = meter.Float64Histogram(
		"middleout.http.request_duration_seconds",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create duration histogram", zap.Error(err))
	}

	m.responseSize, err = meter.Int64Histogram(
		"middleout.http.response_size_bytes",
		metric.WithDescription("HTTP response body size"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(100, 500, 1000, 5000, 10000, 50000, 100000, 500000),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create response size histogram", zap.Error(err))
	}

	m.activeRequests, err = meter.Int64UpDownCounter(
		"middleout.http.active_requests",
		metric.WithDescription("HTTP requests in flight"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create active requests gauge", zap.Error(err))
	}

	return m
}

// Middleware records OTel metrics for every request.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()

			if m.activeRequests != nil {
				m.activeRequests.Add(ctx, 1)
				defer m.activeRequests.Add(ctx, -1)
			}

			err := next(c)

			attrs := metric.WithAttributes(
				attribute.String("method", c.Request().Method),
				attribute.String("endpoint", routePath(c)),
				attribute.Int("status", responseStatus(c, err)),
			)
			if m.requestsTotal != nil {
				m.requestsTotal.Add(ctx, 1, attrs)
			}
			if m.requestDur != nil {
				m.requestDur.Record(ctx, time.Since(start).Seconds(), attrs)
			}
			if m.responseSize != nil {
				m.responseSize.Record(ctx, c.Response().Size, attrs)
			}
			return err
		}
	}
}

// PromMetrics holds the Prometheus collectors scraped from /metrics.
type PromMetrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RateLimited     prometheus.Counter
	Operations      *prometheus.CounterVec
	Fallbacks       *prometheus.CounterVec
}

// NewPromMetrics registers collectors on a fresh registry, so several
// servers (and tests) can coexist in one process.
//
// Metrics:
//   - middleout_http_requests_total{method,endpoint,status}
//   - middleout_http_request_duration_seconds{method,endpoint}
//   - middleout_http_rate_limited_total
//   - middleout_operations_total{operation,algorithm}
//   - middleout_fallbacks_total{reason}
func NewPromMetrics() *PromMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &PromMetrics{
		Registry: reg,
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "middleout_http_requests_total",
				Help: "HTTP requests by method, endpoint and status",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "middleout_http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "middleout_http_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		}),
		Operations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "middleout_operations_total",
				Help: "Codec operations served over HTTP",
			},
			[]string{"operation", "algorithm"},
		),
		Fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "middleout_fallbacks_total",
				Help: "Decompress calls answered by raw recovery",
			},
			[]string{"reason"},
		),
	}
}

// Middleware records Prometheus request metrics.
func (p *PromMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			method := c.Request().Method
			endpoint := routePath(c)
			p.RequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(responseStatus(c, err))).Inc()
			p.RequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// routePath returns the matched route pattern, never the raw URL, so
// label cardinality stays bounded.
func routePath(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}

// responseStatus is the status the client will see. Errors returned by
// handlers are written by the error handler after middleware runs.
func responseStatus(c echo.Context, err error) int {
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he.Code
		}
		if !c.Response().Committed {
			return 500
		}
	}
	return c.Response().Status
}
