// Package http serves the codec service over a JSON API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/fyrsmithlabs/middleout/internal/compression"
	"github.com/fyrsmithlabs/middleout/internal/logging"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// Server provides HTTP endpoints for the codec service.
type Server struct {
	echo     *echo.Echo
	svc      *compression.Service
	logger   *logging.Logger
	config   *Config
	version  string
	defaults atomic.Pointer[compression.Config]

	meterProvider metric.MeterProvider
	limiter       *ipLimiter
	prom          *PromMetrics
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// RateLimit is requests per second per client IP. 0 disables limiting.
	RateLimit float64
	RateBurst int

	// MaxBodyBytes caps request bodies. 0 means no limit.
	MaxBodyBytes int64
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithMeterProvider records OTel HTTP metrics on mp.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Server) {
		if mp != nil {
			s.meterProvider = mp
		}
	}
}

// NewServer creates a new HTTP server. defaults is the compression config
// applied to requests that do not override it.
func NewServer(svc *compression.Service, logger *logging.Logger, cfg *Config, defaults compression.Config, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("compression service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9191,
		}
	}
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid compression defaults: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// Clients are keyed by the TCP peer. Forwarding headers are client
	// controlled and would let a caller pick its own rate-limit bucket.
	e.IPExtractor = echo.ExtractIPDirect()

	s := &Server{
		echo:          e,
		svc:           svc,
		logger:        logger.Named("http"),
		config:        cfg,
		meterProvider: noop.NewMeterProvider(),
		prom:          NewPromMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.defaults.Store(&defaults)

	otelMetrics := NewHTTPMetrics(s.meterProvider, s.logger)

	// Middleware
	e.Use(requestID(s.logger))
	e.Use(requestLogger(s.logger))
	e.Use(s.prom.Middleware())
	e.Use(otelMetrics.Middleware())
	e.Use(recoverer(s.logger))

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(
		s.prom.Registry,
		promhttp.HandlerOpts{Registry: s.prom.Registry},
	)))

	v1 := s.echo.Group("/api/v1")
	if s.config.RateLimit > 0 {
		burst := s.config.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = newIPLimiter(s.config.RateLimit, burst)
		v1.Use(s.limiter.middleware(func(echo.Context) { s.prom.RateLimited.Inc() }))
	}
	if s.config.MaxBodyBytes > 0 {
		v1.Use(middleware.BodyLimit(strconv.FormatInt(s.config.MaxBodyBytes, 10) + "B"))
	}

	v1.GET("/algorithms", s.handleAlgorithms)
	v1.POST("/compress", s.handleCompress)
	v1.POST("/decompress", s.handleDecompress)
	v1.POST("/score", s.handleScore)
	v1.POST("/compare", s.handleCompare)
}

// Defaults returns the compression config currently applied to requests.
func (s *Server) Defaults() compression.Config {
	return *s.defaults.Load()
}

// SetDefaults swaps the compression defaults. In-flight requests keep the
// config they started with.
func (s *Server) SetDefaults(cfg compression.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.defaults.Store(&cfg)
	s.logger.Info(context.Background(), "compression defaults updated",
		zap.String("algorithm", string(cfg.Algorithm)),
		zap.Int("aggression", cfg.AggressionLevel),
		zap.Float64("target", cfg.TargetWeissman),
	)
	return nil
}

// ServeHTTP lets the server be mounted or exercised without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start starts the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
