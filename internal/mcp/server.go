package mcp

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/fyrsmithlabs/middleout/internal/compression"
	"github.com/fyrsmithlabs/middleout/internal/logging"
)

// Server is an MCP server that calls the codec service directly.
type Server struct {
	mcp      *mcp.Server
	svc      *compression.Service
	defaults atomic.Pointer[compression.Config]
	metrics  *Metrics
	logger   *logging.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "middleout")
	Name string

	// Version is the server version (default: "dev")
	Version string

	// Logger for structured logging. Must not write to stdout, which
	// carries the protocol.
	Logger *logging.Logger

	// Defaults is the compression config used when a call does not
	// override it.
	Defaults compression.Config

	// MeterProvider receives tool metrics. Nil disables them.
	MeterProvider metric.MeterProvider
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:     "middleout",
		Version:  "dev",
		Logger:   logging.Nop(),
		Defaults: compression.DefaultConfig(),
	}
}

// NewServer creates a new MCP server backed by svc.
func NewServer(cfg *Config, svc *compression.Service) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if svc == nil {
		return nil, fmt.Errorf("compression service is required")
	}
	if err := cfg.Defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid compression defaults: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	mp := cfg.MeterProvider
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	name, version := cfg.Name, cfg.Version
	if name == "" {
		name = "middleout"
	}
	if version == "" {
		version = "dev"
	}

	s := &Server{
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    name,
				Version: version,
			},
			nil,
		),
		svc:     svc,
		logger:  logger.Named("mcp"),
		metrics: NewMetrics(mp, logger),
	}
	defaults := cfg.Defaults
	s.defaults.Store(&defaults)

	s.registerTools()

	return s, nil
}

// SetDefaults swaps the compression defaults used by later calls.
func (s *Server) SetDefaults(cfg compression.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.defaults.Store(&cfg)
	return nil
}

func (s *Server) config() compression.Config {
	return *s.defaults.Load()
}

// Run starts the MCP server on the stdio transport and blocks until the
// client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "starting MCP server on stdio transport")
	return s.Serve(ctx, &mcp.StdioTransport{})
}

// Serve runs the server on an arbitrary transport.
func (s *Server) Serve(ctx context.Context, transport mcp.Transport) error {
	if err := s.mcp.Run(ctx, transport); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}

// Connect starts a single session on transport without blocking.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcp.Connect(ctx, transport, nil)
}
