// Package config loads middleout configuration from .middleoutrc and the
// environment.
package config

import (
	"fmt"
	"math"
	"time"

	"github.com/fyrsmithlabs/middleout/internal/compression"
	"github.com/fyrsmithlabs/middleout/internal/logging"
	"github.com/fyrsmithlabs/middleout/internal/telemetry"
)

// Config is the complete middleout configuration. The top-level keys keep
// the camelCase names of the .middleoutrc format.
type Config struct {
	Algorithm          string  `koanf:"algorithm" json:"algorithm"`
	WisemanOptimized   bool    `koanf:"wisemanOptimized" json:"wisemanOptimized"`
	AggressionLevel    int     `koanf:"aggressionLevel" json:"aggressionLevel"`
	PreserveWhitespace bool    `koanf:"preserveWhitespace" json:"preserveWhitespace"`
	TargetWeissman     float64 `koanf:"targetWeissman" json:"targetWeissman"`

	Server    ServerConfig    `koanf:"server" json:"server"`
	Logging   LoggingConfig   `koanf:"logging" json:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry" json:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host" json:"host"`
	Port            int           `koanf:"port" json:"port"`
	RateLimit       float64       `koanf:"rate_limit" json:"rate_limit"` // requests per second per client, 0 disables
	RateBurst       int           `koanf:"rate_burst" json:"rate_burst"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes" json:"max_body_bytes"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig is the user-facing subset of logging.Config.
type LoggingConfig struct {
	Level          string `koanf:"level" json:"level"`
	Format         string `koanf:"format" json:"format"`
	RedactPayloads bool   `koanf:"redact_payloads" json:"redact_payloads"`
	OTEL           bool   `koanf:"otel" json:"otel"`
}

// TelemetryConfig is the user-facing subset of telemetry.Config.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled" json:"enabled"`
	Endpoint     string  `koanf:"endpoint" json:"endpoint"`
	Protocol     string  `koanf:"protocol" json:"protocol"`
	Insecure     bool    `koanf:"insecure" json:"insecure"`
	SamplingRate float64 `koanf:"sampling_rate" json:"sampling_rate"`
}

// Validate checks every value the rest of the program relies on.
func (c *Config) Validate() error {
	if _, ok := compression.ParseAlgorithm(c.Algorithm); !ok {
		return fmt.Errorf("algorithm must be one of %v, got %q", compression.Algorithms(), c.Algorithm)
	}
	if c.AggressionLevel < 0 || c.AggressionLevel > 10 {
		return fmt.Errorf("aggressionLevel must be between 0 and 10, got %d", c.AggressionLevel)
	}
	if math.IsNaN(c.TargetWeissman) || math.IsInf(c.TargetWeissman, 0) || c.TargetWeissman < 0 {
		return fmt.Errorf("targetWeissman must be a finite number >= 0, got %v", c.TargetWeissman)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must be >= 0, got %v", c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("server.rate_burst must be >= 1 when rate limiting, got %d", c.Server.RateBurst)
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must be >= 0, got %d", c.Server.MaxBodyBytes)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}

	if _, err := logging.LevelFromString(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	if err := c.TelemetryConfig("dev").Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

// Compression returns the defaults handed to every compression call.
func (c *Config) Compression() compression.Config {
	algo, _ := compression.ParseAlgorithm(c.Algorithm)
	return compression.Config{
		Algorithm:          algo,
		AggressionLevel:    c.AggressionLevel,
		PreserveWhitespace: compression.Bool(c.PreserveWhitespace),
		TargetWeissman:     c.TargetWeissman,
	}
}

// LoggingConfig expands the logging section into a full logging.Config.
func (c *Config) LoggingConfig() *logging.Config {
	cfg := logging.NewDefaultConfig()
	if level, err := logging.LevelFromString(c.Logging.Level); err == nil {
		cfg.Level = level
	}
	cfg.Format = c.Logging.Format
	cfg.Output.OTEL = c.Logging.OTEL
	if !c.Logging.RedactPayloads {
		cfg.Redaction.Payloads = nil
	}
	return cfg
}

// TelemetryConfig expands the telemetry section into a full telemetry.Config.
func (c *Config) TelemetryConfig(version string) *telemetry.Config {
	cfg := telemetry.NewDefaultConfig()
	cfg.Enabled = c.Telemetry.Enabled
	cfg.Endpoint = c.Telemetry.Endpoint
	cfg.Protocol = c.Telemetry.Protocol
	cfg.Insecure = c.Telemetry.Insecure
	cfg.Sampling.Rate = c.Telemetry.SamplingRate
	if version != "" {
		cfg.ServiceVersion = version
	}
	return cfg
}
