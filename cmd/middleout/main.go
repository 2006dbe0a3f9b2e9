// Package main implements the middleout CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/middleout/internal/compression"
	"github.com/fyrsmithlabs/middleout/internal/config"
	"github.com/fyrsmithlabs/middleout/internal/logging"
	"github.com/fyrsmithlabs/middleout/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli holds the persistent flags shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "middleout",
		Short: "The ultimate spoof compression tool",
		Long: `middleout compresses text with five novelty codecs and wraps the result in a
self-describing envelope:

  MO::<algorithm>:<data>::WEISSMAN::<score>

Decompression never fails: anything it cannot decode is answered with a
labeled raw recovery instead.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", config.DefaultPath, "config file (JSON or YAML; .toml for TOML)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")
	flags.StringVar(&c.logFormat, "log-format", "", "log format override (console, json)")
	flags.BoolVar(&c.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newCompressCmd(c),
		newDecompressCmd(c),
		newScoreCmd(c),
		newCompareCmd(c),
		newAlgorithmsCmd(c),
		newInitCmd(c),
		newServeCmd(c),
		newMCPCmd(c),
		newMonitorCmd(c),
		newVersionCmd(),
	)
	return root
}

// app is everything a command needs to call the codec service.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	tel    *telemetry.Telemetry
	svc    *compression.Service
}

// setup loads config and builds the logger, telemetry and service. With
// create set, a missing config file is written with defaults first.
func (c *cli) setup(cmd *cobra.Command, create bool) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if create {
		var created bool
		cfg, created, err = config.LoadOrCreate(c.configPath)
		if err == nil && created {
			fmt.Fprintf(cmd.ErrOrStderr(), "created default config at %s\n", c.configPath)
		}
	} else {
		cfg, err = config.Load(c.configPath)
	}
	if err != nil {
		return nil, err
	}

	tel, err := telemetry.New(cmd.Context(), cfg.TelemetryConfig(version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logger, err := c.newLogger(cmd.ErrOrStderr(), cfg, tel)
	if err != nil {
		return nil, err
	}
	if h := tel.Health(); h.Degraded {
		logger.Warn(cmd.Context(), "telemetry degraded", zap.Strings("issues", h.Issues))
	}

	svc, err := compression.NewService(
		compression.WithLogger(logger),
		compression.WithTracerProvider(tel.TracerProvider()),
		compression.WithMeterProvider(tel.MeterProvider()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create compression service: %w", err)
	}

	return &app{cfg: cfg, logger: logger, tel: tel, svc: svc}, nil
}

func (c *cli) newLogger(w io.Writer, cfg *config.Config, tel *telemetry.Telemetry) (*logging.Logger, error) {
	lc := cfg.LoggingConfig()
	if c.logLevel != "" {
		level, err := logging.LevelFromString(c.logLevel)
		if err != nil {
			return nil, err
		}
		lc.Level = level
	}
	if c.logFormat != "" {
		lc.Format = strings.ToLower(c.logFormat)
	}
	opts := []logging.Option{logging.WithSink(zapcore.AddSync(w))}
	if lp := tel.LoggerProvider(); lp != nil {
		opts = append(opts, logging.WithLoggerProvider(lp))
	}
	return logging.NewLogger(lc, opts...)
}

// close flushes telemetry and logs.
func (r *app) close(ctx context.Context) {
	if err := r.tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
		r.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = r.logger.Sync()
}

// commandContext tags one CLI invocation with a request ID and logger.
func (r *app) commandContext(ctx context.Context) context.Context {
	ctx = logging.WithRequestID(ctx, uuid.NewString())
	return logging.WithLogger(ctx, r.logger)
}

// readInput returns the --input flag value, or stdin when the flag is not
// set. One trailing newline from stdin is dropped.
func readInput(cmd *cobra.Command, flag string) (string, error) {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v, nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	s := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

// applyOverrides layers per-command flags over the configured defaults.
func applyOverrides(cmd *cobra.Command, cfg compression.Config) compression.Config {
	f := cmd.Flags()
	if f.Changed("preserve-whitespace") {
		v, _ := f.GetBool("preserve-whitespace")
		cfg.PreserveWhitespace = compression.Bool(v)
	}
	if f.Changed("target") {
		cfg.TargetWeissman, _ = f.GetFloat64("target")
	}
	if f.Changed("aggression") {
		cfg.AggressionLevel, _ = f.GetInt("aggression")
	}
	return cfg
}

func addCompressionFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("preserve-whitespace", false, "keep whitespace in the input (default from config)")
	cmd.Flags().Float64("target", compression.DefaultTargetWeissman, "target Weissman score (default from config)")
	cmd.Flags().Int("aggression", 0, "aggression level 0-10 (default from config)")
}
