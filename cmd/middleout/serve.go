package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/middleout/internal/compression"
	"github.com/fyrsmithlabs/middleout/internal/config"
	mohttp "github.com/fyrsmithlabs/middleout/internal/http"
	"github.com/fyrsmithlabs/middleout/internal/logging"
)

func newServeCmd(c *cli) *cobra.Command {
	var (
		host  string
		port  int
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the codecs over HTTP",
		Long: `Start the JSON API.

Endpoints:
  GET  /health
  GET  /metrics
  GET  /api/v1/algorithms
  POST /api/v1/compress
  POST /api/v1/decompress
  POST /api/v1/score
  POST /api/v1/compare

With --watch, edits to the config file replace the compression defaults
without a restart. Server settings still need one.

Examples:
  middleout serve
  middleout serve --port 8080 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			rt, err := c.setup(cmd, false)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			sc := rt.cfg.Server
			if cmd.Flags().Changed("host") {
				sc.Host = host
			}
			if cmd.Flags().Changed("port") {
				sc.Port = port
			}

			srv, err := mohttp.NewServer(rt.svc, rt.logger, &mohttp.Config{
				Host:         sc.Host,
				Port:         sc.Port,
				RateLimit:    sc.RateLimit,
				RateBurst:    sc.RateBurst,
				MaxBodyBytes: sc.MaxBodyBytes,
			}, rt.cfg.Compression(),
				mohttp.WithVersion(version),
				mohttp.WithMeterProvider(rt.tel.MeterProvider()),
			)
			if err != nil {
				return fmt.Errorf("failed to create HTTP server: %w", err)
			}

			if watch {
				w, err := watchDefaults(ctx, c.configPath, rt.logger, srv.SetDefaults)
				if err != nil {
					return err
				}
				defer w.Close()
			}

			errCh := make(chan error, 1)
			go func() {
				rt.logger.Info(ctx, "http server listening", zap.String("addr", sc.Addr()))
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			rt.logger.Info(ctx, "shutting down", zap.Duration("timeout", sc.ShutdownTimeout))
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sc.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("http server shutdown failed: %w", err)
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload compression defaults when the config file changes")
	return cmd
}

// watchDefaults hot-swaps compression defaults through apply whenever the
// config file at path changes.
func watchDefaults(ctx context.Context, path string, logger *logging.Logger, apply func(compression.Config) error) (*config.Watcher, error) {
	w, err := config.Watch(ctx, path,
		func(cfg *config.Config) {
			if err := apply(cfg.Compression()); err != nil {
				logger.Warn(ctx, "rejected reloaded config", zap.Error(err))
				return
			}
			logger.Info(ctx, "compression defaults reloaded",
				zap.String("path", path),
				zap.String("algorithm", cfg.Algorithm),
			)
		},
		func(err error) {
			logger.Warn(ctx, "config reload failed, keeping previous defaults", zap.Error(err))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to watch config: %w", err)
	}
	return w, nil
}
