package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	momcp "github.com/fyrsmithlabs/middleout/internal/mcp"
)

func newMCPCmd(c *cli) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the codecs as MCP tools over stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing the
compress, decompress, score and algorithms tools.

Stdout carries the protocol, so logs always go to stderr.

Example client configuration:
  {"command": "middleout", "args": ["mcp"]}`,
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

			srv, err := momcp.NewServer(&momcp.Config{
				Name:          "middleout",
				Version:       version,
				Logger:        rt.logger,
				Defaults:      rt.cfg.Compression(),
				MeterProvider: rt.tel.MeterProvider(),
			}, rt.svc)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			if watch {
				w, err := watchDefaults(ctx, c.configPath, rt.logger, srv.SetDefaults)
				if err != nil {
					return err
				}
				defer w.Close()
			}

			if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("mcp server failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload compression defaults when the config file changes")
	return cmd
}
