package main

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/middleout/internal/config"
	"github.com/fyrsmithlabs/middleout/internal/monitor"
)

func newMonitorCmd(c *cli) *cobra.Command {
	var (
		server   string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Live dashboard for a running server",
		Long: `Open a terminal dashboard that scrapes a middleout server's /metrics
endpoint and shows request rate, latency, codec usage and fallbacks.

Press q to quit.

Examples:
  middleout monitor
  middleout monitor --server http://10.0.0.5:9191 --interval 5s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("server") {
				cfg, err := config.Load(c.configPath)
				if err != nil {
					return err
				}
				server = "http://" + cfg.Server.Addr()
			}
			if u, err := url.Parse(server); err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("invalid server URL %q", server)
			}
			if interval < 100*time.Millisecond {
				return fmt.Errorf("interval must be at least 100ms, got %s", interval)
			}
			return monitor.Run(cmd.Context(), server, interval)
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", "", "server base URL (default from config)")
	cmd.Flags().DurationVarP(&interval, "interval", "n", 2*time.Second, "refresh interval")
	return cmd
}
