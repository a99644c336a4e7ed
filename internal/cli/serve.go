package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forkline/internal/server"
	"github.com/matzehuels/forkline/pkg/observability/prom"
)

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noCache   bool
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts over HTTP",
		Long: `Serve layouts over HTTP.

Routes:
  POST /v1/layout   {"history": {...}, "options": {...}} -> layout
  GET  /healthz
  GET  /metrics     Prometheus metrics

The cache backend and defaults come from the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.Config.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			cc, err := c.newCache(ctx, noCache)
			if err != nil {
				return err
			}

			opts := server.Options{
				Addr:         cfg.Addr,
				Cache:        cc,
				Defaults:     c.Config.Options(),
				MaxBodyBytes: cfg.MaxBodyBytes,
				Timeout:      time.Duration(cfg.TimeoutSeconds) * time.Second,
				Logger:       loggerFromContext(ctx),
			}
			if !noMetrics {
				m := prom.New()
				m.Register()
				opts.Metrics = m
			}

			srv := server.New(opts)
			defer srv.Close()

			printInfo(cmd.OutOrStdout(), "Serving layouts on %s", cfg.Addr)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable /metrics and metric collection")

	return cmd
}
