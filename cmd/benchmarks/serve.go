package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/studiowebux/webbench/internal/config"
	"github.com/studiowebux/webbench/internal/metrics"
	"github.com/studiowebux/webbench/internal/mock"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local stub target server",
	Long: `Serve GET /health, POST /api/products and POST /graphql with canned responses,
so the harness can be tried without the real framework servers.

Examples:
  benchmarks serve                           # Stub on localhost:3000
  benchmarks serve --port 3001 --name Actix  # Second stub
  benchmarks serve --routes routes.yaml      # Custom routes
  benchmarks serve --write-routes routes.yaml`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

// Flags for serve
var (
	serveRoutes      string
	servePort        int
	serveHost        string
	serveName        string
	serveWriteRoutes string
	serveLogRequests bool
)

func init() {
	serveCmd.Flags().StringVar(&serveRoutes, "routes", "", "Route file (.yaml/.yml/.json); default serves the benchmark endpoints")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides the route file)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (overrides the route file)")
	serveCmd.Flags().StringVar(&serveName, "name", "", "Value of the Server response header")
	serveCmd.Flags().StringVar(&serveWriteRoutes, "write-routes", "", "Write the default routes to this file and exit")
	serveCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
	serveCmd.Flags().BoolVar(&serveLogRequests, "log-requests", false, "Log every served request at debug level")
}

func runServe(cmd *cobra.Command) error {
	ctx := cmd.Context()

	settings, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	if serveWriteRoutes != "" {
		if err := mock.SaveConfig(mock.DefaultConfig(), serveWriteRoutes); err != nil {
			return err
		}
		logger.Info("routes written", "path", serveWriteRoutes)
		return nil
	}

	cfg := mock.DefaultConfig()
	workdir, _ := os.Getwd()
	if serveRoutes != "" {
		path, err := config.ExpandPath(serveRoutes)
		if err != nil {
			return err
		}
		cfg, err = mock.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("%w: %v", config.ErrInvalid, err)
		}
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveHost != "" {
		cfg.Host = serveHost
	}
	if serveName != "" {
		cfg.Name = serveName
	}
	cfg.Logging = serveLogRequests

	var opts []mock.Option
	if settings.MetricsAddr != "" {
		collector := metrics.NewCollector()
		msrv, err := metrics.Start(settings.MetricsAddr, collector)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer msrv.Stop(ctx)
		opts = append(opts, mock.WithMiddleware(collector.Middleware))
	}

	srv, err := mock.NewServer(cfg, workdir, opts...)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	if err := srv.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down stub server", "addr", srv.GetAddress())

	if serveLogRequests {
		for _, l := range srv.GetLogs() {
			logger.Debug("served", "method", l.Method, "path", l.Path, "status", l.Status, "rule", l.MatchedRule, "duration", l.Duration)
		}
	}
	return srv.Stop(ctx)
}
