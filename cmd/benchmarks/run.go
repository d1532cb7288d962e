package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/studiowebux/webbench/internal/catalog"
	"github.com/studiowebux/webbench/internal/config"
	"github.com/studiowebux/webbench/internal/executor"
	"github.com/studiowebux/webbench/internal/logging"
	"github.com/studiowebux/webbench/internal/metrics"
	"github.com/studiowebux/webbench/internal/report"
	"github.com/studiowebux/webbench/internal/stresstest"
)

// loadSettings initializes the config directory, resolves settings and sets up logging
func loadSettings(cmd *cobra.Command) (*config.Settings, *slog.Logger, error) {
	if err := config.Initialize(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	settings, err := config.Load(config.LoadOptions{
		ConfigFile: flagConfigFile,
		EnvFile:    flagEnvFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.Setup(settings.LogLevel, settings.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	return settings, logger, nil
}

// runBenchmarks resolves the category into plans, waits for the servers and
// prints the comparison report
func runBenchmarks(cmd *cobra.Command, name string) error {
	ctx := cmd.Context()

	settings, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	category, err := catalog.ParseCategory(name)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(flagOutput)
	if err != nil {
		return err
	}

	cat := catalog.New(settings.Servers)
	plans, err := cat.Resolve(category)
	if err != nil {
		return err
	}

	overrides := catalog.Overrides{
		RequestTimeout: &settings.Timeout,
		MaxRPS:         &settings.MaxRPS,
	}
	if cmd.Flags().Changed("concurrency") {
		overrides.Concurrency = &flagConcurrency
	}
	if cmd.Flags().Changed("requests") {
		overrides.TotalRequests = &flagRequests
	}
	plans, err = catalog.ApplyOverrides(plans, overrides)
	if err != nil {
		return err
	}

	poolSize := 0
	for _, p := range plans {
		poolSize = max(poolSize, p.Config.Concurrency)
	}
	client := executor.New(executor.Options{
		PoolSize:       poolSize,
		RequestTimeout: settings.Timeout,
	})
	defer client.Close()

	if !flagNoWait {
		logger.Info("waiting for servers", "servers", len(cat.Servers()))
		err := client.WaitReady(ctx, cat.BaseURLs(), executor.ReadyOptions{
			ProbePath: settings.ReadyPath,
			Retries:   settings.ReadyRetries,
			Delay:     settings.ReadyDelay,
		})
		if err != nil {
			return err
		}
	}

	opts := []stresstest.DriverOption{stresstest.WithLogger(logger)}

	if flagProgress {
		opts = append(opts, stresstest.WithObserver(stresstest.NewProgressObserver(cmd.ErrOrStderr())))
	}

	if settings.MetricsAddr != "" {
		collector := metrics.NewCollector()
		srv, err := metrics.Start(settings.MetricsAddr, collector)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer srv.Stop(ctx)
		opts = append(opts, stresstest.WithObserver(collector))
	}

	if flagSave {
		manager, err := stresstest.NewManager(settings.Database)
		if err != nil {
			return fmt.Errorf("failed to open run database: %w", err)
		}
		defer manager.Close()
		opts = append(opts, stresstest.WithObserver(stresstest.NewRecorder(manager, logger)))
	}

	driver := stresstest.NewDriver(client, opts...)
	reporter := report.NewReporter(driver, report.WithLogger(logger))

	logger.Info("starting benchmarks", "category", category, "runs", len(plans))
	result, err := reporter.ComparePlans(ctx, plans)
	if err != nil {
		// Keep whatever finished before the failure visible
		if result != nil && len(result.Rows) > 0 {
			_ = report.Render(cmd.OutOrStdout(), result, format)
		}
		return err
	}

	if err := report.Render(cmd.OutOrStdout(), result, format); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	logger.Info("benchmarks complete", "rows", len(result.Rows))
	return nil
}

// openManager opens the run database named by settings
func openManager(settings *config.Settings) (*stresstest.Manager, error) {
	if _, err := os.Stat(settings.Database); err != nil && settings.Database != ":memory:" {
		return nil, fmt.Errorf("no saved runs at %s (run with --save first)", settings.Database)
	}
	return stresstest.NewManager(settings.Database)
}
