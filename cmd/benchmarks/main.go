package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/studiowebux/webbench/internal/catalog"
	"github.com/studiowebux/webbench/internal/config"
	"github.com/studiowebux/webbench/internal/executor"
	"github.com/studiowebux/webbench/internal/stresstest"
)

var (
	version = "0.1.0"
)

// Process exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigError = 2
	exitUnreachable = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, executor.ErrUnreachable):
		return exitUnreachable
	case errors.Is(err, stresstest.ErrConfiguration), errors.Is(err, config.ErrInvalid):
		return exitConfigError
	default:
		return exitFailure
	}
}

var rootCmd = &cobra.Command{
	Use:   "benchmarks <category>",
	Short: "Compare HTTP framework throughput and latency",
	Long: `benchmarks drives a fixed pool of concurrent workers against every configured
framework server and prints one comparison row per framework and endpoint.

Categories:
  health    GET /health           (100 workers, 1000 requests)
  rest      POST /api/products    (50 workers, 500 requests)
  graphql   POST /graphql         (30 workers, 300 requests)
  all       every category in that order

Servers default to Axum on :3000 and ActixWeb on :3001. Override them in
benchmarks.yaml or with WEBBENCH_SERVERS="Axum=http://host:3000,ActixWeb=http://host:3001".

Examples:
  benchmarks health                    # Category defaults
  benchmarks rest -c 10 -r 200         # Override load parameters
  benchmarks all -o json               # Machine-readable report
  benchmarks graphql --save            # Keep outcomes for 'benchmarks history'
  benchmarks serve --port 3000         # Local stub target`,
	Version:       version,
	Args:          categoryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBenchmarks(cmd, args[0])
	},
}

// Flags for the benchmark command
var (
	flagConcurrency  int
	flagRequests     int
	flagOutput       string
	flagTimeout      time.Duration
	flagMaxRPS       float64
	flagNoWait       bool
	flagReadyRetries int
	flagReadyDelay   time.Duration
	flagProgress     bool
	flagSave         bool
	flagMetricsAddr  string
)

// Persistent flags
var (
	flagConfigFile string
	flagEnvFile    string
	flagLogLevel   string
	flagLogFormat  string
	flagDatabase   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "Config file (default: ./benchmarks.yaml or ~/.webbench/benchmarks.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "Load environment variables from file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text/json)")
	rootCmd.PersistentFlags().StringVar(&flagDatabase, "database", "", "SQLite database for saved runs (default: ~/.webbench/webbench.db)")

	rootCmd.Flags().IntVarP(&flagConcurrency, "concurrency", "c", 0, "Concurrent workers (default: category default)")
	rootCmd.Flags().IntVarP(&flagRequests, "requests", "r", 0, "Total requests per run (default: category default)")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "table", "Output format (table/json/yaml)")
	rootCmd.Flags().DurationVar(&flagTimeout, "timeout", 10*time.Second, "Per-request timeout")
	rootCmd.Flags().Float64Var(&flagMaxRPS, "max-rps", 0, "Cap the request rate of each run (0 = unlimited)")
	rootCmd.Flags().BoolVar(&flagNoWait, "no-wait", false, "Skip the server readiness probe")
	rootCmd.Flags().IntVar(&flagReadyRetries, "ready-retries", 30, "Readiness probe attempts per server")
	rootCmd.Flags().DurationVar(&flagReadyDelay, "ready-delay", time.Second, "Pause between readiness attempts")
	rootCmd.Flags().BoolVar(&flagProgress, "progress", false, "Show a progress bar per run on stderr")
	rootCmd.Flags().BoolVar(&flagSave, "save", false, "Save every run to the database")
	rootCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", stresstest.ErrConfiguration, err)
	})

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
}

// categoryArgs requires exactly one benchmark category
func categoryArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: expected one category, got %d arguments", stresstest.ErrConfiguration, len(args))
	}
	_, err := catalog.ParseCategory(args[0])
	return err
}
