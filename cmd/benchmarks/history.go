package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studiowebux/webbench/internal/report"
	"github.com/studiowebux/webbench/internal/stresstest"
	"github.com/studiowebux/webbench/internal/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show saved benchmark runs",
	Long: `Show runs saved with --save, newest first. Statistics are recomputed from the
stored request outcomes.

Examples:
  benchmarks history                   # Last 20 runs
  benchmarks history --framework Axum  # One framework only
  benchmarks history --delete 12       # Remove a run`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(cmd)
	},
}

// Flags for history
var (
	historyFramework string
	historyEndpoint  string
	historyLimit     int
	historyOutput    string
	historyDelete    int64
)

func init() {
	historyCmd.Flags().StringVar(&historyFramework, "framework", "", "Only runs of this framework")
	historyCmd.Flags().StringVar(&historyEndpoint, "endpoint", "", "Only runs of this endpoint label")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs (0 = all)")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "table", "Output format (table/json/yaml)")
	historyCmd.Flags().Int64Var(&historyDelete, "delete", 0, "Delete the run with this id")
}

func runHistory(cmd *cobra.Command) error {
	settings, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(historyOutput)
	if err != nil {
		return err
	}
	if historyLimit < 0 {
		return fmt.Errorf("%w: limit cannot be negative", stresstest.ErrConfiguration)
	}

	manager, err := openManager(settings)
	if err != nil {
		return err
	}
	defer manager.Close()

	if historyDelete > 0 {
		if err := manager.DeleteRun(historyDelete); err != nil {
			return err
		}
		logger.Info("run deleted", "id", historyDelete)
		return nil
	}

	runs, err := manager.ListRuns(stresstest.RunFilter{
		Framework: historyFramework,
		Endpoint:  historyEndpoint,
		Limit:     historyLimit,
	})
	if err != nil {
		return err
	}
	logger.Debug("loaded saved runs", "count", len(runs))

	results := make([]*types.RunResult, len(runs))
	for i, run := range runs {
		results[i] = run.Result
	}

	rep, err := report.FromRuns(results)
	if err != nil {
		return err
	}
	return report.Render(cmd.OutOrStdout(), rep, format)
}
