package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/studiowebux/webbench/internal/catalog"
	"github.com/studiowebux/webbench/internal/stresstest"
	"github.com/studiowebux/webbench/internal/types"
)

// Runner executes one benchmark run. *stresstest.Driver satisfies it.
type Runner interface {
	Run(ctx context.Context, framework string, target types.EndpointTarget, cfg types.BenchmarkConfig) (*types.RunResult, error)
}

// LabeledTarget is a target tagged with the framework serving it
type LabeledTarget struct {
	Framework string
	Target    types.EndpointTarget
}

// Reporter benchmarks targets one after another and collects the summaries
type Reporter struct {
	runner Runner
	logger *slog.Logger
}

// Option configures a Reporter
type Option func(*Reporter)

// WithLogger sets the reporter logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Reporter) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewReporter creates a reporter around a runner
func NewReporter(runner Runner, opts ...Option) *Reporter {
	r := &Reporter{
		runner: runner,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Compare benchmarks every target with the same config, in input order
func (r *Reporter) Compare(ctx context.Context, targets []LabeledTarget, cfg types.BenchmarkConfig) (*types.ComparisonReport, error) {
	plans := make([]catalog.Plan, len(targets))
	for i, t := range targets {
		plans[i] = catalog.Plan{Framework: t.Framework, Target: t.Target, Config: cfg}
	}
	return r.ComparePlans(ctx, plans)
}

// ComparePlans benchmarks each plan with its own config, strictly one at a
// time so runs never compete for the same machine. On error the rows
// gathered so far are returned along with it.
func (r *Reporter) ComparePlans(ctx context.Context, plans []catalog.Plan) (*types.ComparisonReport, error) {
	report := &types.ComparisonReport{}

	// Validate everything up front so a bad plan fails before any request
	for _, p := range plans {
		if err := stresstest.ValidateConfig(p.Config); err != nil {
			return report, fmt.Errorf("%s %s: %w", p.Framework, p.Target.Label, err)
		}
	}

	for i, p := range plans {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("stopping before remaining runs", "completed", i, "remaining", len(plans)-i)
			return report, fmt.Errorf("benchmark interrupted: %w", err)
		}

		result, err := r.runner.Run(ctx, p.Framework, p.Target, p.Config)
		if err != nil {
			return report, fmt.Errorf("%s %s: %w", p.Framework, p.Target.Label, err)
		}

		stats, err := stresstest.Aggregate(result)
		if err != nil {
			return report, fmt.Errorf("%s %s: %w", p.Framework, p.Target.Label, err)
		}

		r.logger.Debug("run aggregated",
			"framework", stats.Framework,
			"endpoint", stats.Endpoint,
			"rps", stats.RequestsPerSecond,
			"success_rate", stats.SuccessRatePct,
		)
		report.Append(stats)

		// An interrupt during the run leaves canceled outcomes in its row
		if err := ctx.Err(); err != nil {
			r.logger.Warn("run interrupted", "framework", p.Framework, "endpoint", p.Target.Label, "remaining", len(plans)-i-1)
			return report, fmt.Errorf("benchmark interrupted: %w", err)
		}
	}

	return report, nil
}

// FromRuns aggregates already collected runs into a report
func FromRuns(results []*types.RunResult) (*types.ComparisonReport, error) {
	report := &types.ComparisonReport{}
	for _, result := range results {
		stats, err := stresstest.Aggregate(result)
		if err != nil {
			return report, err
		}
		report.Append(stats)
	}
	return report, nil
}
