package stresstest

import (
	"errors"
	"fmt"

	"github.com/studiowebux/webbench/internal/types"
)

var (
	// ErrConfiguration marks invalid run parameters. Nothing is sent when it is returned.
	ErrConfiguration = errors.New("configuration error")

	// ErrAggregation marks a RunResult that breaks the driver's guarantees
	ErrAggregation = errors.New("aggregation error")
)

// ValidateConfig checks a benchmark configuration before a run
func ValidateConfig(cfg types.BenchmarkConfig) error {
	if cfg.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be greater than 0 (got %d)", ErrConfiguration, cfg.Concurrency)
	}
	if cfg.TotalRequests <= 0 {
		return fmt.Errorf("%w: total requests must be greater than 0 (got %d)", ErrConfiguration, cfg.TotalRequests)
	}
	if cfg.RequestTimeout < 0 {
		return fmt.Errorf("%w: request timeout cannot be negative", ErrConfiguration)
	}
	if cfg.MaxRPS < 0 {
		return fmt.Errorf("%w: max requests per second cannot be negative", ErrConfiguration)
	}
	return nil
}

// ValidateTarget checks that a target can be requested at all
func ValidateTarget(target types.EndpointTarget) error {
	if target.BaseURL == "" {
		return fmt.Errorf("%w: target base URL is required", ErrConfiguration)
	}
	return nil
}
