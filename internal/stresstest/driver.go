package stresstest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/studiowebux/webbench/internal/types"
)

// Requester performs exactly one request against a target.
// Failures are reported inside the outcome, never as an error.
type Requester interface {
	Execute(ctx context.Context, target types.EndpointTarget) types.RequestOutcome
}

// Driver runs a fixed number of requests through a fixed pool of workers
type Driver struct {
	requester Requester
	observers observers
	logger    *slog.Logger
}

// DriverOption configures a Driver
type DriverOption func(*Driver)

// WithObserver registers an observer notified during every run
func WithObserver(o Observer) DriverOption {
	return func(d *Driver) {
		if o != nil {
			d.observers = append(d.observers, o)
		}
	}
}

// WithLogger sets the logger used for run lifecycle messages
func WithLogger(l *slog.Logger) DriverOption {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDriver creates a load driver around a requester
func NewDriver(requester Requester, opts ...DriverOption) *Driver {
	d := &Driver{
		requester: requester,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// slotCounter hands out request slots. Every slot is claimed exactly once.
type slotCounter struct {
	remaining atomic.Int64
}

func newSlotCounter(total int) *slotCounter {
	s := &slotCounter{}
	s.remaining.Store(int64(total))
	return s
}

// claim reserves one slot, false once all slots are taken
func (s *slotCounter) claim() bool {
	return s.remaining.Add(-1) >= 0
}

// Run issues cfg.TotalRequests requests to target with cfg.Concurrency
// requests in flight and returns every outcome in completion order.
//
// Canceling ctx does not stop the run early: unclaimed slots still produce
// (canceled) outcomes so the result always holds TotalRequests entries.
func (d *Driver) Run(ctx context.Context, framework string, target types.EndpointTarget, cfg types.BenchmarkConfig) (*types.RunResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if err := ValidateTarget(target); err != nil {
		return nil, err
	}

	workers := cfg.EffectiveConcurrency()

	var limiter *rate.Limiter
	if cfg.MaxRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRPS), 1)
	}

	d.logger.Info("starting benchmark",
		"framework", framework,
		"endpoint", target.Label,
		"url", target.URL(),
		"concurrency", cfg.Concurrency,
		"requests", cfg.TotalRequests,
	)
	d.observers.RunStarted(framework, target, cfg)

	slots := newSlotCounter(cfg.TotalRequests)
	results := make(chan types.RequestOutcome, workers*2)
	outcomes := make([]types.RequestOutcome, 0, cfg.TotalRequests)

	// Single collector: the only writer of outcomes
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for outcome := range results {
			outcomes = append(outcomes, outcome)
			d.observers.OutcomeRecorded(framework, target, outcome)
		}
	}()

	startedAt := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.worker(ctx, target, cfg, slots, limiter, results)
		}()
	}

	wg.Wait()
	totalTime := time.Since(startedAt)
	close(results)
	<-collectorDone

	result := &types.RunResult{
		Framework: framework,
		Endpoint:  target.Label,
		Target:    target,
		Config:    cfg,
		StartedAt: startedAt,
		TotalTime: totalTime,
		Outcomes:  outcomes,
	}

	failed := 0
	for _, o := range outcomes {
		if !o.Succeeded {
			failed++
		}
	}
	d.logger.Info("benchmark finished",
		"framework", framework,
		"endpoint", target.Label,
		"duration", totalTime,
		"failed", failed,
	)
	if err := ctx.Err(); err != nil {
		d.logger.Warn("benchmark context ended before completion", "framework", framework, "endpoint", target.Label, "error", err)
	}

	d.observers.RunFinished(result)
	return result, nil
}

// worker claims slots until none remain
func (d *Driver) worker(ctx context.Context, target types.EndpointTarget, cfg types.BenchmarkConfig, slots *slotCounter, limiter *rate.Limiter, results chan<- types.RequestOutcome) {
	for slots.claim() {
		if err := ctx.Err(); err != nil {
			results <- canceledOutcome(0, err)
			continue
		}

		if limiter != nil {
			waitStart := time.Now()
			if err := limiter.Wait(ctx); err != nil {
				results <- canceledOutcome(time.Since(waitStart), err)
				continue
			}
		}

		results <- d.execute(ctx, target, cfg.RequestTimeout)
	}
}

// execute runs one request and turns a panic into a failed outcome
func (d *Driver) execute(ctx context.Context, target types.EndpointTarget, timeout time.Duration) (outcome types.RequestOutcome) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("request panicked", "url", target.URL(), "panic", r)
			outcome = types.RequestOutcome{
				Latency:   time.Since(start),
				ErrorKind: types.ErrorKindPanic,
				Detail:    fmt.Sprintf("request panicked: %v", r),
			}
		}
	}()

	return d.requester.Execute(ctx, target)
}

func canceledOutcome(latency time.Duration, err error) types.RequestOutcome {
	return types.RequestOutcome{
		Latency:   latency,
		ErrorKind: types.ErrorKindCanceled,
		Detail:    err.Error(),
	}
}
