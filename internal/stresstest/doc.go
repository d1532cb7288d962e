/*
Package stresstest drives fixed-size HTTP load against a single endpoint and
summarizes the result.

# Overview

A run issues exactly TotalRequests requests with Concurrency requests in
flight. Every attempted request yields one outcome, including requests that
failed at the transport level or panicked.

# Architecture

The package consists of five components:

1. Config (config.go): validation and sentinel errors
2. Driver (driver.go): the worker pool
3. Stats (stats.go): aggregation of a finished run
4. Observers (observer.go, progress.go): run lifecycle hooks and the progress bar
5. Manager (manager.go): SQLite persistence of runs and outcomes

# Driver Design

The Driver uses a worker pool pattern:
  - min(Concurrency, TotalRequests) workers
  - a shared slot counter, claimed with an atomic decrement
  - a result channel drained by a single collector goroutine
  - an optional token bucket limiting the issue rate

Worker lifecycle:
  1. Claim a slot; stop when none remain
  2. Wait for the rate limiter if one is configured
  3. Execute the request, recovering from panics
  4. Send the outcome to the collector

Context cancellation does not end a run early. Slots claimed after
cancellation produce canceled outcomes without touching the network, so a
result always carries TotalRequests outcomes.

# Aggregation

Aggregate derives the comparison numbers from a RunResult:
  - total_time_ms: wall time of the run
  - avg_response_time_ms: mean latency of all outcomes, failures included
  - requests_per_second: TotalRequests / total time in seconds, 0 if no time elapsed
  - success_rate_pct: successful outcomes / TotalRequests * 100

Min, max and p50/p95/p99 latencies come from an HDR histogram, so the order of
outcomes never affects the result. Values keep full precision.

# Persistence

Manager stores the run header and the raw outcomes. Statistics are never
stored; history views recompute them with Aggregate.

# Usage Example

	client := executor.New(executor.Options{PoolSize: 50})
	driver := stresstest.NewDriver(client, stresstest.WithObserver(stresstest.NewProgressObserver(os.Stderr)))

	result, err := driver.Run(ctx, "Axum", target, types.BenchmarkConfig{Concurrency: 50, TotalRequests: 500})
	if err != nil {
		return err
	}
	stats, err := stresstest.Aggregate(result)
*/
package stresstest
