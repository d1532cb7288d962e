/*
Package types defines the data model shared by the benchmark harness.

# Targets

EndpointTarget:
  - Base URL of one server plus path and method
  - Optional body sent verbatim with every request
  - No knowledge of which framework answers it

# Run data

BenchmarkConfig:
  - Concurrency and total request budget
  - Optional per-request timeout and rate cap
  - Copied by value into each run

RequestOutcome:
  - Success flag and latency of one request
  - Status code when a response arrived
  - ErrorKind when the request failed below HTTP

RunResult:
  - All outcomes of one run in completion order
  - Wall time of the whole run

# Derived data

AggregatedStats and ComparisonReport are recomputed from RunResults and are
never the source of truth. Numbers keep full precision until rendering.
*/
package types
