package types

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// EndpointTarget is one benchmarkable operation against one server
type EndpointTarget struct {
	Label   string            `json:"label" yaml:"label"`                         // Endpoint label shown in reports ("Health Check")
	BaseURL string            `json:"baseUrl" yaml:"baseUrl"`                     // Server root, e.g. http://localhost:3000
	Path    string            `json:"path" yaml:"path"`                           // Request path, e.g. /health
	Method  string            `json:"method" yaml:"method"`                       // HTTP method
	Body    string            `json:"body,omitempty" yaml:"body,omitempty"`       // Request body sent verbatim with every request
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"` // Extra request headers
}

// URL returns the absolute request URL for the target
func (t EndpointTarget) URL() string {
	base := strings.TrimRight(t.BaseURL, "/")
	if t.Path == "" {
		return base
	}
	if !strings.HasPrefix(t.Path, "/") {
		return base + "/" + t.Path
	}
	return base + t.Path
}

// MethodOrDefault returns the configured method, GET when unset
func (t EndpointTarget) MethodOrDefault() string {
	if t.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(t.Method)
}

func (t EndpointTarget) String() string {
	return fmt.Sprintf("%s %s", t.MethodOrDefault(), t.URL())
}

// BenchmarkConfig holds the load parameters of a single run.
// It is passed by value so a run owns its own copy.
type BenchmarkConfig struct {
	Concurrency    int           `json:"concurrency" yaml:"concurrency"`
	TotalRequests  int           `json:"totalRequests" yaml:"totalRequests"`
	RequestTimeout time.Duration `json:"requestTimeout,omitempty" yaml:"requestTimeout,omitempty"` // 0 = executor default
	MaxRPS         float64       `json:"maxRps,omitempty" yaml:"maxRps,omitempty"`                 // 0 = unlimited
}

// EffectiveConcurrency returns the number of workers actually needed
func (c BenchmarkConfig) EffectiveConcurrency() int {
	if c.Concurrency > c.TotalRequests {
		return c.TotalRequests
	}
	return c.Concurrency
}

// ErrorKind classifies a request that failed below the HTTP layer
type ErrorKind string

const (
	ErrorKindNone              ErrorKind = ""
	ErrorKindTimeout           ErrorKind = "timeout"
	ErrorKindConnectionRefused ErrorKind = "connection_refused"
	ErrorKindConnectionReset   ErrorKind = "connection_reset"
	ErrorKindDNS               ErrorKind = "dns"
	ErrorKindTLS               ErrorKind = "tls"
	ErrorKindCanceled          ErrorKind = "canceled"
	ErrorKindInvalidRequest    ErrorKind = "invalid_request"
	ErrorKindTransport         ErrorKind = "transport"
	ErrorKindPanic             ErrorKind = "panic"
)

// RequestOutcome is the result of one attempted request
type RequestOutcome struct {
	Succeeded  bool          `json:"succeeded" yaml:"succeeded"`
	StatusCode int           `json:"statusCode,omitempty" yaml:"statusCode,omitempty"` // 0 when no response was received
	Latency    time.Duration `json:"latency" yaml:"latency"`
	ErrorKind  ErrorKind     `json:"errorKind,omitempty" yaml:"errorKind,omitempty"`
	Detail     string        `json:"detail,omitempty" yaml:"detail,omitempty"` // Diagnostic text, never used in statistics
}

// HasStatus reports whether a response status was received
func (o RequestOutcome) HasStatus() bool {
	return o.StatusCode != 0
}

// RunResult is everything one Load Driver invocation produced
type RunResult struct {
	Framework string           `json:"framework" yaml:"framework"`
	Endpoint  string           `json:"endpoint" yaml:"endpoint"`
	Target    EndpointTarget   `json:"target" yaml:"target"`
	Config    BenchmarkConfig  `json:"config" yaml:"config"`
	StartedAt time.Time        `json:"startedAt" yaml:"startedAt"`
	TotalTime time.Duration    `json:"totalTime" yaml:"totalTime"`
	Outcomes  []RequestOutcome `json:"outcomes" yaml:"outcomes"` // Completion order
}

// AggregatedStats is the summary derived from a RunResult.
// Values keep full precision; rounding is a rendering concern.
type AggregatedStats struct {
	Framework         string  `json:"framework" yaml:"framework"`
	Endpoint          string  `json:"endpoint" yaml:"endpoint"`
	TotalRequests     int     `json:"total_requests" yaml:"total_requests"`
	Concurrency       int     `json:"concurrency" yaml:"concurrency"`
	TotalTimeMs       float64 `json:"total_time_ms" yaml:"total_time_ms"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms" yaml:"avg_response_time_ms"`
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	SuccessRatePct    float64 `json:"success_rate_pct" yaml:"success_rate_pct"`

	Succeeded   int               `json:"succeeded" yaml:"succeeded"`
	Failed      int               `json:"failed" yaml:"failed"`
	MinMs       float64           `json:"min_ms" yaml:"min_ms"`
	MaxMs       float64           `json:"max_ms" yaml:"max_ms"`
	P50Ms       float64           `json:"p50_ms" yaml:"p50_ms"`
	P95Ms       float64           `json:"p95_ms" yaml:"p95_ms"`
	P99Ms       float64           `json:"p99_ms" yaml:"p99_ms"`
	StatusCodes map[int]int       `json:"status_codes,omitempty" yaml:"status_codes,omitempty"`
	ErrorKinds  map[ErrorKind]int `json:"error_kinds,omitempty" yaml:"error_kinds,omitempty"`
}

// ComparisonReport holds one row per benchmarked (framework, endpoint) pair
// in the order the runs were made.
type ComparisonReport struct {
	Rows []AggregatedStats `json:"rows" yaml:"rows"`
}

// Append adds rows keeping insertion order
func (r *ComparisonReport) Append(rows ...AggregatedStats) {
	r.Rows = append(r.Rows, rows...)
}

// Len returns the number of rows
func (r *ComparisonReport) Len() int {
	return len(r.Rows)
}
