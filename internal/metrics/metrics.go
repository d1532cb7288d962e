package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/studiowebux/webbench/internal/types"
)

const namespace = "webbench"

// Collector exposes live benchmark progress as Prometheus metrics.
// It implements the load driver's observer interface.
type Collector struct {
	registry *prometheus.Registry

	// Benchmark metrics
	RunsTotal      *prometheus.CounterVec
	OutcomesTotal  *prometheus.CounterVec
	ErrorsTotal    *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
	ActiveWorkers  *prometheus.GaugeVec
	RunDuration    *prometheus.GaugeVec

	// Stub target metrics
	ServedRequestsTotal   *prometheus.CounterVec
	ServedRequestDuration *prometheus.HistogramVec
}

// NewCollector creates all metrics on a private registry
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of benchmark runs started",
		},
		[]string{"framework", "endpoint"},
	)

	c.OutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_outcomes_total",
			Help:      "Total number of request outcomes by result",
		},
		[]string{"framework", "endpoint", "result"},
	)

	c.ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_errors_total",
			Help:      "Total number of transport level failures by kind",
		},
		[]string{"framework", "endpoint", "kind"},
	)

	c.RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of benchmark requests in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		},
		[]string{"framework", "endpoint"},
	)

	c.ActiveWorkers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_workers",
			Help:      "Number of workers of the run in progress",
		},
		[]string{"framework", "endpoint"},
	)

	c.RunDuration = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last finished run",
		},
		[]string{"framework", "endpoint"},
	)

	c.ServedRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stub",
			Name:      "requests_total",
			Help:      "Total number of requests served by the stub target",
		},
		[]string{"method", "path", "status"},
	)

	c.ServedRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stub",
			Name:      "request_duration_seconds",
			Help:      "Duration of requests served by the stub target in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.registry.MustRegister(
		c.RunsTotal,
		c.OutcomesTotal,
		c.ErrorsTotal,
		c.RequestLatency,
		c.ActiveWorkers,
		c.RunDuration,
		c.ServedRequestsTotal,
		c.ServedRequestDuration,
	)

	return c
}

// Registry returns the private registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the Prometheus HTTP handler for this collector
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RunStarted(framework string, target types.EndpointTarget, cfg types.BenchmarkConfig) {
	c.RunsTotal.WithLabelValues(framework, target.Label).Inc()
	c.ActiveWorkers.WithLabelValues(framework, target.Label).Set(float64(cfg.EffectiveConcurrency()))
}

func (c *Collector) OutcomeRecorded(framework string, target types.EndpointTarget, outcome types.RequestOutcome) {
	result := "success"
	if !outcome.Succeeded {
		result = "failure"
	}
	c.OutcomesTotal.WithLabelValues(framework, target.Label, result).Inc()
	c.RequestLatency.WithLabelValues(framework, target.Label).Observe(outcome.Latency.Seconds())
	if outcome.ErrorKind != types.ErrorKindNone {
		c.ErrorsTotal.WithLabelValues(framework, target.Label, string(outcome.ErrorKind)).Inc()
	}
}

func (c *Collector) RunFinished(result *types.RunResult) {
	c.ActiveWorkers.WithLabelValues(result.Framework, result.Endpoint).Set(0)
	c.RunDuration.WithLabelValues(result.Framework, result.Endpoint).Set(result.TotalTime.Seconds())
}

// Middleware for tracking requests served by the stub target
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		c.ServedRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rw.statusCode)).Inc()
		c.ServedRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// responseWriter is a wrapper to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
