package stresstest

import (
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/studiowebux/webbench/internal/types"
)

const (
	// Latency histogram bounds in microseconds
	histogramMinMicros = 1
	histogramMaxMicros = int64(10 * time.Minute / time.Microsecond)
	histogramSigFigs   = 3
)

// Stats accumulates outcomes with order-independent reductions only
type Stats struct {
	Completed    int
	Succeeded    int
	TotalLatency time.Duration
	MinLatency   time.Duration
	MaxLatency   time.Duration
	StatusCodes  map[int]int
	ErrorKinds   map[types.ErrorKind]int
	histogram    *hdrhistogram.Histogram
}

// NewStats creates an empty accumulator
func NewStats() *Stats {
	return &Stats{
		MinLatency:  -1,
		StatusCodes: make(map[int]int),
		ErrorKinds:  make(map[types.ErrorKind]int),
		histogram:   hdrhistogram.New(histogramMinMicros, histogramMaxMicros, histogramSigFigs),
	}
}

// Add records one outcome
func (s *Stats) Add(o types.RequestOutcome) {
	s.Completed++
	if o.Succeeded {
		s.Succeeded++
	}
	s.TotalLatency += o.Latency

	if s.MinLatency < 0 || o.Latency < s.MinLatency {
		s.MinLatency = o.Latency
	}
	if o.Latency > s.MaxLatency {
		s.MaxLatency = o.Latency
	}

	if o.HasStatus() {
		s.StatusCodes[o.StatusCode]++
	}
	if o.ErrorKind != types.ErrorKindNone {
		s.ErrorKinds[o.ErrorKind]++
	}

	micros := o.Latency.Microseconds()
	if micros < histogramMinMicros {
		micros = histogramMinMicros
	}
	if micros > histogramMaxMicros {
		micros = histogramMaxMicros
	}
	// Values are clamped into range so recording cannot fail
	_ = s.histogram.RecordValue(micros)
}

// Min returns the fastest latency, or 0 if nothing was recorded
func (s *Stats) Min() time.Duration {
	if s.MinLatency < 0 {
		return 0
	}
	return s.MinLatency
}

// AvgLatency returns the mean latency of every recorded outcome
func (s *Stats) AvgLatency() time.Duration {
	if s.Completed == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.Completed)
}

// PercentileMs returns the p-th percentile (0-100) in milliseconds
func (s *Stats) PercentileMs(p float64) float64 {
	if s.Completed == 0 {
		return 0
	}
	return float64(s.histogram.ValueAtQuantile(p)) / 1000
}

// Aggregate summarizes a run. It only uses commutative reductions so the
// order of Outcomes never changes the result.
func Aggregate(result *types.RunResult) (types.AggregatedStats, error) {
	if result == nil {
		return types.AggregatedStats{}, fmt.Errorf("%w: no run result", ErrAggregation)
	}
	total := result.Config.TotalRequests
	if total <= 0 {
		return types.AggregatedStats{}, fmt.Errorf("%w: run of %s %s has zero total requests", ErrAggregation, result.Framework, result.Endpoint)
	}
	if len(result.Outcomes) == 0 {
		return types.AggregatedStats{}, fmt.Errorf("%w: run of %s %s has no outcomes", ErrAggregation, result.Framework, result.Endpoint)
	}
	if len(result.Outcomes) > total {
		return types.AggregatedStats{}, fmt.Errorf("%w: run of %s %s has %d outcomes for %d requests",
			ErrAggregation, result.Framework, result.Endpoint, len(result.Outcomes), total)
	}

	stats := NewStats()
	for _, o := range result.Outcomes {
		stats.Add(o)
	}

	totalTimeMs := durationMs(result.TotalTime)
	rps := 0.0
	if result.TotalTime > 0 {
		rps = float64(total) / result.TotalTime.Seconds()
	}

	return types.AggregatedStats{
		Framework:         result.Framework,
		Endpoint:          result.Endpoint,
		TotalRequests:     total,
		Concurrency:       result.Config.Concurrency,
		TotalTimeMs:       totalTimeMs,
		AvgResponseTimeMs: durationMs(stats.TotalLatency) / float64(stats.Completed),
		RequestsPerSecond: rps,
		SuccessRatePct:    float64(stats.Succeeded) / float64(total) * 100,
		Succeeded:         stats.Succeeded,
		Failed:            total - stats.Succeeded,
		MinMs:             durationMs(stats.Min()),
		MaxMs:             durationMs(stats.MaxLatency),
		P50Ms:             stats.PercentileMs(50),
		P95Ms:             stats.PercentileMs(95),
		P99Ms:             stats.PercentileMs(99),
		StatusCodes:       stats.StatusCodes,
		ErrorKinds:        stats.ErrorKinds,
	}, nil
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
