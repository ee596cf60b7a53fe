// Package metrics exposes the Prometheus counters/histograms named in
// §9's "metrics accumulator" global state. Aggregation and alerting are
// external; this package only emits events and serves /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ariadne_rebuilds_total",
			Help: "Total number of shadow rebuilds by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	RebuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ariadne_rebuild_duration_seconds",
			Help:    "Shadow rebuild duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	JobTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ariadne_job_transitions_total",
			Help: "Total number of job status transitions",
		},
		[]string{"to_status"},
	)

	SummarizerOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ariadne_summarizer_outcomes_total",
			Help: "Total number of per-symbol summarizer outcomes",
		},
		[]string{"outcome"}, // success|failed|skipped
	)

	DualWriteOrphansTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ariadne_dualwrite_orphans_total",
			Help: "Total number of dual-write orphans detected",
		},
	)

	DualWriteRecoveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ariadne_dualwrite_recovered_total",
			Help: "Total number of dual-write orphans successfully recovered",
		},
	)

	IncrementalRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ariadne_incremental_run_duration_seconds",
			Help:    "Incremental summarization run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ariadne_api_requests_total",
			Help: "Total number of API requests by route and status",
		},
		[]string{"route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ariadne_api_request_duration_seconds",
			Help:    "API request duration in seconds by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(
		RebuildsTotal,
		RebuildDuration,
		JobTransitionsTotal,
		SummarizerOutcomesTotal,
		DualWriteOrphansTotal,
		DualWriteRecoveredTotal,
		IncrementalRunDuration,
		APIRequestsTotal,
		APIRequestDuration,
	)
}

// Handler returns the Prometheus scrape handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer times one operation for later histogram observation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records elapsed time to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records elapsed time to a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
