package worker

import (
	"feedient/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics are the poll worker's job level collectors plus the
// worker_config_* set from ConfigMetrics. Per-account and per-provider
// numbers live in internal/observability/metrics.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// JobRunsTotal counts cron runs by status: started, success, failure, skipped.
	JobRunsTotal *prometheus.CounterVec
	// JobDurationSeconds is the wall time of a poll cycle.
	JobDurationSeconds prometheus.Histogram
	// AccountsPolledTotal counts linked accounts visited by successful runs.
	AccountsPolledTotal prometheus.Counter
	// LastSuccessTimestamp is the Unix time of the last successful run.
	LastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers the collectors on the default registry.
func NewWorkerMetrics() *WorkerMetrics {
	return NewWorkerMetricsWith(prometheus.DefaultRegisterer)
}

// NewWorkerMetricsWith registers the collectors on reg.
func NewWorkerMetricsWith(reg prometheus.Registerer) *WorkerMetrics {
	f := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "worker"),

		JobRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_poll_job_runs_total",
			Help: "Poll job runs by status.",
		}, []string{"status"}),

		JobDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_poll_job_duration_seconds",
			Help:    "Wall time of a poll job.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		AccountsPolledTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "worker_poll_job_accounts_total",
			Help: "Linked accounts visited by poll jobs.",
		}),

		LastSuccessTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "worker_poll_job_last_success_timestamp",
			Help: "Unix time of the last successful poll job.",
		}),
	}
}

// RecordJobRun counts a run with status.
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.JobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes a run's duration in seconds.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.JobDurationSeconds.Observe(seconds)
}

// RecordAccountsPolled adds count visited accounts.
func (m *WorkerMetrics) RecordAccountsPolled(count int) {
	m.AccountsPolledTotal.Add(float64(count))
}

// RecordLastSuccess stamps the current time.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.LastSuccessTimestamp.SetToCurrentTime()
}
