package worker

import (
	"feed-scraper/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics embeds the worker_config_* metrics and adds cycle metrics:
//   - worker_cron_job_runs_total{status}: success, failure or skipped
//   - worker_cron_job_duration_seconds
//   - worker_cron_job_feeds_processed_total
//   - worker_cron_job_entries_ingested_total
//   - worker_cron_job_feed_failures_total{reason}: fetch, parse or error
//   - worker_cron_job_last_success_timestamp
type WorkerMetrics struct {
	*config.ConfigMetrics

	CronJobRunsTotal            *prometheus.CounterVec
	CronJobDurationSeconds      prometheus.Histogram
	CronJobFeedsProcessedTotal  prometheus.Counter
	CronJobEntriesIngestedTotal prometheus.Counter
	CronJobFeedFailuresTotal    *prometheus.CounterVec
	CronJobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers on the default registry. Call it once per process.
func NewWorkerMetrics() *WorkerMetrics {
	return NewWorkerMetricsWith(prometheus.DefaultRegisterer)
}

// NewWorkerMetricsWith registers on reg.
func NewWorkerMetricsWith(reg prometheus.Registerer) *WorkerMetrics {
	f := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "worker"),

		CronJobRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of cron job runs by status (success/failure/skipped)",
		}, []string{"status"}),

		CronJobDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of cron job execution in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800, 3000},
		}),

		CronJobFeedsProcessedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "worker_cron_job_feeds_processed_total",
			Help: "Total number of feeds processed across all cron job runs",
		}),

		CronJobEntriesIngestedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "worker_cron_job_entries_ingested_total",
			Help: "Total number of entries stored across all cron job runs",
		}),

		CronJobFeedFailuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_feed_failures_total",
			Help: "Total number of failed feeds by reason (fetch/parse/error)",
		}, []string{"reason"}),

		CronJobLastSuccessTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful cron job run",
		}),
	}
}

// RecordJobRun increments the run counter. status: "success", "failure" or "skipped".
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.CronJobRunsTotal.WithLabelValues(status).Inc()
}

func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.CronJobDurationSeconds.Observe(seconds)
}

func (m *WorkerMetrics) RecordFeedsProcessed(count int) {
	m.CronJobFeedsProcessedTotal.Add(float64(count))
}

func (m *WorkerMetrics) RecordEntriesIngested(count int) {
	m.CronJobEntriesIngestedTotal.Add(float64(count))
}

// RecordFeedFailures adds n failures for reason; n <= 0 is ignored.
func (m *WorkerMetrics) RecordFeedFailures(reason string, n int) {
	if n > 0 {
		m.CronJobFeedFailuresTotal.WithLabelValues(reason).Add(float64(n))
	}
}

func (m *WorkerMetrics) RecordLastSuccess() {
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}
