package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	cronResultOK     = "ok"
	cronResultFailed = "failed"
)

// CronJobMetrics covers the cron-worker cycle: per-job runs, latency and the
// time of the last clean run, plus cycles skipped because another replica
// held the lock.
type CronJobMetrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	skipped     prometheus.Counter
}

// NewCronJobMetrics registers the cron job metrics on the provided registerer.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bazaarlink_cron_job_runs_total",
			Help: "Cron job executions by job and result.",
		}, []string{"job", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "bazaarlink_cron_job_duration_seconds",
			Help: "Cron job latency in seconds.",
			// expiry and reconcile sweeps over large tables run for minutes
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 180, 600},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bazaarlink_cron_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per job.",
		}, []string{"job"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bazaarlink_cron_cycles_skipped_total",
			Help: "Cron cycles skipped because the advisory lock was held elsewhere.",
		}),
	}
	reg.MustRegister(m.runs, m.duration, m.lastSuccess, m.skipped)
	return m
}

// ObserveRun records one job execution finishing at finished.
func (c *CronJobMetrics) ObserveRun(job string, duration time.Duration, finished time.Time, err error) {
	if c == nil || c.runs == nil {
		return
	}
	job = normalizeLabel(job)
	c.duration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		c.runs.WithLabelValues(job, cronResultFailed).Inc()
		return
	}
	c.runs.WithLabelValues(job, cronResultOK).Inc()
	c.lastSuccess.WithLabelValues(job).Set(float64(finished.Unix()))
}

// IncSkippedCycle counts a cycle that lost the lock race.
func (c *CronJobMetrics) IncSkippedCycle() {
	if c == nil || c.skipped == nil {
		return
	}
	c.skipped.Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
