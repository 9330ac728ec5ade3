package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outbox dispatch outcomes.
const (
	OutboxPublished    = "published"
	OutboxRetry        = "retry"
	OutboxDeadLettered = "dead_lettered"
	OutboxHeldBack     = "held_back"
)

// OutboxMetrics tracks the outbox publisher: per-event outcomes and how long
// events waited between commit and publish.
type OutboxMetrics struct {
	outcomes *prometheus.CounterVec
	lag      *prometheus.HistogramVec
}

// NewOutboxMetrics registers the outbox metrics on reg.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	m := &OutboxMetrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bazaarlink_outbox_events_total",
			Help: "Outbox events handled by the publisher, by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		lag: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bazaarlink_outbox_publish_lag_seconds",
			Help:    "Time from outbox insert to successful publish.",
			Buckets: []float64{0.1, 0.5, 1, 5, 30, 120, 600, 3600},
		}, []string{"event_type"}),
	}
	reg.MustRegister(m.outcomes, m.lag)
	return m
}

// Observe counts one dispatch outcome for eventType.
func (m *OutboxMetrics) Observe(eventType, outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(eventType), outcome).Inc()
}

// ObserveLag records the commit-to-publish delay of a published event.
func (m *OutboxMetrics) ObserveLag(eventType string, lag time.Duration) {
	if m == nil || m.lag == nil || lag < 0 {
		return
	}
	m.lag.WithLabelValues(normalizeLabel(eventType)).Observe(lag.Seconds())
}
