package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded by the outbox publisher.
const (
	PublishOutcomePublished    = "published"
	PublishOutcomeDuplicate    = "duplicate"
	PublishOutcomeRetry        = "retry"
	PublishOutcomeDeadLettered = "dead_lettered"
	PublishOutcomeDeferred     = "deferred"
)

// OutboxMetrics records what the publisher does with each outbox row.
type OutboxMetrics struct {
	events  *prometheus.CounterVec
	latency *prometheus.HistogramVec
	batches prometheus.Histogram
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_total",
		Help: "Outbox rows handled by the publisher, by event type and outcome.",
	}, []string{"event_type", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_publish_lag_seconds",
		Help:    "Time between an outbox row being written and it being published.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 15, 60, 300, 1800},
	}, []string{"event_type"})
	batches := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbox_batch_size",
		Help:    "Rows fetched per publisher batch.",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})
	reg.MustRegister(events, latency, batches)
	return &OutboxMetrics{events: events, latency: latency, batches: batches}
}

// ObserveEvent counts one row. Lag is only recorded for published rows.
func (o *OutboxMetrics) ObserveEvent(eventType, outcome string, createdAt time.Time) {
	if o == nil || o.events == nil {
		return
	}
	o.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
	if outcome == PublishOutcomePublished && !createdAt.IsZero() {
		o.latency.WithLabelValues(normalizeLabel(eventType)).Observe(time.Since(createdAt).Seconds())
	}
}

func (o *OutboxMetrics) ObserveBatch(size int) {
	if o == nil || o.batches == nil {
		return
	}
	o.batches.Observe(float64(size))
}
