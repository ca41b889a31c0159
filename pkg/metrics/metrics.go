// Package metrics provides Prometheus metrics for the webhook pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eventflow_relay"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	registry *prometheus.Registry

	// Inbound
	WebhookEvents   *prometheus.CounterVec
	InvalidRequests *prometheus.CounterVec

	// Pipeline
	RecordsCreated          *prometheus.CounterVec
	RecordsAnalyzed         prometheus.Counter
	TranscriptionsDiscarded *prometheus.CounterVec
	StoreSkipped            *prometheus.CounterVec

	// Outbound
	OutboundFailures *prometheus.CounterVec
	OutboundLatency  *prometheus.HistogramVec
}

// New creates the metrics on a dedicated registry so several instances can coexist in tests.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		WebhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Total number of inbound webhook events by event type",
		}, []string{"event"}),
		InvalidRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_requests_total",
			Help:      "Total number of inbound webhooks that failed decoding",
		}, []string{"event", "kind"}),

		RecordsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_created_total",
			Help:      "Total number of transcript records created in the store",
		}, []string{"source"}),
		RecordsAnalyzed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_analyzed_total",
			Help:      "Total number of transcript records moved to analyzed",
		}),
		TranscriptionsDiscarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_discarded_total",
			Help:      "Total number of provider transcriptions dropped before storage",
		}, []string{"reason"}),
		StoreSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_skipped_total",
			Help:      "Total number of store writes that changed nothing, by operation and reason",
		}, []string{"operation", "reason"}),

		OutboundFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_failures_total",
			Help:      "Total number of failed calls to third-party APIs",
		}, []string{"target", "operation"}),
		OutboundLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbound_latency_seconds",
			Help:      "Latency of calls to third-party APIs in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"target", "operation"}),
	}
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordWebhook records an inbound webhook event.
func (m *Metrics) RecordWebhook(event string) {
	m.WebhookEvents.WithLabelValues(event).Inc()
}

// RecordInvalidRequest records a webhook whose form fields failed decoding.
func (m *Metrics) RecordInvalidRequest(event, kind string) {
	m.InvalidRequests.WithLabelValues(event, kind).Inc()
}

// RecordCreated records a transcript record created in the store.
func (m *Metrics) RecordCreated(source string) {
	m.RecordsCreated.WithLabelValues(source).Inc()
}

// RecordAnalyzed records a transcript record moved to analyzed.
func (m *Metrics) RecordAnalyzed() {
	m.RecordsAnalyzed.Inc()
}

// RecordDiscarded records a transcription dropped before storage.
func (m *Metrics) RecordDiscarded(reason string) {
	m.TranscriptionsDiscarded.WithLabelValues(reason).Inc()
}

// RecordStoreSkipped records a store write that was not applied.
func (m *Metrics) RecordStoreSkipped(operation, reason string) {
	m.StoreSkipped.WithLabelValues(operation, reason).Inc()
}

// RecordOutbound records a third-party call and its outcome.
func (m *Metrics) RecordOutbound(target, operation string, err error, latencySeconds float64) {
	m.OutboundLatency.WithLabelValues(target, operation).Observe(latencySeconds)
	if err != nil {
		m.OutboundFailures.WithLabelValues(target, operation).Inc()
	}
}
