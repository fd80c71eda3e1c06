package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the transcript registry.
// Tracks operation outcomes and durations, the active binding count,
// cache effectiveness and event relay progress.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	MintedTokens      prometheus.Gauge
	CacheLookups      *prometheus.CounterVec
	EventsPublished   prometheus.Counter
	PublishFailures   prometheus.Counter
	PendingEvents     prometheus.Gauge
}

// New creates the registry metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "transcript_registry_operations_total",
			Help: "Registry operations by operation and outcome (ok, a rejection kind, or error)",
		}, []string{"op", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "transcript_registry_operation_duration_seconds",
			Help:    "Duration of registry operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"}),
		MintedTokens: factory.NewGauge(prometheus.GaugeOpts{
			Name: "transcript_registry_minted_tokens",
			Help: "Current number of active bindings",
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "transcript_registry_cache_lookups_total",
			Help: "Hash cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "transcript_registry_events_published_total",
			Help: "Registry events delivered to the message broker",
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "transcript_registry_event_publish_failures_total",
			Help: "Failed relay attempts; events are retried on the next tick",
		}),
		PendingEvents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "transcript_registry_events_pending",
			Help: "Unpublished events seen by the last relay pass",
		}),
	}
}

// ObserveOperation records the outcome and duration of one operation.
// Call with time.Now() taken at the start of the operation.
func (m *Metrics) ObserveOperation(op, outcome string, start time.Time) {
	m.Operations.WithLabelValues(op, outcome).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// SetMinted replaces the gauge with a count read from the store.
func (m *Metrics) SetMinted(count uint64) {
	m.MintedTokens.Set(float64(count))
}

func (m *Metrics) RecordCacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) AddPublished(n int) {
	m.EventsPublished.Add(float64(n))
}

func (m *Metrics) IncPublishFailures() {
	m.PublishFailures.Inc()
}

func (m *Metrics) SetPending(n int) {
	m.PendingEvents.Set(float64(n))
}
