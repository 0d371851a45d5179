package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the derivation module.
type Metrics struct {
	// Derivation outcomes by reason code ("DERIVED" on success)
	DerivationOutcome *prometheus.CounterVec

	// Full Derive latency including delivery
	DeriveLatency prometheus.Histogram

	// Delivery latency by destination code and result class
	DeliveryLatency *prometheus.HistogramVec

	// Policy cache lookups by kind ("effective", "rules") and result
	CacheLookups *prometheus.CounterVec

	// Administrative changes to the rule set
	AdminChanges *prometheus.CounterVec
}

// New creates a new Metrics instance with all derivation metrics registered.
func New() *Metrics {
	return &Metrics{
		DerivationOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vozsegura_derivation_outcomes_total",
			Help: "Total derivation attempts by outcome",
		}, []string{"outcome"}),

		DeriveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vozsegura_derivation_duration_seconds",
			Help:    "Duration of a derivation attempt including delivery",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		DeliveryLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vozsegura_delivery_duration_seconds",
			Help:    "Duration of delivery calls to destination authorities",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"destination", "result"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vozsegura_policy_cache_lookups_total",
			Help: "Policy cache lookups by kind and result",
		}, []string{"kind", "result"}), // result: "hit", "miss", "error"

		AdminChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vozsegura_policy_admin_changes_total",
			Help: "Administrative rule set changes by event type",
		}, []string{"event"}),
	}
}

func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.DerivationOutcome.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveDeriveLatency(d time.Duration) {
	if m != nil {
		m.DeriveLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveDeliveryLatency(destination, result string, d time.Duration) {
	if m != nil {
		m.DeliveryLatency.WithLabelValues(destination, result).Observe(d.Seconds())
	}
}

func (m *Metrics) RecordCacheLookup(kind, result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(kind, result).Inc()
	}
}

func (m *Metrics) IncrementAdminChange(event string) {
	if m != nil {
		m.AdminChanges.WithLabelValues(event).Inc()
	}
}
