package recorder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vozsegura/pkg/platform/audit"
)

// Metrics holds Prometheus metrics for audit recording.
type Metrics struct {
	EventsRecorded  *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	PersistDuration prometheus.Histogram
}

// NewMetrics creates and registers audit recorder metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		EventsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vozsegura_audit_events_recorded_total",
			Help: "Total number of audit events persisted by category",
		}, []string{"category"}),
		PersistFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vozsegura_audit_persist_failures_total",
			Help: "Total number of audit persistence failures by mode",
		}, []string{"mode"}),
		PersistDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vozsegura_audit_persist_duration_seconds",
			Help:    "Duration of audit event persistence",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

func (m *Metrics) IncEventsRecorded(category audit.EventCategory) {
	if m != nil {
		m.EventsRecorded.WithLabelValues(string(category)).Inc()
	}
}

func (m *Metrics) IncPersistFailures(mode audit.Mode) {
	if m != nil {
		m.PersistFailures.WithLabelValues(mode.String()).Inc()
	}
}

func (m *Metrics) ObservePersistDuration(seconds float64) {
	if m != nil {
		m.PersistDuration.Observe(seconds)
	}
}
