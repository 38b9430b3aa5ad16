package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide Prometheus metrics.
type Metrics struct {
	EndpointLatency        *prometheus.HistogramVec
	RegistrationsCreated   prometheus.Counter
	InstallmentsMarked     *prometheus.CounterVec
	ReconcileRuns          *prometheus.CounterVec
	ReconcileFieldsWritten prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on reg, so tests can use a private registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "enroll_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		RegistrationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "enroll_registrations_created_total",
			Help: "Total number of registrants created",
		}),
		InstallmentsMarked: f.NewCounterVec(prometheus.CounterOpts{
			Name: "enroll_installments_marked_paid_total",
			Help: "Installment slots newly marked paid, by source",
		}, []string{"source"}),
		ReconcileRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "enroll_reconcile_runs_total",
			Help: "Full reconciliation sweeps, by outcome",
		}, []string{"outcome"}),
		ReconcileFieldsWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "enroll_reconcile_fields_written_total",
			Help: "Aggregate fields rewritten by reconciliation",
		}),
	}
}

func (m *Metrics) ObserveEndpointLatency(route string, seconds float64) {
	m.EndpointLatency.WithLabelValues(route).Observe(seconds)
}

func (m *Metrics) IncrementRegistrationsCreated() {
	m.RegistrationsCreated.Inc()
}

// IncrementInstallmentsMarked counts slots that changed from unpaid to paid.
func (m *Metrics) IncrementInstallmentsMarked(source string, n int) {
	if n > 0 {
		m.InstallmentsMarked.WithLabelValues(source).Add(float64(n))
	}
}

func (m *Metrics) ObserveReconcile(outcome string, fieldsWritten int) {
	m.ReconcileRuns.WithLabelValues(outcome).Inc()
	m.ReconcileFieldsWritten.Add(float64(fieldsWritten))
}
