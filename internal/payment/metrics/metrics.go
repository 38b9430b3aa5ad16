package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for payment intake.
type Metrics struct {
	// Gateway call latency by operation and outcome
	GatewayLatency *prometheus.HistogramVec

	// Orders created by method ("pix", "card") and outcome
	PaymentsCreated *prometheus.CounterVec

	// Webhook notifications by outcome
	WebhookOutcome *prometheus.CounterVec
}

// New registers the payment metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		GatewayLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "enroll_gateway_request_duration_seconds",
			Help:    "Duration of payment gateway calls by operation and outcome",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation", "outcome"}), // outcome: "ok", "error", "timeout", "short_circuit"

		PaymentsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "enroll_payments_created_total",
			Help: "Payment orders requested from the gateway by method and outcome",
		}, []string{"method", "outcome"}),

		WebhookOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "enroll_webhook_notifications_total",
			Help: "Gateway notifications received by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveGatewayLatency(operation, outcome string, d time.Duration) {
	if m != nil {
		m.GatewayLatency.WithLabelValues(operation, outcome).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementPaymentsCreated(method, outcome string) {
	if m != nil {
		m.PaymentsCreated.WithLabelValues(method, outcome).Inc()
	}
}

func (m *Metrics) IncrementWebhookOutcome(outcome string) {
	if m != nil {
		m.WebhookOutcome.WithLabelValues(outcome).Inc()
	}
}
