package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the payment recorders.
const (
	OutcomeSuccess   = "success"
	OutcomeDeclined  = "declined"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
	OutcomeDuplicate = "duplicate"
	OutcomeStale     = "stale"
	OutcomeApplied   = "applied"
)

// PaymentMetrics records payment initiation, webhook reconciliation, refunds
// and provider latency.
type PaymentMetrics struct {
	initiated *prometheus.CounterVec
	webhooks  *prometheus.CounterVec
	refunds   *prometheus.CounterVec
	provider  *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
// A nil registerer yields a recorder that drops everything.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	initiated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_initiated_total",
		Help: "Payment initiation attempts by method and outcome.",
	}, []string{"method", "outcome"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Provider webhook deliveries by outcome.",
	}, []string{"outcome"})
	refunds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "refunds_total",
		Help: "Refund attempts by outcome.",
	}, []string{"outcome"})
	provider := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "provider_request_duration_seconds",
		Help:    "Latency of outbound provider calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "operation"})
	reg.MustRegister(initiated, webhooks, refunds, provider)
	return &PaymentMetrics{
		initiated: initiated,
		webhooks:  webhooks,
		refunds:   refunds,
		provider:  provider,
	}
}

func (m *PaymentMetrics) IncInitiated(method, outcome string) {
	if m == nil || m.initiated == nil {
		return
	}
	m.initiated.WithLabelValues(normalizeLabel(method), normalizeLabel(outcome)).Inc()
}

func (m *PaymentMetrics) IncWebhook(outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *PaymentMetrics) IncRefund(outcome string) {
	if m == nil || m.refunds == nil {
		return
	}
	m.refunds.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveProvider records how long a provider call took.
func (m *PaymentMetrics) ObserveProvider(provider, operation string, duration time.Duration) {
	if m == nil || m.provider == nil {
		return
	}
	m.provider.WithLabelValues(normalizeLabel(provider), normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
