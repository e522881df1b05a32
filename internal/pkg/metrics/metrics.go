package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "payments",
	Subsystem: "webhook",
	Name:      "deliveries_total",
	Help:      "Number of webhook deliveries by event kind and outcome",
}, []string{"kind", "outcome"})

var Checkouts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "payments",
	Subsystem: "checkout",
	Name:      "sessions_total",
	Help:      "Number of checkout sessions opened by flow",
}, []string{"flow"})

var OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "payments",
	Subsystem: "ledger",
	Name:      "order_transitions_total",
	Help:      "Number of order status transitions by target status",
}, []string{"status"})

var LedgerConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "payments",
	Subsystem: "ledger",
	Name:      "concurrent_modifications_total",
	Help:      "Number of ledger updates abandoned after a second version conflict",
})

var GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "payments",
	Subsystem: "gateway",
	Name:      "request_duration_seconds",
	Help:      "Latency of payment gateway requests",
	Buckets:   prometheus.DefBuckets,
}, []string{"operation"})

// Checkout flows
const (
	FlowOneOff       = "one_off"
	FlowSubscription = "subscription"
)

// Webhook outcomes
const (
	OutcomeApplied             = "applied"
	OutcomeDuplicate           = "duplicate"
	OutcomeIgnored             = "ignored"
	OutcomeUnmatched           = "unmatched"
	OutcomeCorrelationMismatch = "correlation_mismatch"
	OutcomeRejected            = "rejected"
	OutcomeFailed              = "failed"
)
