// Package deliverylog records what happened to each webhook delivery.
//
// The log is append-only and written after the delivery has been handled,
// so operators can answer "did we get the notification for payment X and
// what did we do with it" without grepping logs. It never drives behaviour:
// ledger idempotence, not this log, is what makes redeliveries safe.
package deliverylog

import "time"

// Entry is a single row in the webhook_deliveries table.
type Entry struct {
	// RequestID is the gateway's X-Request-Id, empty when it was not sent.
	RequestID string

	// Kind is the classified event kind (payment, mandate, unknown).
	Kind string

	// GatewayID is the payment or mandate id the notification pointed at.
	GatewayID string

	// Outcome is the dispatcher's verdict, e.g. "applied" or "unmatched".
	Outcome string

	// Detail carries the error text or the resulting order/subscriber state.
	Detail string

	// TraceID and SpanID tie the row to the OpenTelemetry trace of the request.
	TraceID string
	SpanID  string

	ReceivedAt time.Time
}
