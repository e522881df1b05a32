package domain

// EventKind is the class of a gateway notification.
type EventKind string

const (
	EventPayment EventKind = "payment"
	EventMandate EventKind = "mandate"
	EventUnknown EventKind = "unknown"
)

// WebhookEvent is one inbound notification. It is never persisted; the
// gateway id only tells the dispatcher what to fetch.
type WebhookEvent struct {
	Kind      EventKind
	Topic     string
	GatewayID string
	RequestID string
	Signature string
	Body      []byte
}
