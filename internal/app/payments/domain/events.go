package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is emitted when an order is opened in pending.
type OrderCreatedEvent struct {
	OrderID   string
	Buyer     string
	Total     decimal.Decimal
	CreatedAt time.Time
}

// OrderStatusChangedEvent is emitted when a gateway status is applied to an order.
type OrderStatusChangedEvent struct {
	OrderID    string
	From       OrderStatus
	To         OrderStatus
	PaymentRef string
	ChangedAt  time.Time
}

// SubscriptionActivatedEvent is emitted when a mandate authorization turns premium on.
type SubscriptionActivatedEvent struct {
	SubscriberID string
	MandateRef   string
	ActivatedAt  time.Time
}

// SubscriptionCancelledEvent is emitted when premium is turned off.
type SubscriptionCancelledEvent struct {
	SubscriberID string
	MandateRef   string
	CancelledAt  time.Time
}
