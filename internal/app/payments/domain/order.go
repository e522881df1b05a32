package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the order lifecycle state. Besides the named values the
// ledger stores any status string the gateway reports, verbatim.
type OrderStatus string

const (
	StatusPending  OrderStatus = "pending"
	StatusApproved OrderStatus = "approved"
	StatusFailed   OrderStatus = "failed"
	StatusRefunded OrderStatus = "refunded"

	// gateway states for a payment that has not settled yet
	statusInProcess  OrderStatus = "in_process"
	statusAuthorized OrderStatus = "authorized"
)

// AnonymousBuyer is recorded when checkout is not tied to a user.
const AnonymousBuyer = "anonymous"

// unsettled reports whether s describes a payment still in flight. An
// approved order never moves back to one of these.
func (s OrderStatus) unsettled() bool {
	switch s {
	case StatusPending, statusInProcess, statusAuthorized:
		return true
	}
	return false
}

// Order is the aggregate root for a one-off purchase.
type Order struct {
	id          string
	buyer       string
	items       []LineItem
	total       decimal.Decimal
	status      OrderStatus
	checkoutRef string
	paymentRef  string
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewOrder prices items against products and opens the order in pending.
func NewOrder(id, buyer string, items []CartItem, products map[string]Product, clock Clock) (*Order, *OrderCreatedEvent, error) {
	if len(items) == 0 {
		return nil, nil, ErrEmptyCart
	}
	if buyer == "" {
		buyer = AnonymousBuyer
	}

	lines := make([]LineItem, 0, len(items))
	total := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, nil, fmt.Errorf("%w: quantity for product %q must be positive", ErrInvalidItem, it.ProductID)
		}
		p, ok := products[it.ProductID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: product %q does not exist", ErrInvalidItem, it.ProductID)
		}
		if p.Price.IsNegative() {
			return nil, nil, fmt.Errorf("%w: product %q has a negative price", ErrInvalidItem, it.ProductID)
		}
		line := LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
		}
		lines = append(lines, line)
		total = total.Add(line.Subtotal())
	}

	now := clock.Now()
	order := &Order{
		id:        id,
		buyer:     buyer,
		items:     lines,
		total:     total,
		status:    StatusPending,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}

	event := &OrderCreatedEvent{
		OrderID:   id,
		Buyer:     buyer,
		Total:     total,
		CreatedAt: now,
	}

	return order, event, nil
}

// AttachCheckoutReference links the gateway checkout session to the order.
// It reports false when ref is already the stored reference.
func (o *Order) AttachCheckoutReference(ref string, clock Clock) (bool, error) {
	if ref == "" {
		return false, ErrInvalidCheckoutReference
	}
	if o.checkoutRef == ref {
		return false, nil
	}
	if o.checkoutRef != "" {
		return false, ErrAlreadyLinked
	}
	o.checkoutRef = ref
	o.touch(clock)
	return true, nil
}

// ApplyPaymentStatus mirrors a gateway payment status onto the order.
// A nil event with a nil error means the order already had that status.
func (o *Order) ApplyPaymentStatus(status OrderStatus, paymentRef string, clock Clock) (*OrderStatusChangedEvent, error) {
	if status == "" {
		return nil, ErrInvalidStatus
	}
	if o.status == status {
		return nil, nil
	}
	if o.status == StatusRefunded {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.status, status)
	}
	if o.status == StatusApproved && status.unsettled() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.status, status)
	}

	from := o.status
	o.status = status
	if paymentRef != "" {
		o.paymentRef = paymentRef
	}
	o.touch(clock)

	return &OrderStatusChangedEvent{
		OrderID:    o.id,
		From:       from,
		To:         status,
		PaymentRef: o.paymentRef,
		ChangedAt:  o.updatedAt,
	}, nil
}

// Refund moves the order to refunded from any status.
func (o *Order) Refund(paymentRef string, clock Clock) (*OrderStatusChangedEvent, error) {
	if o.status == StatusRefunded {
		return nil, nil
	}
	from := o.status
	o.status = StatusRefunded
	if paymentRef != "" {
		o.paymentRef = paymentRef
	}
	o.touch(clock)

	return &OrderStatusChangedEvent{
		OrderID:    o.id,
		From:       from,
		To:         StatusRefunded,
		PaymentRef: o.paymentRef,
		ChangedAt:  o.updatedAt,
	}, nil
}

func (o *Order) touch(clock Clock) {
	o.updatedAt = clock.Now()
	o.version++
}

// OrderRecord carries persisted order columns.
type OrderRecord struct {
	ID          string
	Buyer       string
	Items       []LineItem
	Total       decimal.Decimal
	Status      OrderStatus
	CheckoutRef string
	PaymentRef  string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReconstructOrder recreates an order from the database
func ReconstructOrder(r OrderRecord) *Order {
	items := make([]LineItem, len(r.Items))
	copy(items, r.Items)
	return &Order{
		id:          r.ID,
		buyer:       r.Buyer,
		items:       items,
		total:       r.Total,
		status:      r.Status,
		checkoutRef: r.CheckoutRef,
		paymentRef:  r.PaymentRef,
		version:     r.Version,
		createdAt:   r.CreatedAt,
		updatedAt:   r.UpdatedAt,
	}
}

func (o *Order) ID() string {
	return o.id
}

func (o *Order) Buyer() string {
	return o.buyer
}

// Items returns a copy of the order lines.
func (o *Order) Items() []LineItem {
	items := make([]LineItem, len(o.items))
	copy(items, o.items)
	return items
}

func (o *Order) Total() decimal.Decimal {
	return o.total
}

func (o *Order) Status() OrderStatus {
	return o.status
}

func (o *Order) CheckoutRef() string {
	return o.checkoutRef
}

func (o *Order) PaymentRef() string {
	return o.paymentRef
}

func (o *Order) Version() int64 {
	return o.version
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}
