// Package ledger owns every write to orders and subscribers. Writes are
// versioned read-modify-write cycles: a conflicting concurrent write is
// retried once against fresh state and then given up.
package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
	"github.com/wuyiadepoju/payments-reconciliation/internal/pkg/metrics"
)

const maxAttempts = 2

var _ contracts.OrderLedger = (*OrderLedger)(nil)

// OrderLedger creates orders and applies gateway payment state to them.
type OrderLedger struct {
	repo  contracts.OrderRepository
	clock domain.Clock
	newID func() string
}

// NewOrderLedger creates a new order ledger
func NewOrderLedger(repo contracts.OrderRepository, clock domain.Clock) *OrderLedger {
	return &OrderLedger{
		repo:  repo,
		clock: clock,
		newID: uuid.NewString,
	}
}

// Create prices items against products and persists a pending order.
func (l *OrderLedger) Create(ctx context.Context, buyer string, items []domain.CartItem, products map[string]domain.Product) (*domain.Order, error) {
	order, event, err := domain.NewOrder(l.newID(), buyer, items, products, l.clock)
	if err != nil {
		return nil, err
	}

	mutations, err := l.repo.Save(ctx, order)
	if err != nil {
		return nil, err
	}
	if err := l.repo.Apply(ctx, mutations...); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order created",
		"order_id", event.OrderID,
		"buyer", event.Buyer,
		"total", event.Total.String(),
	)
	metrics.OrderTransitions.WithLabelValues(string(domain.StatusPending)).Inc()
	return order, nil
}

// AttachCheckoutReference links the gateway checkout session to an order.
// A reference already held by another order is domain.ErrCheckoutReferenceInUse.
func (l *OrderLedger) AttachCheckoutReference(ctx context.Context, orderID, ref string) (*domain.Order, error) {
	return l.mutate(ctx, orderID, func(o *domain.Order) (bool, error) {
		return o.AttachCheckoutReference(ref, l.clock)
	})
}

// FindByCheckoutReference returns nil, nil when no order carries ref.
func (l *OrderLedger) FindByCheckoutReference(ctx context.Context, ref string) (*domain.Order, error) {
	if ref == "" {
		return nil, nil
	}
	return l.repo.FindByCheckoutRef(ctx, ref)
}

func (l *OrderLedger) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return l.repo.FindByID(ctx, orderID)
}

// ListByBuyer returns the buyer's orders, newest first.
func (l *OrderLedger) ListByBuyer(ctx context.Context, buyer string) ([]*domain.Order, error) {
	return l.repo.ListByBuyer(ctx, buyer)
}

// ApplyPaymentStatus mirrors a gateway status onto the order. Applying the
// status the order already has returns it unchanged.
func (l *OrderLedger) ApplyPaymentStatus(ctx context.Context, orderID string, status domain.OrderStatus, paymentRef string) (*domain.Order, error) {
	return l.mutate(ctx, orderID, func(o *domain.Order) (bool, error) {
		event, err := o.ApplyPaymentStatus(status, paymentRef, l.clock)
		if err != nil || event == nil {
			return false, err
		}
		logTransition(ctx, event)
		return true, nil
	})
}

// Refund moves the order to refunded.
func (l *OrderLedger) Refund(ctx context.Context, orderID, paymentRef string) (*domain.Order, error) {
	return l.mutate(ctx, orderID, func(o *domain.Order) (bool, error) {
		event, err := o.Refund(paymentRef, l.clock)
		if err != nil || event == nil {
			return false, err
		}
		logTransition(ctx, event)
		return true, nil
	})
}

// mutate loads the order, lets change modify it and writes it back if the
// stored version has not moved. change reports whether it modified anything.
func (l *OrderLedger) mutate(ctx context.Context, orderID string, change func(*domain.Order) (bool, error)) (*domain.Order, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		order, err := l.repo.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		expected := order.Version()

		changed, err := change(order)
		if err != nil {
			return nil, err
		}
		if !changed {
			return order, nil
		}

		err = l.repo.UpdateIfVersion(ctx, order, expected)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		slog.WarnContext(ctx, "order version conflict",
			"order_id", orderID,
			"expected_version", expected,
			"attempt", attempt,
		)
	}

	metrics.LedgerConflicts.Inc()
	return nil, domain.ErrConcurrentModification
}

func logTransition(ctx context.Context, event *domain.OrderStatusChangedEvent) {
	slog.InfoContext(ctx, "order status changed",
		"order_id", event.OrderID,
		"from", string(event.From),
		"to", string(event.To),
		"payment_id", event.PaymentRef,
	)
	metrics.OrderTransitions.WithLabelValues(string(event.To)).Inc()
}
