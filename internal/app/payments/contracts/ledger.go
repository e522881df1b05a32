package contracts

import (
	"context"

	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

// OrderLedger is the single writer of order state.
type OrderLedger interface {
	Create(ctx context.Context, buyer string, items []domain.CartItem, products map[string]domain.Product) (*domain.Order, error)
	AttachCheckoutReference(ctx context.Context, orderID, ref string) (*domain.Order, error)
	FindByCheckoutReference(ctx context.Context, ref string) (*domain.Order, error)
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	ListByBuyer(ctx context.Context, buyer string) ([]*domain.Order, error)
	ApplyPaymentStatus(ctx context.Context, orderID string, status domain.OrderStatus, paymentRef string) (*domain.Order, error)
	Refund(ctx context.Context, orderID, paymentRef string) (*domain.Order, error)
}

// SubscriptionLedger is the single writer of subscriber premium state.
type SubscriptionLedger interface {
	Get(ctx context.Context, subscriberID string) (*domain.Subscriber, error)
	FindByEmail(ctx context.Context, email string) (*domain.Subscriber, error)
	Activate(ctx context.Context, subscriberID, mandateRef string) (*domain.Subscriber, error)
	Cancel(ctx context.Context, subscriberID string) (*domain.Subscriber, error)
}
