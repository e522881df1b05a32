package contracts

import (
	"context"

	"cloud.google.com/go/spanner"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// Save returns the insert mutations for a new order and its lines.
	// Apply them with Apply.
	Save(ctx context.Context, order *domain.Order) ([]*spanner.Mutation, error)
	Apply(ctx context.Context, mutations ...*spanner.Mutation) error

	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// FindByCheckoutRef returns nil, nil when no order carries ref.
	FindByCheckoutRef(ctx context.Context, ref string) (*domain.Order, error)
	ListByBuyer(ctx context.Context, buyer string) ([]*domain.Order, error)

	// UpdateIfVersion writes the mutable order columns only if the stored
	// version still equals expectedVersion, else domain.ErrVersionConflict.
	UpdateIfVersion(ctx context.Context, order *domain.Order, expectedVersion int64) error
}

// SubscriberRepository defines the interface for subscriber persistence
type SubscriberRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Subscriber, error)
	// FindByEmail returns nil, nil when no subscriber has that e-mail.
	FindByEmail(ctx context.Context, email string) (*domain.Subscriber, error)
	UpdateIfVersion(ctx context.Context, sub *domain.Subscriber, expectedVersion int64) error
}
