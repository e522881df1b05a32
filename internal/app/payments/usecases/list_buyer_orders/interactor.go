package list_buyer_orders

import (
	"context"

	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

// Interactor handles the buyer order history use case
type Interactor struct {
	orders contracts.OrderLedger
}

// NewInteractor creates a new buyer order history interactor
func NewInteractor(orders contracts.OrderLedger) *Interactor {
	return &Interactor{orders: orders}
}

// Execute lists the buyer's orders, newest first. A buyer without orders
// gets an empty, non-nil slice.
func (i *Interactor) Execute(ctx context.Context, buyer string) ([]*domain.Order, error) {
	if buyer == "" {
		return nil, domain.ErrInvalidBuyer
	}
	orders, err := i.orders.ListByBuyer(ctx, buyer)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return orders, nil
}
