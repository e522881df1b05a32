package get_order_status

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

// Response is the status view of one order.
type Response struct {
	OrderID     string
	Status      domain.OrderStatus
	TotalAmount decimal.Decimal
}

// Interactor handles the order status use case
type Interactor struct {
	orders contracts.OrderLedger
}

// NewInteractor creates a new order status interactor
func NewInteractor(orders contracts.OrderLedger) *Interactor {
	return &Interactor{orders: orders}
}

// Execute returns the current status and total of an order.
func (i *Interactor) Execute(ctx context.Context, orderID string) (*Response, error) {
	order, err := i.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &Response{
		OrderID:     order.ID(),
		Status:      order.Status(),
		TotalAmount: order.Total(),
	}, nil
}
