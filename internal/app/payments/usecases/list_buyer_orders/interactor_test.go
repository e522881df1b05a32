package list_buyer_orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts/mocks"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

func TestListBuyerOrders(t *testing.T) {
	ctx := context.Background()
	orders := new(mocks.OrderLedger)
	newer := domain.ReconstructOrder(domain.OrderRecord{ID: "order-2", Buyer: "buyer-1", Status: domain.StatusPending})
	older := domain.ReconstructOrder(domain.OrderRecord{ID: "order-1", Buyer: "buyer-1", Status: domain.StatusApproved})
	orders.On("ListByBuyer", ctx, "buyer-1").Return([]*domain.Order{newer, older}, nil)

	got, err := NewInteractor(orders).Execute(ctx, "buyer-1")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "order-2", got[0].ID())
}

func TestListBuyerOrders_Empty(t *testing.T) {
	ctx := context.Background()
	orders := new(mocks.OrderLedger)
	orders.On("ListByBuyer", ctx, "buyer-9").Return(nil, nil)

	got, err := NewInteractor(orders).Execute(ctx, "buyer-9")

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListBuyerOrders_MissingBuyer(t *testing.T) {
	orders := new(mocks.OrderLedger)

	_, err := NewInteractor(orders).Execute(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrInvalidBuyer)
	orders.AssertNotCalled(t, "ListByBuyer", mock.Anything, mock.Anything)
}
