package create_checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts/mocks"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

var (
	clock    = domain.FixedClock{FixedTime: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	keyboard = domain.Product{ID: "P1", Name: "Keyboard", Price: decimal.NewFromInt(1000)}
)

func TestCheckout_Success(t *testing.T) {
	// Setup
	ctx := context.Background()
	items := []domain.CartItem{{ProductID: "P1", Quantity: 2}}
	products := map[string]domain.Product{"P1": keyboard}
	order, _, err := domain.NewOrder("order-1", "buyer-1", items, products, clock)
	require.NoError(t, err)

	gateway := new(mocks.PaymentGateway)
	catalog := new(mocks.Catalog)
	orders := new(mocks.OrderLedger)
	interactor := NewInteractor(&mocks.GatewayProvider{Gateway: gateway}, catalog, orders)

	// Expectations
	catalog.On("GetProduct", mock.Anything, "P1").Return(&keyboard, nil).Once()
	orders.On("Create", mock.Anything, "buyer-1", items, products).Return(order, nil)
	gateway.On("CreateCheckoutSession", mock.Anything, contracts.SessionRequest{
		Items:            order.Items(),
		CorrelationToken: "order-1",
	}).Return(&contracts.Session{RedirectURL: "https://gateway.example.com/checkout/pref-1", SessionRef: "pref-1"}, nil)
	orders.On("AttachCheckoutReference", mock.Anything, "order-1", "pref-1").Return(order, nil)

	// Execute
	resp, err := interactor.Execute(ctx, Request{Buyer: "buyer-1", Items: items})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "order-1", resp.OrderID)
	assert.Equal(t, "https://gateway.example.com/checkout/pref-1", resp.RedirectURL)
	assert.True(t, order.Total().Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, domain.StatusPending, order.Status())
	catalog.AssertExpectations(t)
	orders.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestCheckout_DuplicateProductsResolvedOnce(t *testing.T) {
	ctx := context.Background()
	items := []domain.CartItem{{ProductID: "P1", Quantity: 1}, {ProductID: "P1", Quantity: 3}}
	products := map[string]domain.Product{"P1": keyboard}
	order, _, err := domain.NewOrder("order-1", "", items, products, clock)
	require.NoError(t, err)

	gateway := new(mocks.PaymentGateway)
	catalog := new(mocks.Catalog)
	orders := new(mocks.OrderLedger)
	interactor := NewInteractor(&mocks.GatewayProvider{Gateway: gateway}, catalog, orders)

	catalog.On("GetProduct", mock.Anything, "P1").Return(&keyboard, nil).Once()
	orders.On("Create", mock.Anything, "", items, products).Return(order, nil)
	gateway.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(&contracts.Session{RedirectURL: "https://gateway.example.com/r", SessionRef: "pref-1"}, nil)
	orders.On("AttachCheckoutReference", mock.Anything, "order-1", "pref-1").Return(order, nil)

	_, err = interactor.Execute(ctx, Request{Items: items})

	require.NoError(t, err)
	catalog.AssertNumberOfCalls(t, "GetProduct", 1)
	assert.Equal(t, domain.AnonymousBuyer, order.Buyer())
	assert.True(t, order.Total().Equal(decimal.NewFromInt(4000)))
}

func TestCheckout_GatewayNotConfigured(t *testing.T) {
	catalog := new(mocks.Catalog)
	orders := new(mocks.OrderLedger)
	interactor := NewInteractor(&mocks.GatewayProvider{}, catalog, orders)

	_, err := interactor.Execute(context.Background(), Request{Items: []domain.CartItem{{ProductID: "P1", Quantity: 1}}})

	assert.ErrorIs(t, err, domain.ErrGatewayNotConfigured)
	catalog.AssertNotCalled(t, "GetProduct", mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_EmptyCart(t *testing.T) {
	interactor := NewInteractor(&mocks.GatewayProvider{Gateway: new(mocks.PaymentGateway)}, new(mocks.Catalog), new(mocks.OrderLedger))

	_, err := interactor.Execute(context.Background(), Request{Buyer: "buyer-1"})

	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCheckout_UnknownProduct(t *testing.T) {
	catalog := new(mocks.Catalog)
	orders := new(mocks.OrderLedger)
	interactor := NewInteractor(&mocks.GatewayProvider{Gateway: new(mocks.PaymentGateway)}, catalog, orders)

	catalog.On("GetProduct", mock.Anything, "P9").Return(nil, domain.ErrUnknownProduct)

	_, err := interactor.Execute(context.Background(), Request{Items: []domain.CartItem{{ProductID: "P9", Quantity: 1}}})

	assert.ErrorIs(t, err, domain.ErrUnknownProduct)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_CatalogFailureIsUpstream(t *testing.T) {
	catalog := new(mocks.Catalog)
	interactor := NewInteractor(&mocks.GatewayProvider{Gateway: new(mocks.PaymentGateway)}, catalog, new(mocks.OrderLedger))

	catalog.On("GetProduct", mock.Anything, "P1").Return(nil, errors.New("deadline exceeded"))

	_, err := interactor.Execute(context.Background(), Request{Items: []domain.CartItem{{ProductID: "P1", Quantity: 1}}})

	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestCheckout_SessionFailureLeavesOrderPending(t *testing.T) {
	items := []domain.CartItem{{ProductID: "P1", Quantity: 1}}
	products := map[string]domain.Product{"P1": keyboard}
	order, _, err := domain.NewOrder("order-1", "buyer-1", items, products, clock)
	require.NoError(t, err)

	gateway := new(mocks.PaymentGateway)
	catalog := new(mocks.Catalog)
	orders := new(mocks.OrderLedger)
	interactor := NewInteractor(&mocks.GatewayProvider{Gateway: gateway}, catalog, orders)

	catalog.On("GetProduct", mock.Anything, "P1").Return(&keyboard, nil)
	orders.On("Create", mock.Anything, "buyer-1", items, products).Return(order, nil)
	gateway.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, domain.ErrUpstream)

	_, err = interactor.Execute(context.Background(), Request{Buyer: "buyer-1", Items: items})

	assert.ErrorIs(t, err, domain.ErrUpstream)
	orders.AssertNotCalled(t, "AttachCheckoutReference", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, domain.StatusPending, order.Status())
}
