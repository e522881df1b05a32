// Package mocks holds testify mocks of the contracts interfaces for use
// case tests.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

var (
	_ contracts.PaymentGateway     = (*PaymentGateway)(nil)
	_ contracts.GatewayProvider    = (*GatewayProvider)(nil)
	_ contracts.Catalog            = (*Catalog)(nil)
	_ contracts.OrderLedger        = (*OrderLedger)(nil)
	_ contracts.SubscriptionLedger = (*SubscriptionLedger)(nil)
	_ contracts.DeliveryCache      = (*DeliveryCache)(nil)
)

// PaymentGateway is a mock implementation of contracts.PaymentGateway
type PaymentGateway struct {
	mock.Mock
}

func (m *PaymentGateway) CreateCheckoutSession(ctx context.Context, req contracts.SessionRequest) (*contracts.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contracts.Session), args.Error(1)
}

func (m *PaymentGateway) CreateMandate(ctx context.Context, req contracts.MandateRequest) (*contracts.MandateSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contracts.MandateSession), args.Error(1)
}

func (m *PaymentGateway) GetPayment(ctx context.Context, id string) (*contracts.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contracts.Payment), args.Error(1)
}

func (m *PaymentGateway) GetMandate(ctx context.Context, id string) (*contracts.Mandate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contracts.Mandate), args.Error(1)
}

func (m *PaymentGateway) CancelMandate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// GatewayProvider hands out Gateway, or ErrGatewayNotConfigured when it is nil.
type GatewayProvider struct {
	Gateway contracts.PaymentGateway
}

func (p *GatewayProvider) EnsureConfigured() (contracts.PaymentGateway, error) {
	if p.Gateway == nil {
		return nil, domain.ErrGatewayNotConfigured
	}
	return p.Gateway, nil
}

// Catalog is a mock implementation of contracts.Catalog
type Catalog struct {
	mock.Mock
}

func (m *Catalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

// OrderLedger is a mock implementation of contracts.OrderLedger
type OrderLedger struct {
	mock.Mock
}

func (m *OrderLedger) Create(ctx context.Context, buyer string, items []domain.CartItem, products map[string]domain.Product) (*domain.Order, error) {
	args := m.Called(ctx, buyer, items, products)
	return order(args)
}

func (m *OrderLedger) AttachCheckoutReference(ctx context.Context, orderID, ref string) (*domain.Order, error) {
	args := m.Called(ctx, orderID, ref)
	return order(args)
}

func (m *OrderLedger) FindByCheckoutReference(ctx context.Context, ref string) (*domain.Order, error) {
	args := m.Called(ctx, ref)
	return order(args)
}

func (m *OrderLedger) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	return order(args)
}

func (m *OrderLedger) ListByBuyer(ctx context.Context, buyer string) ([]*domain.Order, error) {
	args := m.Called(ctx, buyer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *OrderLedger) ApplyPaymentStatus(ctx context.Context, orderID string, status domain.OrderStatus, paymentRef string) (*domain.Order, error) {
	args := m.Called(ctx, orderID, status, paymentRef)
	return order(args)
}

func (m *OrderLedger) Refund(ctx context.Context, orderID, paymentRef string) (*domain.Order, error) {
	args := m.Called(ctx, orderID, paymentRef)
	return order(args)
}

func order(args mock.Arguments) (*domain.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// SubscriptionLedger is a mock implementation of contracts.SubscriptionLedger
type SubscriptionLedger struct {
	mock.Mock
}

func (m *SubscriptionLedger) Get(ctx context.Context, subscriberID string) (*domain.Subscriber, error) {
	args := m.Called(ctx, subscriberID)
	return subscriber(args)
}

func (m *SubscriptionLedger) FindByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	args := m.Called(ctx, email)
	return subscriber(args)
}

func (m *SubscriptionLedger) Activate(ctx context.Context, subscriberID, mandateRef string) (*domain.Subscriber, error) {
	args := m.Called(ctx, subscriberID, mandateRef)
	return subscriber(args)
}

func (m *SubscriptionLedger) Cancel(ctx context.Context, subscriberID string) (*domain.Subscriber, error) {
	args := m.Called(ctx, subscriberID)
	return subscriber(args)
}

func subscriber(args mock.Arguments) (*domain.Subscriber, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscriber), args.Error(1)
}

// DeliveryCache is a mock implementation of contracts.DeliveryCache
type DeliveryCache struct {
	mock.Mock
}

func (m *DeliveryCache) Seen(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *DeliveryCache) MarkProcessed(ctx context.Context, key string, ttl time.Duration) error {
	args := m.Called(ctx, key, ttl)
	return args.Error(0)
}
