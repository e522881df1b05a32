package contracts

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

// SessionRequest opens a hosted checkout for a set of order lines.
// CorrelationToken is echoed back by the gateway as the payment's
// external reference.
type SessionRequest struct {
	Items            []domain.LineItem
	CorrelationToken string
}

// Session is an opened checkout.
type Session struct {
	RedirectURL string
	SessionRef  string
}

// MandateRequest opens a recurring-payment authorization.
type MandateRequest struct {
	PayerEmail       string
	Amount           decimal.Decimal
	Reason           string
	CorrelationToken string
}

// MandateSession is an opened mandate authorization flow.
type MandateSession struct {
	RedirectURL string
	MandateRef  string
}

// Payment is the gateway's authoritative view of a payment.
type Payment struct {
	ID                string
	Status            string
	Amount            decimal.Decimal
	PayerEmail        string
	SessionRef        string
	ExternalReference string
}

// Mandate is the gateway's authoritative view of a mandate.
type Mandate struct {
	ID                string
	Status            string
	PayerEmail        string
	ExternalReference string
}

// PaymentGateway defines the interface for the external payment gateway
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
	CreateMandate(ctx context.Context, req MandateRequest) (*MandateSession, error)
	GetPayment(ctx context.Context, id string) (*Payment, error)
	GetMandate(ctx context.Context, id string) (*Mandate, error)
	CancelMandate(ctx context.Context, id string) error
}

// GatewayProvider hands out the gateway once it is configured. Every entry
// point calls EnsureConfigured first; an unconfigured gateway yields
// domain.ErrGatewayNotConfigured.
type GatewayProvider interface {
	EnsureConfigured() (PaymentGateway, error)
}
