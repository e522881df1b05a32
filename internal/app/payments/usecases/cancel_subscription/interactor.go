package cancel_subscription

import (
	"context"
	"log/slog"

	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

// Interactor handles the cancel subscription use case
type Interactor struct {
	gateways    contracts.GatewayProvider
	subscribers contracts.SubscriptionLedger
}

// NewInteractor creates a new cancel subscription interactor
func NewInteractor(gateways contracts.GatewayProvider, subscribers contracts.SubscriptionLedger) *Interactor {
	return &Interactor{
		gateways:    gateways,
		subscribers: subscribers,
	}
}

const mandateCancelled = "cancelled"

// Execute turns premium off and then cancels the mandate at the gateway.
// When the gateway call fails the subscriber is still returned, already
// cancelled locally, together with the error. Cancelling an inactive
// subscriber only calls the gateway again if the mandate is not already
// cancelled there.
func (i *Interactor) Execute(ctx context.Context, subscriberID string) (*domain.Subscriber, error) {
	// 1. Fail fast without gateway credentials
	gateway, err := i.gateways.EnsureConfigured()
	if err != nil {
		return nil, err
	}

	// 2. Load the subscriber
	current, err := i.subscribers.Get(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	wasActive := current.Premium()

	// 3. Cancel locally (versioned write, no-op when inactive)
	sub, err := i.subscribers.Cancel(ctx, subscriberID)
	if err != nil {
		return nil, err
	}

	// 4. Cancel the mandate (after successful save)
	if sub.MandateRef() == "" {
		return sub, nil
	}
	if !wasActive && i.mandateAlreadyCancelled(ctx, gateway, sub.MandateRef()) {
		return sub, nil
	}
	if err := gateway.CancelMandate(ctx, sub.MandateRef()); err != nil {
		slog.ErrorContext(ctx, "mandate cancellation failed, subscriber already cancelled",
			"subscriber_id", sub.ID(),
			"mandate_id", sub.MandateRef(),
			"error", err,
		)
		return sub, err
	}

	return sub, nil
}

// mandateAlreadyCancelled reports whether the gateway already shows the
// mandate as cancelled. A failed lookup counts as not cancelled.
func (i *Interactor) mandateAlreadyCancelled(ctx context.Context, gateway contracts.PaymentGateway, mandateRef string) bool {
	mandate, err := gateway.GetMandate(ctx, mandateRef)
	if err != nil {
		slog.WarnContext(ctx, "mandate lookup failed, cancelling again",
			"mandate_id", mandateRef,
			"error", err,
		)
		return false
	}
	return mandate.Status == mandateCancelled
}
