package create_subscription_checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
	"github.com/wuyiadepoju/payments-reconciliation/internal/pkg/metrics"
)

// Request names who subscribes and to which plan.
type Request struct {
	SubscriberID string
	ProductID    string
}

// Response tells the client where the subscriber authorizes the mandate.
type Response struct {
	RedirectURL string
}

// Interactor handles the subscription checkout use case
type Interactor struct {
	gateways    contracts.GatewayProvider
	catalog     contracts.Catalog
	subscribers contracts.SubscriptionLedger
}

// NewInteractor creates a new subscription checkout interactor
func NewInteractor(gateways contracts.GatewayProvider, catalog contracts.Catalog, subscribers contracts.SubscriptionLedger) *Interactor {
	return &Interactor{
		gateways:    gateways,
		catalog:     catalog,
		subscribers: subscribers,
	}
}

// Execute opens a mandate authorization at the gateway. Nothing is written
// locally; premium turns on when the authorized mandate arrives by webhook.
func (i *Interactor) Execute(ctx context.Context, req Request) (*Response, error) {
	// 1. Fail fast without gateway credentials
	gateway, err := i.gateways.EnsureConfigured()
	if err != nil {
		return nil, err
	}

	// 2. Load subscriber for the payer e-mail
	sub, err := i.subscribers.Get(ctx, req.SubscriberID)
	if err != nil {
		return nil, err
	}

	// 3. Load the plan
	product, err := i.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownProduct) {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProduct, req.ProductID)
		}
		return nil, fmt.Errorf("%w: resolve product %q: %v", domain.ErrUpstream, req.ProductID, err)
	}
	if !product.IsSubscription {
		return nil, fmt.Errorf("%w: %q", domain.ErrNotASubscriptionProduct, product.ID)
	}

	// 4. Open the mandate, correlated by subscriber id
	mandate, err := gateway.CreateMandate(ctx, contracts.MandateRequest{
		PayerEmail:       sub.Email(),
		Amount:           product.Price,
		Reason:           product.Name,
		CorrelationToken: sub.ID(),
	})
	if err != nil {
		return nil, err
	}

	metrics.Checkouts.WithLabelValues(metrics.FlowSubscription).Inc()
	slog.InfoContext(ctx, "mandate authorization opened",
		"subscriber_id", sub.ID(),
		"product_id", product.ID,
		"mandate_id", mandate.MandateRef,
	)

	return &Response{RedirectURL: mandate.RedirectURL}, nil
}
