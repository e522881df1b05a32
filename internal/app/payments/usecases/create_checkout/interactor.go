package create_checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
	"github.com/wuyiadepoju/payments-reconciliation/internal/pkg/metrics"
)

var tracer = otel.Tracer("payments/checkout")

// Request contains the buyer's cart. An empty Buyer checks out anonymously.
type Request struct {
	Buyer string
	Items []domain.CartItem
}

// Response tells the client where to send the buyer.
type Response struct {
	OrderID     string
	RedirectURL string
}

// Interactor handles the one-off checkout use case
type Interactor struct {
	gateways contracts.GatewayProvider
	catalog  contracts.Catalog
	orders   contracts.OrderLedger
}

// NewInteractor creates a new checkout interactor
func NewInteractor(gateways contracts.GatewayProvider, catalog contracts.Catalog, orders contracts.OrderLedger) *Interactor {
	return &Interactor{
		gateways: gateways,
		catalog:  catalog,
		orders:   orders,
	}
}

// Execute records a pending order and opens a gateway checkout session for it.
// It returns as soon as the session exists; the outcome arrives by webhook.
func (i *Interactor) Execute(ctx context.Context, req Request) (resp *Response, err error) {
	ctx, span := tracer.Start(ctx, "create-checkout")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	// 1. Fail fast without gateway credentials
	gateway, err := i.gateways.EnsureConfigured()
	if err != nil {
		return nil, err
	}

	// 2. Resolve every distinct product in the cart
	if len(req.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	products, err := i.resolveProducts(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	// 3. Persist the pending order with its price snapshot
	order, err := i.orders.Create(ctx, req.Buyer, req.Items, products)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", order.ID()))

	// 4. Open the checkout session, correlated by order id
	session, err := gateway.CreateCheckoutSession(ctx, contracts.SessionRequest{
		Items:            order.Items(),
		CorrelationToken: order.ID(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "checkout session failed, order left pending",
			"order_id", order.ID(),
			"error", err,
		)
		return nil, err
	}

	// 5. Link the session to the order
	if _, err := i.orders.AttachCheckoutReference(ctx, order.ID(), session.SessionRef); err != nil {
		return nil, err
	}

	metrics.Checkouts.WithLabelValues(metrics.FlowOneOff).Inc()
	slog.InfoContext(ctx, "checkout session opened",
		"order_id", order.ID(),
		"checkout_ref", session.SessionRef,
	)

	return &Response{
		OrderID:     order.ID(),
		RedirectURL: session.RedirectURL,
	}, nil
}

// resolveProducts looks up the distinct products of items concurrently.
func (i *Interactor) resolveProducts(ctx context.Context, items []domain.CartItem) (map[string]domain.Product, error) {
	var (
		mu       sync.Mutex
		products = make(map[string]domain.Product, len(items))
		seen     = make(map[string]struct{}, len(items))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, it := range items {
		id := it.ProductID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		g.Go(func() error {
			p, err := i.catalog.GetProduct(gctx, id)
			if err != nil {
				if errors.Is(err, domain.ErrUnknownProduct) {
					return fmt.Errorf("%w: %q", domain.ErrUnknownProduct, id)
				}
				return fmt.Errorf("%w: resolve product %q: %v", domain.ErrUpstream, id, err)
			}
			mu.Lock()
			products[id] = *p
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return products, nil
}
