package handle_webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/deliverylog"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/signature"
	"github.com/wuyiadepoju/payments-reconciliation/internal/pkg/metrics"
)

const (
	HeaderSignature = "X-Signature"
	HeaderRequestID = "X-Request-Id"

	mandateAuthorized = "authorized"
)

var tracer = otel.Tracer("payments/webhook")

// Request is one inbound notification exactly as received.
type Request struct {
	Headers http.Header
	Query   url.Values
	Body    []byte
}

// Ack is returned for every notification the service accepts.
type Ack struct {
	Received bool
}

// Options configures signature policy and the optional collaborators.
type Options struct {
	Secret     string
	Production bool

	// Cache skips redeliveries that were already applied. Nil disables it.
	Cache    contracts.DeliveryCache
	DedupTTL time.Duration

	// DeliveryLog records every outcome. Nil disables it.
	DeliveryLog deliverylog.Repository

	Clock domain.Clock
}

// Interactor handles inbound gateway notifications
type Interactor struct {
	gateways    contracts.GatewayProvider
	orders      contracts.OrderLedger
	subscribers contracts.SubscriptionLedger
	verifier    *signature.Verifier
	opts        Options
}

// NewInteractor creates a new webhook interactor
func NewInteractor(gateways contracts.GatewayProvider, orders contracts.OrderLedger, subscribers contracts.SubscriptionLedger, verifier *signature.Verifier, opts Options) *Interactor {
	if opts.Clock == nil {
		opts.Clock = domain.SystemClock{}
	}
	return &Interactor{
		gateways:    gateways,
		orders:      orders,
		subscribers: subscribers,
		verifier:    verifier,
		opts:        opts,
	}
}

// result is the verdict on one delivery.
type result struct {
	outcome string
	detail  string
	err     error
}

// Handle authenticates a notification, fetches the resource it points at
// from the gateway and applies the gateway's view to the ledgers.
//
// The only error returned is a signature failure in production. Anything
// that goes wrong afterwards is logged, recorded and acknowledged so the
// gateway does not retry forever.
func (i *Interactor) Handle(ctx context.Context, req Request) (Ack, error) {
	ctx, span := tracer.Start(ctx, "handle-webhook")
	defer span.End()

	receivedAt := i.opts.Clock.Now()
	ev := Classify(req.Query, req.Body)
	ev.RequestID = req.Headers.Get(HeaderRequestID)
	ev.Signature = req.Headers.Get(HeaderSignature)
	span.SetAttributes(
		attribute.String("webhook.kind", string(ev.Kind)),
		attribute.String("webhook.gateway_id", ev.GatewayID),
		attribute.String("webhook.request_id", ev.RequestID),
	)

	// 1. Authenticate
	if err := i.authenticate(ctx, ev); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		i.record(ctx, ev, result{outcome: metrics.OutcomeRejected, err: err}, receivedAt)
		return Ack{}, err
	}

	// 2. Dispatch by kind
	var res result
	switch ev.Kind {
	case domain.EventPayment:
		res = i.deduplicated(ctx, ev, i.handlePayment)
	case domain.EventMandate:
		res = i.deduplicated(ctx, ev, i.handleMandate)
	default:
		res = result{outcome: metrics.OutcomeIgnored, detail: fmt.Sprintf("unsupported topic %q", ev.Topic)}
	}

	// 3. Record and acknowledge
	if res.err != nil {
		span.RecordError(res.err)
	}
	span.SetAttributes(attribute.String("webhook.outcome", res.outcome))
	i.record(ctx, ev, res, receivedAt)

	return Ack{Received: true}, nil
}

// authenticate enforces the signature policy: production rejects, every
// other environment logs a warning and carries on.
func (i *Interactor) authenticate(ctx context.Context, ev domain.WebhookEvent) error {
	var err error
	switch {
	case ev.Signature == "" || ev.RequestID == "":
		err = domain.ErrMissingSignature
	case !i.verifier.Verify(ev.RequestID, ev.Signature, ev.Body, i.opts.Secret):
		err = domain.ErrInvalidSignature
	default:
		return nil
	}

	if i.opts.Production {
		return err
	}
	slog.WarnContext(ctx, "accepting unauthenticated webhook outside production",
		"request_id", ev.RequestID,
		"reason", err.Error(),
	)
	return nil
}

// deduplicated runs handle unless the delivery was already applied.
func (i *Interactor) deduplicated(ctx context.Context, ev domain.WebhookEvent, handle func(context.Context, contracts.PaymentGateway, domain.WebhookEvent) result) result {
	if ev.GatewayID == "" {
		return result{outcome: metrics.OutcomeIgnored, err: domain.ErrMissingEventID}
	}

	gateway, err := i.gateways.EnsureConfigured()
	if err != nil {
		return result{outcome: metrics.OutcomeFailed, err: err}
	}

	// without a request id two deliveries cannot be told apart, so a later
	// status change would look like a redelivery
	useCache := i.opts.Cache != nil && ev.RequestID != ""

	key := dedupKey(ev)
	if useCache {
		seen, err := i.opts.Cache.Seen(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "delivery cache lookup failed", "key", key, "error", err)
		} else if seen {
			return result{outcome: metrics.OutcomeDuplicate, detail: "already applied"}
		}
	}

	res := handle(ctx, gateway, ev)

	if useCache && res.outcome == metrics.OutcomeApplied {
		if err := i.opts.Cache.MarkProcessed(ctx, key, i.opts.DedupTTL); err != nil {
			slog.WarnContext(ctx, "delivery cache update failed", "key", key, "error", err)
		}
	}
	return res
}

func dedupKey(ev domain.WebhookEvent) string {
	return fmt.Sprintf("%s:%s:%s", ev.Kind, ev.GatewayID, ev.RequestID)
}

func (i *Interactor) handlePayment(ctx context.Context, gateway contracts.PaymentGateway, ev domain.WebhookEvent) result {
	// 1. Fetch the authoritative payment
	payment, err := gateway.GetPayment(ctx, ev.GatewayID)
	if err != nil {
		return result{outcome: metrics.OutcomeFailed, err: err}
	}

	// 2. Correlate it with an order
	order, res := i.correlate(ctx, payment)
	if order == nil {
		return res
	}

	// 3. Apply the gateway status
	status := domain.OrderStatus(payment.Status)
	var updated *domain.Order
	if status == domain.StatusRefunded {
		updated, err = i.orders.Refund(ctx, order.ID(), payment.ID)
	} else {
		updated, err = i.orders.ApplyPaymentStatus(ctx, order.ID(), status, payment.ID)
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			// stale delivery, e.g. in_process arriving after approved
			return result{outcome: metrics.OutcomeIgnored, err: err}
		}
		return result{outcome: metrics.OutcomeFailed, err: err}
	}

	return result{
		outcome: metrics.OutcomeApplied,
		detail:  fmt.Sprintf("order %s is %s", updated.ID(), updated.Status()),
	}
}

// correlate finds the order a payment belongs to. The external reference
// (our order id) wins; the checkout reference is only a fallback. A nil
// order comes with the result to record.
func (i *Interactor) correlate(ctx context.Context, payment *contracts.Payment) (*domain.Order, result) {
	switch {
	case payment.ExternalReference != "":
		order, err := i.orders.Get(ctx, payment.ExternalReference)
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, result{outcome: metrics.OutcomeUnmatched, detail: fmt.Sprintf("no order %q", payment.ExternalReference)}
		}
		if err != nil {
			return nil, result{outcome: metrics.OutcomeFailed, err: err}
		}
		if payment.SessionRef != "" && order.CheckoutRef() != "" && order.CheckoutRef() != payment.SessionRef {
			return nil, result{
				outcome: metrics.OutcomeCorrelationMismatch,
				detail: fmt.Sprintf("order %s has checkout reference %q, payment reports %q",
					order.ID(), order.CheckoutRef(), payment.SessionRef),
			}
		}
		return order, result{}

	case payment.SessionRef != "":
		order, err := i.orders.FindByCheckoutReference(ctx, payment.SessionRef)
		if err != nil {
			return nil, result{outcome: metrics.OutcomeFailed, err: err}
		}
		if order == nil {
			return nil, result{outcome: metrics.OutcomeUnmatched, detail: fmt.Sprintf("no order for checkout reference %q", payment.SessionRef)}
		}
		return order, result{}
	}

	return nil, result{outcome: metrics.OutcomeUnmatched, detail: "payment carries no correlation reference"}
}

func (i *Interactor) handleMandate(ctx context.Context, gateway contracts.PaymentGateway, ev domain.WebhookEvent) result {
	// 1. Fetch the authoritative mandate
	mandate, err := gateway.GetMandate(ctx, ev.GatewayID)
	if err != nil {
		return result{outcome: metrics.OutcomeFailed, err: err}
	}
	if mandate.Status != mandateAuthorized {
		return result{outcome: metrics.OutcomeIgnored, detail: fmt.Sprintf("mandate status %q", mandate.Status)}
	}

	// 2. Resolve the subscriber
	sub, res := i.resolveSubscriber(ctx, mandate)
	if sub == nil {
		return res
	}

	// 3. Turn premium on
	activated, err := i.subscribers.Activate(ctx, sub.ID(), mandate.ID)
	if err != nil {
		return result{outcome: metrics.OutcomeFailed, err: err}
	}

	return result{
		outcome: metrics.OutcomeApplied,
		detail:  fmt.Sprintf("subscriber %s premium with mandate %s", activated.ID(), activated.MandateRef()),
	}
}

// resolveSubscriber looks the subscriber up by the external reference and
// falls back to the payer e-mail.
func (i *Interactor) resolveSubscriber(ctx context.Context, mandate *contracts.Mandate) (*domain.Subscriber, result) {
	if mandate.ExternalReference != "" {
		sub, err := i.subscribers.Get(ctx, mandate.ExternalReference)
		if err == nil {
			return sub, result{}
		}
		if !errors.Is(err, domain.ErrSubscriberNotFound) {
			return nil, result{outcome: metrics.OutcomeFailed, err: err}
		}
	}

	sub, err := i.subscribers.FindByEmail(ctx, mandate.PayerEmail)
	if err != nil {
		return nil, result{outcome: metrics.OutcomeFailed, err: err}
	}
	if sub == nil {
		return nil, result{outcome: metrics.OutcomeUnmatched, detail: fmt.Sprintf("no subscriber for mandate %s", mandate.ID)}
	}
	return sub, result{}
}

func (i *Interactor) record(ctx context.Context, ev domain.WebhookEvent, res result, receivedAt time.Time) {
	metrics.WebhookDeliveries.WithLabelValues(string(ev.Kind), res.outcome).Inc()

	detail := res.detail
	if res.err != nil {
		detail = res.err.Error()
	}

	attrs := []any{
		"kind", ev.Kind,
		"gateway_id", ev.GatewayID,
		"outcome", res.outcome,
		"detail", detail,
	}
	switch res.outcome {
	case metrics.OutcomeApplied, metrics.OutcomeDuplicate:
		slog.InfoContext(ctx, "webhook handled", attrs...)
	case metrics.OutcomeFailed:
		slog.ErrorContext(ctx, "webhook handling failed", attrs...)
	default:
		slog.WarnContext(ctx, "webhook not applied", attrs...)
	}

	if i.opts.DeliveryLog == nil {
		return
	}
	entry := deliverylog.NewEntry(ctx, ev.RequestID, string(ev.Kind), ev.GatewayID, res.outcome, detail, receivedAt)
	if err := i.opts.DeliveryLog.Save(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to write delivery log", "gateway_id", ev.GatewayID, "error", err)
	}
}
