package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/usecases/create_checkout"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/usecases/create_subscription_checkout"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/usecases/get_order_status"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/usecases/handle_webhook"
)

type checkoutInteractor interface {
	Execute(ctx context.Context, req create_checkout.Request) (*create_checkout.Response, error)
}

type subscriptionCheckoutInteractor interface {
	Execute(ctx context.Context, req create_subscription_checkout.Request) (*create_subscription_checkout.Response, error)
}

type webhookInteractor interface {
	Handle(ctx context.Context, req handle_webhook.Request) (handle_webhook.Ack, error)
}

type orderStatusInteractor interface {
	Execute(ctx context.Context, orderID string) (*get_order_status.Response, error)
}

type buyerOrdersInteractor interface {
	Execute(ctx context.Context, buyer string) ([]*domain.Order, error)
}

type cancelSubscriptionInteractor interface {
	Execute(ctx context.Context, subscriberID string) (*domain.Subscriber, error)
}

// Interactors groups the use cases the HTTP API exposes.
type Interactors struct {
	Checkout             checkoutInteractor
	SubscriptionCheckout subscriptionCheckoutInteractor
	Webhook              webhookInteractor
	OrderStatus          orderStatusInteractor
	BuyerOrders          buyerOrdersInteractor
	CancelSubscription   cancelSubscriptionInteractor
}

// Handler handles incoming HTTP requests for checkout, webhooks and order queries.
type Handler struct {
	uc           Interactors
	maxBodyBytes int64
}

// NewHandler initializes the handler. maxBodyBytes caps webhook bodies.
func NewHandler(uc Interactors, maxBodyBytes int64) *Handler {
	return &Handler{uc: uc, maxBodyBytes: maxBodyBytes}
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateCheckout opens a one-off checkout and returns the gateway redirect.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	items := make([]domain.CartItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.CartItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	resp, err := h.uc.Checkout.Execute(r.Context(), create_checkout.Request{
		Buyer: req.BuyerID,
		Items: items,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CheckoutResponse{
		OrderID:     resp.OrderID,
		RedirectURL: resp.RedirectURL,
	})
}

// CreateSubscriptionCheckout opens a mandate authorization for a subscriber.
func (h *Handler) CreateSubscriptionCheckout(w http.ResponseWriter, r *http.Request) {
	var req SubscriptionCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.SubscriberID == "" || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, string(domain.KindValidation), "subscriber_id and product_id are required")
		return
	}

	resp, err := h.uc.SubscriptionCheckout.Execute(r.Context(), create_subscription_checkout.Request{
		SubscriberID: req.SubscriberID,
		ProductID:    req.ProductID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, SubscriptionCheckoutResponse{RedirectURL: resp.RedirectURL})
}

// Webhook receives gateway notifications. The body is read once, as raw
// bytes, so the signature is checked against exactly what was sent.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		// a truncated body cannot be verified, so it is refused rather than acked
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			slog.WarnContext(r.Context(), "webhook body over limit",
				"request_id", r.Header.Get(handle_webhook.HeaderRequestID),
				"limit", tooLarge.Limit,
			)
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
			return
		}
		slog.WarnContext(r.Context(), "webhook body unreadable",
			"request_id", r.Header.Get(handle_webhook.HeaderRequestID),
			"error", err,
		)
		writeError(w, http.StatusBadRequest, "unreadable_body", err.Error())
		return
	}

	ack, err := h.uc.Webhook.Handle(r.Context(), handle_webhook.Request{
		Headers: r.Header,
		Query:   r.URL.Query(),
		Body:    body,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, WebhookResponse{Received: ack.Received})
}

// GetOrderStatus returns the current status of one order.
func (h *Handler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := h.uc.OrderStatus.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, OrderStatusResponse{
		OrderID:     resp.OrderID,
		Status:      string(resp.Status),
		TotalAmount: amount(resp.TotalAmount),
	})
}

// ListBuyerOrders returns the buyer's orders, newest first.
func (h *Handler) ListBuyerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.uc.BuyerOrders.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = mapOrderToResponse(o)
	}
	writeJSON(w, http.StatusOK, out)
}

// CancelSubscription turns premium off and cancels the mandate. If the
// gateway call fails after the local cancel, the client gets the gateway
// error and may retry; the local cancel is a no-op the second time.
func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.uc.CancelSubscription.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if sub != nil {
			slog.WarnContext(r.Context(), "subscriber cancelled locally, mandate still active at gateway",
				"subscriber_id", sub.ID(),
				"mandate_id", sub.MandateRef(),
			)
		}
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapSubscriberToResponse(sub))
}
