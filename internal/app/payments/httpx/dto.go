package httpx

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

type CheckoutRequest struct {
	BuyerID string            `json:"buyer_id"`
	Items   []CheckoutItemDTO `json:"items"`
}

type CheckoutItemDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type CheckoutResponse struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
}

type SubscriptionCheckoutRequest struct {
	SubscriberID string `json:"subscriber_id"`
	ProductID    string `json:"product_id"`
}

type SubscriptionCheckoutResponse struct {
	RedirectURL string `json:"redirect_url"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

type OrderStatusResponse struct {
	OrderID     string      `json:"order_id"`
	Status      string      `json:"status"`
	TotalAmount json.Number `json:"total_amount"`
}

type OrderResponse struct {
	OrderID     string              `json:"order_id"`
	BuyerID     string              `json:"buyer_id"`
	Status      string              `json:"status"`
	TotalAmount json.Number         `json:"total_amount"`
	CheckoutRef string              `json:"checkout_ref,omitempty"`
	PaymentRef  string              `json:"payment_ref,omitempty"`
	Items       []OrderItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type OrderItemResponse struct {
	ProductID string      `json:"product_id"`
	Name      string      `json:"name"`
	Quantity  int64       `json:"quantity"`
	UnitPrice json.Number `json:"unit_price"`
}

type SubscriberResponse struct {
	SubscriberID string     `json:"subscriber_id"`
	Premium      bool       `json:"premium"`
	MandateRef   string     `json:"mandate_ref,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// amount renders a decimal as a bare JSON number.
func amount(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func mapOrderToResponse(order *domain.Order) OrderResponse {
	items := order.Items()
	out := make([]OrderItemResponse, len(items))
	for i, it := range items {
		out[i] = OrderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: amount(it.UnitPrice),
		}
	}
	return OrderResponse{
		OrderID:     order.ID(),
		BuyerID:     order.Buyer(),
		Status:      string(order.Status()),
		TotalAmount: amount(order.Total()),
		CheckoutRef: order.CheckoutRef(),
		PaymentRef:  order.PaymentRef(),
		Items:       out,
		CreatedAt:   order.CreatedAt(),
		UpdatedAt:   order.UpdatedAt(),
	}
}

func mapSubscriberToResponse(sub *domain.Subscriber) SubscriberResponse {
	return SubscriberResponse{
		SubscriberID: sub.ID(),
		Premium:      sub.Premium(),
		MandateRef:   sub.MandateRef(),
		CancelledAt:  sub.CancelledAt(),
	}
}
