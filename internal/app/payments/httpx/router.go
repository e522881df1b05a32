package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.Trace)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handler.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/checkout", handler.CreateCheckout)
	r.Post("/checkout/subscription", handler.CreateSubscriptionCheckout)
	r.Post("/webhook", handler.Webhook)
	r.Get("/orders/{id}/status", handler.GetOrderStatus)
	r.Get("/buyers/{id}/orders", handler.ListBuyerOrders)
	r.Post("/subscriptions/{id}/cancel", handler.CancelSubscription)
	return r
}
