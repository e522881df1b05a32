package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
	"github.com/wuyiadepoju/payments-reconciliation/internal/pkg/metrics"
)

var _ contracts.PaymentGateway = (*HTTPPaymentGateway)(nil)

// GatewayOptions carries the merchant-side settings sent with every session.
type GatewayOptions struct {
	BaseURL         string
	AccessToken     string
	CurrencyID      string
	NotificationURL string
	SuccessURL      string
	FailureURL      string
	PendingURL      string
}

// HTTPPaymentGateway implements the payment gateway interface over the
// gateway's REST API
type HTTPPaymentGateway struct {
	client *http.Client
	opts   GatewayOptions
}

// NewHTTPPaymentGateway creates a new HTTP payment gateway client
func NewHTTPPaymentGateway(client *http.Client, opts GatewayOptions) *HTTPPaymentGateway {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &HTTPPaymentGateway{
		client: client,
		opts:   opts,
	}
}

// amount encodes a decimal as a bare JSON number.
type amount decimal.Decimal

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).String()), nil
}

type preferenceItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Quantity   int64  `json:"quantity"`
	UnitPrice  amount `json:"unit_price"`
	CurrencyID string `json:"currency_id"`
}

type backURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

type preferenceRequest struct {
	Items             []preferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url,omitempty"`
	BackURLs          backURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return,omitempty"`
}

type autoRecurring struct {
	Frequency         int    `json:"frequency"`
	FrequencyType     string `json:"frequency_type"`
	TransactionAmount amount `json:"transaction_amount"`
	CurrencyID        string `json:"currency_id"`
}

type preapprovalRequest struct {
	Reason            string        `json:"reason"`
	ExternalReference string        `json:"external_reference"`
	PayerEmail        string        `json:"payer_email"`
	BackURL           string        `json:"back_url,omitempty"`
	AutoRecurring     autoRecurring `json:"auto_recurring"`
}

type sessionResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

type paymentResponse struct {
	ID                json.Number     `json:"id"`
	Status            string          `json:"status"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	ExternalReference string          `json:"external_reference"`
	PreferenceID      string          `json:"preference_id"`
	Payer             struct {
		Email string `json:"email"`
	} `json:"payer"`
}

type preapprovalResponse struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	PayerEmail        string `json:"payer_email"`
	ExternalReference string `json:"external_reference"`
}

// CreateCheckoutSession opens a checkout preference for the order lines
func (g *HTTPPaymentGateway) CreateCheckoutSession(ctx context.Context, req contracts.SessionRequest) (*contracts.Session, error) {
	payload := preferenceRequest{
		Items:             make([]preferenceItem, 0, len(req.Items)),
		ExternalReference: req.CorrelationToken,
		NotificationURL:   g.opts.NotificationURL,
		BackURLs: backURLs{
			Success: g.opts.SuccessURL,
			Failure: g.opts.FailureURL,
			Pending: g.opts.PendingURL,
		},
	}
	if g.opts.SuccessURL != "" {
		payload.AutoReturn = "approved"
	}
	for _, it := range req.Items {
		payload.Items = append(payload.Items, preferenceItem{
			ID:         it.ProductID,
			Title:      it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  amount(it.UnitPrice),
			CurrencyID: g.opts.CurrencyID,
		})
	}

	var resp sessionResponse
	status, err := g.do(ctx, "create_checkout_session", http.MethodPost, "/checkout/preferences", payload, &resp)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, fmt.Errorf("%w: create checkout session: status %d", domain.ErrUpstream, status)
	}
	if resp.ID == "" || resp.InitPoint == "" {
		return nil, fmt.Errorf("%w: create checkout session: response missing id or init_point", domain.ErrUpstream)
	}

	return &contracts.Session{RedirectURL: resp.InitPoint, SessionRef: resp.ID}, nil
}

// CreateMandate opens a monthly recurring-payment authorization
func (g *HTTPPaymentGateway) CreateMandate(ctx context.Context, req contracts.MandateRequest) (*contracts.MandateSession, error) {
	payload := preapprovalRequest{
		Reason:            req.Reason,
		ExternalReference: req.CorrelationToken,
		PayerEmail:        req.PayerEmail,
		BackURL:           g.opts.SuccessURL,
		AutoRecurring: autoRecurring{
			Frequency:         1,
			FrequencyType:     "months",
			TransactionAmount: amount(req.Amount),
			CurrencyID:        g.opts.CurrencyID,
		},
	}

	var resp sessionResponse
	status, err := g.do(ctx, "create_mandate", http.MethodPost, "/preapproval", payload, &resp)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, fmt.Errorf("%w: create mandate: status %d", domain.ErrUpstream, status)
	}
	if resp.ID == "" || resp.InitPoint == "" {
		return nil, fmt.Errorf("%w: create mandate: response missing id or init_point", domain.ErrUpstream)
	}

	return &contracts.MandateSession{RedirectURL: resp.InitPoint, MandateRef: resp.ID}, nil
}

// GetPayment fetches the authoritative payment state
func (g *HTTPPaymentGateway) GetPayment(ctx context.Context, id string) (*contracts.Payment, error) {
	var resp paymentResponse
	status, err := g.do(ctx, "get_payment", http.MethodGet, "/v1/payments/"+url.PathEscape(id), nil, &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentNotFound, id)
	}
	if status/100 != 2 {
		return nil, fmt.Errorf("%w: get payment %s: status %d", domain.ErrUpstream, id, status)
	}

	return &contracts.Payment{
		ID:                resp.ID.String(),
		Status:            resp.Status,
		Amount:            resp.TransactionAmount,
		PayerEmail:        resp.Payer.Email,
		SessionRef:        resp.PreferenceID,
		ExternalReference: resp.ExternalReference,
	}, nil
}

// GetMandate fetches the authoritative mandate state
func (g *HTTPPaymentGateway) GetMandate(ctx context.Context, id string) (*contracts.Mandate, error) {
	var resp preapprovalResponse
	status, err := g.do(ctx, "get_mandate", http.MethodGet, "/preapproval/"+url.PathEscape(id), nil, &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", domain.ErrMandateNotFound, id)
	}
	if status/100 != 2 {
		return nil, fmt.Errorf("%w: get mandate %s: status %d", domain.ErrUpstream, id, status)
	}

	return &contracts.Mandate{
		ID:                resp.ID,
		Status:            resp.Status,
		PayerEmail:        resp.PayerEmail,
		ExternalReference: resp.ExternalReference,
	}, nil
}

// CancelMandate stops future charges on a mandate
func (g *HTTPPaymentGateway) CancelMandate(ctx context.Context, id string) error {
	payload := map[string]any{
		"status": "cancelled",
	}

	status, err := g.do(ctx, "cancel_mandate", http.MethodPut, "/preapproval/"+url.PathEscape(id), payload, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domain.ErrMandateNotFound, id)
	}
	if status/100 != 2 {
		return fmt.Errorf("%w: cancel mandate %s: status %d", domain.ErrUpstream, id, status)
	}
	return nil
}

// do sends one request and decodes a 2xx body into out. Transport and
// decoding failures are domain.ErrUpstream; the status is returned for the
// caller to interpret.
func (g *HTTPPaymentGateway) do(ctx context.Context, operation, method, path string, in, out any) (int, error) {
	timer := prometheus.NewTimer(metrics.GatewayRequestDuration.WithLabelValues(operation))
	defer timer.ObserveDuration()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.opts.BaseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.opts.AccessToken)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrUpstream, operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if out == nil {
		return resp.StatusCode, nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %s: failed to decode response: %v", domain.ErrUpstream, operation, err)
	}
	return resp.StatusCode, nil
}
