package adapters

import (
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

var _ contracts.GatewayProvider = (*GatewayHolder)(nil)

// GatewayHolder is built once at startup. It holds no gateway when the
// service runs without gateway credentials, and every entry point then
// fails with domain.ErrGatewayNotConfigured instead of the process
// refusing to boot.
type GatewayHolder struct {
	gateway contracts.PaymentGateway
}

// NewGatewayHolder wraps gateway. A nil gateway yields an unconfigured holder.
func NewGatewayHolder(gateway contracts.PaymentGateway) *GatewayHolder {
	return &GatewayHolder{gateway: gateway}
}

func (h *GatewayHolder) EnsureConfigured() (contracts.PaymentGateway, error) {
	if h == nil || h.gateway == nil {
		return nil, domain.ErrGatewayNotConfigured
	}
	return h.gateway, nil
}
