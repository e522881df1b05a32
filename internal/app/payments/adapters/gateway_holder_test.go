package adapters

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

func TestGatewayHolder_Unconfigured(t *testing.T) {
	holder := NewGatewayHolder(nil)

	gw, err := holder.EnsureConfigured()

	assert.Nil(t, gw)
	assert.ErrorIs(t, err, domain.ErrGatewayNotConfigured)
	assert.Equal(t, domain.KindConfiguration, domain.KindOf(err))
}

func TestGatewayHolder_Configured(t *testing.T) {
	client := NewHTTPPaymentGateway(http.DefaultClient, GatewayOptions{BaseURL: "http://gateway.local"})
	holder := NewGatewayHolder(client)

	gw, err := holder.EnsureConfigured()

	require.NoError(t, err)
	assert.Same(t, client, gw)
}
