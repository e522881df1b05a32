package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.GatewayConfigured())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PAYMENTS_ENVIRONMENT", "production")
	t.Setenv("PAYMENTS_HTTP__ADDRESS", ":9090")
	t.Setenv("PAYMENTS_HTTP__MAX_BODY_BYTES", "2048")
	t.Setenv("PAYMENTS_GATEWAY__ACCESS_TOKEN", "APP_USR-123")
	t.Setenv("PAYMENTS_GATEWAY__TIMEOUT", "3s")
	t.Setenv("PAYMENTS_WEBHOOK__SECRET", "whsec")
	t.Setenv("PAYMENTS_WEBHOOK__DEDUP_TTL", "1h")
	t.Setenv("PAYMENTS_REDIS__ADDR", "localhost:6379")
	t.Setenv("PAYMENTS_REDIS__DB", "2")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, int64(2048), cfg.HTTP.MaxBodyBytes)
	assert.True(t, cfg.GatewayConfigured())
	assert.Equal(t, 3*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "whsec", cfg.Webhook.Secret)
	assert.Equal(t, time.Hour, cfg.Webhook.DedupTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	// untouched keys keep their defaults
	assert.Equal(t, "ARS", cfg.Gateway.CurrencyID)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "production without webhook secret",
			mutate:  func(c *Config) { c.Environment = EnvironmentProd },
			wantErr: "webhook.secret is required in production",
		},
		{
			name:    "missing spanner database",
			mutate:  func(c *Config) { c.Spanner.DatabaseID = "" },
			wantErr: "spanner.project_id",
		},
		{
			name:    "missing http address",
			mutate:  func(c *Config) { c.HTTP.Address = "" },
			wantErr: "http.address is required",
		},
		{
			name:    "non-positive body limit",
			mutate:  func(c *Config) { c.HTTP.MaxBodyBytes = 0 },
			wantErr: "http.max_body_bytes",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidate_DevelopmentWithoutSecret(t *testing.T) {
	cfg := Default()
	cfg.Webhook.Secret = ""

	assert.NoError(t, cfg.Validate())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "gateway.access_token", envKey("PAYMENTS_GATEWAY__ACCESS_TOKEN"))
	assert.Equal(t, "log_level", envKey("PAYMENTS_LOG_LEVEL"))
}
