// Package config loads service configuration: struct defaults first, then
// PAYMENTS_* environment variables. Nested keys use a double underscore,
// so PAYMENTS_WEBHOOK__SECRET sets webhook.secret.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix         = "PAYMENTS_"
	EnvironmentProd   = "production"
	EnvironmentDev    = "development"
	defaultServiceTag = "payments"
)

type Config struct {
	Environment string      `koanf:"environment"`
	ServiceName string      `koanf:"service_name"`
	LogLevel    string      `koanf:"log_level"`
	HTTP        HTTPServer  `koanf:"http"`
	Spanner     Spanner     `koanf:"spanner"`
	Gateway     Gateway     `koanf:"gateway"`
	Webhook     Webhook     `koanf:"webhook"`
	Redis       Redis       `koanf:"redis"`
	DeliveryLog DeliveryLog `koanf:"delivery_log"`
	Telemetry   Telemetry   `koanf:"telemetry"`
}

type HTTPServer struct {
	Address         string        `koanf:"address"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
}

type Spanner struct {
	ProjectID  string `koanf:"project_id"`
	InstanceID string `koanf:"instance_id"`
	DatabaseID string `koanf:"database_id"`
}

// Gateway holds the payment gateway credentials and merchant URLs. An
// empty AccessToken leaves the gateway unconfigured.
type Gateway struct {
	BaseURL         string        `koanf:"base_url"`
	AccessToken     string        `koanf:"access_token"`
	CurrencyID      string        `koanf:"currency_id"`
	NotificationURL string        `koanf:"notification_url"`
	SuccessURL      string        `koanf:"success_url"`
	FailureURL      string        `koanf:"failure_url"`
	PendingURL      string        `koanf:"pending_url"`
	Timeout         time.Duration `koanf:"timeout"`
}

type Webhook struct {
	Secret   string        `koanf:"secret"`
	DedupTTL time.Duration `koanf:"dedup_ttl"`
}

// Redis is optional; an empty Addr disables delivery de-duplication.
type Redis struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// DeliveryLog is optional; an empty Path disables the delivery audit log.
type DeliveryLog struct {
	Path string `koanf:"path"`
}

// Telemetry is optional; an empty OTLPEndpoint disables trace export.
type Telemetry struct {
	OTLPEndpoint string `koanf:"otlp_endpoint"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Environment: EnvironmentDev,
		ServiceName: defaultServiceTag,
		LogLevel:    "info",
		HTTP: HTTPServer{
			Address:         ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Spanner: Spanner{
			ProjectID:  "test-project",
			InstanceID: "test-instance",
			DatabaseID: "payments-db",
		},
		Gateway: Gateway{
			BaseURL:    "https://api.mercadopago.com",
			CurrencyID: "ARS",
			Timeout:    10 * time.Second,
		},
		Webhook: Webhook{
			DedupTTL: 24 * time.Hour,
		},
	}
}

// Load reads defaults and environment overrides.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// envKey maps PAYMENTS_GATEWAY__ACCESS_TOKEN to gateway.access_token.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func (c Config) IsProduction() bool {
	return c.Environment == EnvironmentProd
}

// GatewayConfigured reports whether gateway credentials are present.
func (c Config) GatewayConfigured() bool {
	return c.Gateway.AccessToken != ""
}

// Validate rejects configurations the service must not start with.
// Production requires a webhook secret: without it no notification can be
// authenticated.
func (c Config) Validate() error {
	var errs []error
	if c.HTTP.Address == "" {
		errs = append(errs, errors.New("http.address is required"))
	}
	if c.Spanner.ProjectID == "" || c.Spanner.InstanceID == "" || c.Spanner.DatabaseID == "" {
		errs = append(errs, errors.New("spanner.project_id, spanner.instance_id and spanner.database_id are required"))
	}
	if c.IsProduction() && c.Webhook.Secret == "" {
		errs = append(errs, errors.New("webhook.secret is required in production"))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("http.max_body_bytes must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
