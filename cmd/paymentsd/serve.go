package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/spanner"
	"github.com/spf13/cobra"

	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/adapters"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/deliverylog/sqlite"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/httpx"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/ledger"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/migrations"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/repo"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/signature"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/usecases/cancel_subscription"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/usecases/create_checkout"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/usecases/create_subscription_checkout"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/usecases/get_order_status"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/usecases/handle_webhook"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/usecases/list_buyer_orders"
	"github.com/wuyiadepoju/payments-reconciliation/internal/pkg/cache"
	"github.com/wuyiadepoju/payments-reconciliation/internal/pkg/config"
	"github.com/wuyiadepoju/payments-reconciliation/internal/pkg/telemetry"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and webhook receiver",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := telemetry.InitLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.Telemetry.OTLPEndpoint, cfg.Environment)
	if err != nil {
		return fmt.Errorf("setup tracer: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Error("tracer shutdown failed", "error", err)
		}
	}()

	// Storage
	target := migrations.Target{
		ProjectID:  cfg.Spanner.ProjectID,
		InstanceID: cfg.Spanner.InstanceID,
		DatabaseID: cfg.Spanner.DatabaseID,
	}
	client, err := spanner.NewClient(ctx, target.DatabasePath(), migrations.ClientOptions()...)
	if err != nil {
		return fmt.Errorf("create spanner client: %w", err)
	}
	defer client.Close()

	clock := domain.SystemClock{}
	orders := ledger.NewOrderLedger(repo.NewOrderRepo(client), clock)
	subscribers := ledger.NewSubscriptionLedger(repo.NewSubscriberRepo(client), clock)
	catalog := repo.NewCatalogRepo(client)

	// Gateway
	var gateway contracts.PaymentGateway
	if cfg.GatewayConfigured() {
		gateway = adapters.NewHTTPPaymentGateway(&http.Client{Timeout: cfg.Gateway.Timeout}, adapters.GatewayOptions{
			BaseURL:         cfg.Gateway.BaseURL,
			AccessToken:     cfg.Gateway.AccessToken,
			CurrencyID:      cfg.Gateway.CurrencyID,
			NotificationURL: cfg.Gateway.NotificationURL,
			SuccessURL:      cfg.Gateway.SuccessURL,
			FailureURL:      cfg.Gateway.FailureURL,
			PendingURL:      cfg.Gateway.PendingURL,
		})
	} else {
		slog.Warn("payment gateway not configured, checkout and webhooks will answer 503/failed")
	}
	gateways := adapters.NewGatewayHolder(gateway)

	// Optional webhook collaborators
	webhookOpts := handle_webhook.Options{
		Secret:     cfg.Webhook.Secret,
		Production: cfg.IsProduction(),
		DedupTTL:   cfg.Webhook.DedupTTL,
		Clock:      clock,
	}
	if cfg.Webhook.Secret == "" {
		slog.Warn("webhook secret not set, signatures cannot be verified")
	}

	if cfg.Redis.Addr != "" {
		c := cache.NewRedisCache(cache.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			ServiceName: cfg.ServiceName,
		})
		defer c.Close()
		if err := cache.Ping(ctx, c); err != nil {
			slog.Warn("redis unreachable, de-duplication lookups will fail open", "addr", cfg.Redis.Addr, "error", err)
		}
		webhookOpts.Cache = adapters.NewCacheDeliveryStore(c)
	}

	if cfg.DeliveryLog.Path != "" {
		dl, err := sqlite.Open(cfg.DeliveryLog.Path)
		if err != nil {
			return fmt.Errorf("open delivery log: %w", err)
		}
		defer dl.Close()
		webhookOpts.DeliveryLog = dl
	}

	// HTTP
	handler := httpx.NewHandler(httpx.Interactors{
		Checkout:             create_checkout.NewInteractor(gateways, catalog, orders),
		SubscriptionCheckout: create_subscription_checkout.NewInteractor(gateways, catalog, subscribers),
		Webhook:              handle_webhook.NewInteractor(gateways, orders, subscribers, signature.NewVerifier(), webhookOpts),
		OrderStatus:          get_order_status.NewInteractor(orders),
		BuyerOrders:          list_buyer_orders.NewInteractor(orders),
		CancelSubscription:   cancel_subscription.NewInteractor(gateways, subscribers),
	}, cfg.HTTP.MaxBodyBytes)

	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      httpx.NewRouter(handler),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("payments service listening", "addr", cfg.HTTP.Address, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
