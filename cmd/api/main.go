// Command api runs the HTTP surface: customer lifecycle, subscriptions,
// charges/refunds, proration, webhook ingress and period close, behind
// tenant-gate and idempotency middleware. Env load, dependency wiring,
// then graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing/postgres"
	"github.com/cyphera-core/billing-core/internal/charge"
	"github.com/cyphera-core/billing-core/internal/config"
	"github.com/cyphera-core/billing-core/internal/customer"
	"github.com/cyphera-core/billing-core/internal/events"
	"github.com/cyphera-core/billing-core/internal/httpapi"
	"github.com/cyphera-core/billing-core/internal/idempotency"
	"github.com/cyphera-core/billing-core/internal/ledger"
	ledgerpostgres "github.com/cyphera-core/billing-core/internal/ledger/postgres"
	"github.com/cyphera-core/billing-core/internal/logging"
	"github.com/cyphera-core/billing-core/internal/processor/stripe"
	"github.com/cyphera-core/billing-core/internal/subscription"
	"github.com/cyphera-core/billing-core/internal/webhook"
)

func main() {
	env := config.LoadEnv()
	logger := logging.Must(env.Environment)
	defer logger.Sync()

	ctx := context.Background()

	billingPool, err := pgxpool.New(ctx, env.BillingDatabaseURL)
	if err != nil {
		logger.Fatal("connect billing database", zap.Error(err))
	}
	defer billingPool.Close()

	ledgerPool, err := pgxpool.New(ctx, env.LedgerDatabaseURL)
	if err != nil {
		logger.Fatal("connect ledger database", zap.Error(err))
	}
	defer ledgerPool.Close()

	repo := postgres.New(billingPool, logger)
	ledgerRepo := ledgerpostgres.New(ledgerPool, logger)

	loader := config.NewPostgresLoader(billingPool)
	tenants := config.NewTenantConfigCache(loader, 5*time.Minute)

	apiKey := os.Getenv("STRIPE_API_KEY")
	webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	gw := stripe.New(apiKey, webhookSecret, logger)

	idemStore := postgres.NewIdempotencyAdapter(repo)
	idem := idempotency.New(idemStore, 24*time.Hour)

	recorder := events.NewRecorder(repo, logger, 1000)
	recorder.Start(ctx)
	defer recorder.Stop()

	handlers := webhook.NewHandlers(repo, tenants, recorder, logger)
	mapper := apperr.NewMapper(logger, env.IsProduction())

	svc := &httpapi.Services{
		Repo:          repo,
		Customers:     customer.New(repo, gw, recorder, logger),
		Subscriptions: subscription.New(repo, gw, logger),
		Charges:       charge.New(repo, gw, logger),
		Webhooks:      webhook.New(repo, gw, handlers, logger),
		CloseWorkflow: ledger.NewCloseWorkflow(ledgerRepo, logger),
		Idempotency:   idem,
		Tenants:       tenants,
		Mapper:        mapper,
		JWTSecret:     []byte(os.Getenv("TENANT_JWT_SECRET")),
		Events:        recorder,
	}

	router := httpapi.NewRouter(svc)

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		logger.Info("api listening", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
