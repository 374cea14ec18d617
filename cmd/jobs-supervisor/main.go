// Command jobs-supervisor runs the background schedulers: the dunning
// controller, the renewal/invoice and scheduled-cancellation jobs, the
// retention purge job, and the pending-customer/pending-charge
// reconciliation sweep, one tick per tenant on independent tickers
// sharing one tenant list.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cyphera-core/billing-core/internal/billing/postgres"
	"github.com/cyphera-core/billing-core/internal/charge"
	"github.com/cyphera-core/billing-core/internal/config"
	"github.com/cyphera-core/billing-core/internal/customer"
	"github.com/cyphera-core/billing-core/internal/dunning"
	"github.com/cyphera-core/billing-core/internal/events"
	"github.com/cyphera-core/billing-core/internal/logging"
	"github.com/cyphera-core/billing-core/internal/processor/stripe"
	"github.com/cyphera-core/billing-core/internal/renewal"
)

// reconcilePendingAfter is how stale a pending customer/charge row must be
// before the reconciliation sweep re-attempts it. A row younger than this
// may still have an in-flight request working on it.
const reconcilePendingAfter = 15 * time.Minute

func main() {
	env := config.LoadEnv()
	logger := logging.Must(env.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, env.BillingDatabaseURL)
	if err != nil {
		logger.Fatal("connect billing database", zap.Error(err))
	}
	defer pool.Close()

	repo := postgres.New(pool, logger)
	loader := config.NewPostgresLoader(pool)
	tenants := config.NewTenantConfigCache(loader, 5*time.Minute)

	gw := stripe.New(os.Getenv("STRIPE_API_KEY"), os.Getenv("STRIPE_WEBHOOK_SECRET"), logger)
	retrier := dunning.NewGatewayRetrier(repo, gw)

	recorder := events.NewRecorder(repo, logger, 256)
	recorder.Start(ctx)
	defer recorder.Stop()

	dunningCtl := dunning.NewController(repo, tenants, retrier, logger)
	invoiceJob := renewal.NewInvoiceJob(repo, logger, 72*time.Hour)
	cancelJob := renewal.NewCancellationJob(repo, logger)
	retentionJob := renewal.NewRetentionJob(repo, tenants, logger)
	customers := customer.New(repo, gw, recorder, logger)
	charges := charge.New(repo, gw, logger)

	tick := func(name string, interval time.Duration, fn func(ctx context.Context, appID string) (int, error)) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, appID := range activeAppIDs(ctx, loader, logger) {
					n, err := fn(ctx, appID)
					if err != nil {
						logger.Error("job failed", zap.String("job", name), zap.String("app_id", appID), zap.Error(err))
						continue
					}
					if n > 0 {
						logger.Info("job processed", zap.String("job", name), zap.String("app_id", appID), zap.Int("count", n))
					}
				}
			}
		}
	}

	go tick("dunning", time.Hour, dunningCtl.RunDue)
	go tick("invoice", time.Hour, invoiceJob.RunDue)
	go tick("cancellation", time.Hour, cancelJob.RunDue)
	go tick("retention", 24*time.Hour, func(ctx context.Context, appID string) (int, error) {
		result, err := retentionJob.Run(ctx, appID)
		if err != nil {
			return 0, err
		}
		return int(result.EventsPurged + result.WebhooksPurged + result.IdempotencyPurged), nil
	})
	go tick("reconcile-pending-customers", 15*time.Minute, func(ctx context.Context, appID string) (int, error) {
		return customers.ReconcilePending(ctx, appID, reconcilePendingAfter)
	})
	go tick("reconcile-pending-charges", 15*time.Minute, func(ctx context.Context, appID string) (int, error) {
		return charges.ReconcilePending(ctx, appID, reconcilePendingAfter)
	})

	logger.Info("jobs-supervisor started")
	<-ctx.Done()
	logger.Info("jobs-supervisor stopping")
}

func activeAppIDs(ctx context.Context, loader *config.PostgresLoader, logger *zap.Logger) []string {
	ids, err := loader.ListActiveAppIDs(ctx)
	if err != nil {
		logger.Error("list active tenants", zap.Error(err))
		return nil
	}
	return ids
}
