// Command dlq-processor drains the webhook retry queue: deliveries that
// failed with a retriable error code sit in billing.WebhookRecord rows
// with next_attempt_at set, and this process replays them on a ticker
// until they succeed, exhaust their attempts, or are dead-lettered.
// Dead-letter state is tracked as rows, not a separate queue.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cyphera-core/billing-core/internal/billing/postgres"
	"github.com/cyphera-core/billing-core/internal/config"
	"github.com/cyphera-core/billing-core/internal/events"
	"github.com/cyphera-core/billing-core/internal/logging"
	"github.com/cyphera-core/billing-core/internal/webhook"
)

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

	recorder := events.NewRecorder(repo, logger, 256)
	recorder.Start(ctx)
	defer recorder.Stop()

	handlers := webhook.NewHandlers(repo, tenants, recorder, logger)
	controller := webhook.NewController(repo, handlers, logger)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	logger.Info("dlq-processor started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("dlq-processor stopping")
			return
		case <-ticker.C:
			n, err := controller.RunDue(ctx)
			if err != nil {
				logger.Error("retry sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("retry sweep processed records", zap.Int("count", n))
			}
		}
	}
}
