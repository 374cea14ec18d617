// Command gl-consumer runs the ledger posting consumer: it polls the
// gl.posting.requested queue and, per message, builds a balanced journal
// entry inside a single transaction against the ledger database. The
// poll-dispatch-ack loop runs against the eventbus.Bus abstraction so
// the same binary works with either transport selected by
// EVENT_BUS_TRANSPORT.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cyphera-core/billing-core/internal/config"
	"github.com/cyphera-core/billing-core/internal/eventbus"
	"github.com/cyphera-core/billing-core/internal/eventbus/eventbusfake"
	"github.com/cyphera-core/billing-core/internal/eventbus/sqs"
	"github.com/cyphera-core/billing-core/internal/ledger"
	ledgerpostgres "github.com/cyphera-core/billing-core/internal/ledger/postgres"
	"github.com/cyphera-core/billing-core/internal/logging"
)

func main() {
	env := config.LoadEnv()
	logger := logging.Must(env.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledgerPool, err := pgxpool.New(ctx, env.LedgerDatabaseURL)
	if err != nil {
		logger.Fatal("connect ledger database", zap.Error(err))
	}
	defer ledgerPool.Close()

	ledgerRepo := ledgerpostgres.New(ledgerPool, logger)
	consumer := ledger.NewConsumer(ledgerRepo, logger)

	bus, err := newBus(ctx, env)
	if err != nil {
		logger.Fatal("initialize event bus", zap.Error(err))
	}

	logger.Info("gl-consumer started", zap.String("transport", env.EventBusTransport))
	for {
		select {
		case <-ctx.Done():
			logger.Info("gl-consumer stopping")
			return
		default:
		}

		messages, err := bus.Receive(ctx, env.SQSQueueURL, 10)
		if err != nil {
			logger.Error("receive failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		for _, msg := range messages {
			switch consumer.Consume(ctx, msg.Body) {
			case ledger.OutcomeProcessed, ledger.OutcomeFailedEvent:
				if err := bus.Ack(ctx, env.SQSQueueURL, msg.ReceiptHandle); err != nil {
					logger.Error("ack failed", zap.String("message_id", msg.ID), zap.Error(err))
				}
			case ledger.OutcomeRetriable:
				if err := bus.Nack(ctx, env.SQSQueueURL, msg.ReceiptHandle); err != nil {
					logger.Error("nack failed", zap.String("message_id", msg.ID), zap.Error(err))
				}
			}
		}
	}
}

func newBus(ctx context.Context, env config.Env) (eventbus.Bus, error) {
	if env.EventBusTransport == "sqs" {
		return sqs.New(ctx)
	}
	return eventbusfake.New(), nil
}
