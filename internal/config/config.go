// Package config loads process-wide environment configuration and caches
// per-tenant configuration that is read-mostly and explicitly refreshed.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Env is the global, process-wide configuration: database URLs, the
// processor sandbox flag, the SQS queue URLs, and the event-bus transport
// selector. Processor credentials are not part of it.
type Env struct {
	BillingDatabaseURL string
	LedgerDatabaseURL  string
	EventBusTransport  string // "sqs" | "memory"
	SQSQueueURL        string
	SQSDLQQueueURL     string
	Environment        string // "production" | "development"
	Sandbox            bool
}

// LoadEnv loads .env if present (best-effort, ignored otherwise) and
// reads process environment into an Env.
func LoadEnv() Env {
	_ = godotenv.Load()

	sandbox, _ := strconv.ParseBool(os.Getenv("PROCESSOR_SANDBOX"))

	return Env{
		BillingDatabaseURL: os.Getenv("BILLING_DATABASE_URL"),
		LedgerDatabaseURL:  os.Getenv("LEDGER_DATABASE_URL"),
		EventBusTransport:  envOr("EVENT_BUS_TRANSPORT", "memory"),
		SQSQueueURL:        os.Getenv("SQS_GL_POSTING_QUEUE_URL"),
		SQSDLQQueueURL:     os.Getenv("SQS_DLQ_QUEUE_URL"),
		Environment:        envOr("APP_ENV", "development"),
		Sandbox:            sandbox,
	}
}

func (e Env) IsProduction() bool { return e.Environment == "production" }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
