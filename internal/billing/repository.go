package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is relational persistence for every tenant-scoped entity.
// It is the only thing engines talk to for local state; the relational
// client underneath it is free to be pgx today and something else
// tomorrow.
//
// Every method is implicitly tenant-scoped by appID; cross-tenant lookups
// (wrong appID for an existing id) must return an apperr.KindNotFound
// error (apperr.NotFound), never leak
// rows from other tenants.
type Repository interface {
	CustomerRepository
	PaymentMethodRepository
	SubscriptionRepository
	ChargeRepository
	RefundRepository
	InvoiceRepository
	WebhookRepository
	DisputeRepository
	EventRepository
	IdempotencyRepository

	// WithTx runs fn within a single database transaction, committing on
	// nil error and rolling back otherwise. The Repository passed to fn is
	// transaction-scoped; all its methods participate in the same tx.
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}

type CustomerRepository interface {
	CreateCustomer(ctx context.Context, c Customer) (Customer, error)
	GetCustomer(ctx context.Context, appID string, id uuid.UUID) (Customer, error)
	GetCustomerByExternalID(ctx context.Context, appID, externalID string) (Customer, error)
	UpdateCustomer(ctx context.Context, c Customer) (Customer, error)
	ListDelinquentCustomers(ctx context.Context, appID string, graceEndBefore time.Time) ([]Customer, error)
	ListPendingCustomers(ctx context.Context, appID string, olderThan time.Time) ([]Customer, error)
}

type PaymentMethodRepository interface {
	CreatePaymentMethod(ctx context.Context, pm PaymentMethod) (PaymentMethod, error)
	GetDefaultPaymentMethod(ctx context.Context, appID string, customerID uuid.UUID) (PaymentMethod, error)
	SetDefaultPaymentMethod(ctx context.Context, appID string, customerID, pmID uuid.UUID) error
}

type SubscriptionRepository interface {
	CreateSubscription(ctx context.Context, s Subscription) (Subscription, error)
	GetSubscription(ctx context.Context, appID string, id uuid.UUID) (Subscription, error)
	GetSubscriptionByProcessorID(ctx context.Context, appID, processorID string) (Subscription, error)
	UpdateSubscription(ctx context.Context, s Subscription) (Subscription, error)
	ListDueForRenewal(ctx context.Context, appID string, periodEndBefore time.Time) ([]Subscription, error)
	ListScheduledCancellations(ctx context.Context, appID string, cancelAtBefore time.Time) ([]Subscription, error)
}

type ChargeRepository interface {
	CreateCharge(ctx context.Context, c Charge) (Charge, error)
	GetCharge(ctx context.Context, appID string, id uuid.UUID) (Charge, error)
	GetChargeByReferenceID(ctx context.Context, appID, referenceID string) (Charge, bool, error)
	GetChargeByProcessorID(ctx context.Context, appID, processorChargeID string) (Charge, bool, error)
	UpdateCharge(ctx context.Context, c Charge) (Charge, error)
	SumSuccessfulRefunds(ctx context.Context, appID string, chargeID uuid.UUID) (int64, error)
	// ListPendingCharges finds charges still in status=pending past
	// olderThan, for the reconciliation sweep.
	ListPendingCharges(ctx context.Context, appID string, olderThan time.Time) ([]Charge, error)
}

type RefundRepository interface {
	CreateRefund(ctx context.Context, r Refund) (Refund, error)
	GetRefundByProcessorID(ctx context.Context, appID, processorRefundID string) (Refund, bool, error)
	UpdateRefund(ctx context.Context, r Refund) (Refund, error)
}

type InvoiceRepository interface {
	CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	GetInvoice(ctx context.Context, appID string, id uuid.UUID) (Invoice, error)
}

type WebhookRepository interface {
	// CreateWebhookRecord inserts the record iff (appID, eventID) has not
	// been seen before; the second return is true when this call created
	// the row (i.e. this is not a duplicate delivery).
	CreateWebhookRecord(ctx context.Context, rec WebhookRecord) (created bool, err error)
	GetWebhookRecord(ctx context.Context, appID, eventID string) (WebhookRecord, bool, error)
	UpdateWebhookRecord(ctx context.Context, rec WebhookRecord) error
	AppendWebhookAttempt(ctx context.Context, a WebhookAttempt) error
	ListDueWebhookRetries(ctx context.Context, now time.Time, limit int) ([]WebhookRecord, error)
	// PurgeWebhookRecordsOlderThan removes terminal records (processed or
	// dead) created before the cutoff, along with their attempts. Rows
	// still awaiting a retry are kept regardless of age.
	PurgeWebhookRecordsOlderThan(ctx context.Context, appID string, before time.Time) (int64, error)
}

type DisputeRepository interface {
	// UpsertDisputeByProcessorID inserts on first sight of a
	// (app_id, processor_dispute_id) pair and updates status/amount
	// thereafter.
	UpsertDisputeByProcessorID(ctx context.Context, d Dispute) (Dispute, error)
}

type EventRepository interface {
	AppendEvent(ctx context.Context, e Event) error
	PurgeEventsOlderThan(ctx context.Context, appID string, before time.Time) (int64, error)
}

type IdempotencyRepository interface {
	GetIdempotencyRecord(ctx context.Context, appID, key string) (IdempotencyRow, bool, error)
	PutIdempotencyRecord(ctx context.Context, row IdempotencyRow) error
	PurgeExpiredIdempotencyRecords(ctx context.Context, before time.Time) (int64, error)
}

// IdempotencyRow mirrors idempotency.Record but lives in this package so the
// Repository interface has no dependency on internal/idempotency; the glue
// is a two-line adapter where the store is wired (internal/billing/postgres).
type IdempotencyRow struct {
	AppID        string
	Key          string
	RequestHash  string
	StatusCode   int
	ResponseBody []byte
	ExpiresAt    time.Time
}
