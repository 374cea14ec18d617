// Package billing holds the tenant-scoped domain model and the repository
// interface shared by every engine: customer lifecycle, subscriptions,
// proration, charges and refunds, webhook ingress.
package billing

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CustomerStatus string

const (
	CustomerPending CustomerStatus = "pending"
	CustomerActive  CustomerStatus = "active"
	CustomerFailed  CustomerStatus = "failed"
	// CustomerDelinquent is set by the dunning controller and webhook
	// payment-failure handlers; it is a customer-level access flag, not
	// a status the lifecycle service transitions through directly.
	CustomerDelinquent CustomerStatus = "delinquent"
)

type Customer struct {
	ID                     uuid.UUID
	AppID                  string
	ExternalID             *string
	ProcessorID            *string
	Status                 CustomerStatus
	Email                  string
	Name                   string
	DefaultPaymentMethodID *uuid.UUID
	DelinquentSince        *time.Time
	GracePeriodEnd         *time.Time
	Metadata               json.RawMessage
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

type PaymentMethodType string

const (
	PaymentMethodCard      PaymentMethodType = "card"
	PaymentMethodACHDebit  PaymentMethodType = "ach_debit"
	PaymentMethodEFTDebit  PaymentMethodType = "eft_debit"
)

type PaymentMethod struct {
	ID          uuid.UUID
	AppID       string
	CustomerID  uuid.UUID
	ProcessorID string
	Type        PaymentMethodType
	Brand       string
	Last4       string
	ExpMonth    int
	ExpYear     int
	IsDefault   bool
	DeletedAt   *time.Time
	CreatedAt   time.Time
}

type IntervalUnit string

const (
	IntervalDay   IntervalUnit = "day"
	IntervalWeek  IntervalUnit = "week"
	IntervalMonth IntervalUnit = "month"
	IntervalYear  IntervalUnit = "year"
)

type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

type Subscription struct {
	ID                 uuid.UUID
	AppID              string
	CustomerID         uuid.UUID
	ProcessorID        *string
	PlanID             string
	PriceCents         int64
	Quantity           int64
	Currency           string
	IntervalUnit       IntervalUnit
	IntervalCount      int
	Status             SubscriptionStatus
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAt           *time.Time
	CanceledAt         *time.Time
	Metadata           json.RawMessage
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type ChargeType string

const (
	ChargeSubscription    ChargeType = "subscription"
	ChargeOneTime         ChargeType = "one_time"
	ChargeProrationCharge ChargeType = "proration_charge"
	ChargeProrationCredit ChargeType = "proration_credit"
	ChargeUsage           ChargeType = "usage"
)

type ChargeStatus string

const (
	ChargePending   ChargeStatus = "pending"
	ChargeSucceeded ChargeStatus = "succeeded"
	ChargeFailed    ChargeStatus = "failed"
	ChargeRefunded  ChargeStatus = "refunded"
)

type Charge struct {
	ID             uuid.UUID
	AppID          string
	CustomerID     uuid.UUID
	SubscriptionID *uuid.UUID
	ProcessorID    *string
	ChargeType     ChargeType
	AmountCents    int64
	Currency       string
	Status         ChargeStatus
	Reason         *string
	ReferenceID    string
	FailureCode    *string
	FailureMessage *string
	Metadata       json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundSucceeded RefundStatus = "succeeded"
	RefundFailed    RefundStatus = "failed"
)

type Refund struct {
	ID          uuid.UUID
	AppID       string
	ChargeID    uuid.UUID
	ProcessorID *string
	AmountCents int64
	Status      RefundStatus
	Reason      *string
	ReferenceID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "draft"
	InvoiceOpen          InvoiceStatus = "open"
	InvoicePaid          InvoiceStatus = "paid"
	InvoiceVoid          InvoiceStatus = "void"
	InvoiceUncollectible InvoiceStatus = "uncollectible"
	InvoicePastDue       InvoiceStatus = "past_due"
)

type LineItemType string

const (
	LineItemSubscription LineItemType = "subscription"
	LineItemUsage        LineItemType = "usage"
	LineItemTax          LineItemType = "tax"
	LineItemDiscount     LineItemType = "discount"
	LineItemFee          LineItemType = "fee"
	LineItemOther        LineItemType = "other"
)

type LineItem struct {
	ID             uuid.UUID
	InvoiceID      uuid.UUID
	Type           LineItemType
	Description    string
	Quantity       int64
	UnitPriceCents int64
}

type Invoice struct {
	ID                 uuid.UUID
	AppID              string
	CustomerID         uuid.UUID
	SubscriptionID     *uuid.UUID
	Status             InvoiceStatus
	AmountCents        int64
	Currency           string
	BillingPeriodStart *time.Time
	BillingPeriodEnd   *time.Time
	DueAt              *time.Time
	PaidAt             *time.Time
	LineItems          []LineItem
	CreatedAt          time.Time
}

type WebhookStatus string

const (
	WebhookReceived   WebhookStatus = "received"
	WebhookProcessing WebhookStatus = "processing"
	WebhookProcessed  WebhookStatus = "processed"
	WebhookFailed     WebhookStatus = "failed"
)

type WebhookRecord struct {
	AppID         string
	EventID       string
	EventType     string
	Status        WebhookStatus
	Payload       json.RawMessage
	AttemptCount  int
	LastAttemptAt *time.Time
	NextAttemptAt *time.Time
	DeadAt        *time.Time
	ErrorCode     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type WebhookAttempt struct {
	AppID         string
	EventID       string
	AttemptNumber int
	Status        WebhookStatus
	NextAttemptAt *time.Time
	ErrorCode     *string
	ErrorMessage  *string
	CreatedAt     time.Time
}

type DisputeStatus string

const (
	DisputeNeedsResponse DisputeStatus = "needs_response"
	DisputeUnderReview   DisputeStatus = "under_review"
	DisputeWon           DisputeStatus = "won"
	DisputeLost          DisputeStatus = "lost"
)

// Dispute mirrors a processor-side chargeback/dispute object, upserted
// by (processor_dispute_id, app_id). It is linked to
// the local charge when the processor charge id resolves locally; ChargeID
// is nil otherwise so the row is still durable even if reconciliation has
// to happen later.
type Dispute struct {
	ID                 uuid.UUID
	AppID              string
	ChargeID           *uuid.UUID
	ProcessorDisputeID string
	Status             DisputeStatus
	AmountCents        int64
	Reason             string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type EventSource string

const (
	EventSourceAPI     EventSource = "api"
	EventSourceWebhook EventSource = "webhook"
	EventSourceSystem  EventSource = "system"
	EventSourceAdmin   EventSource = "admin"
)

type Event struct {
	ID         uuid.UUID
	AppID      string
	EventType  string
	Source     EventSource
	EntityType string
	EntityID   string
	Payload    json.RawMessage
	CreatedAt  time.Time
}
