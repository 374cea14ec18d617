// Package processor defines the payment-processor gateway: a single
// narrow adapter to the external payment processor, one interface with
// one concrete implementation per provider in its own subpackage.
package processor

import (
	"context"
	"time"
)

// Customer is the processor-side shape returned by CreateCustomer /
// UpdateCustomer. Only the fields engines need locally are mapped.
type Customer struct {
	ProcessorID string
}

// PaymentMethod is the processor-side shape returned by
// AttachPaymentMethod.
type PaymentMethod struct {
	ProcessorID string
	Brand       string
	Last4       string
	ExpMonth    int
	ExpYear     int
}

// Subscription is the processor-side shape returned by CreateSubscription.
type Subscription struct {
	ProcessorID        string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
}

// Charge is the processor-side shape returned by CreateCharge.
type Charge struct {
	ProcessorID    string
	Status         string
	FailureCode    string
	FailureMessage string
}

// Refund is the processor-side shape returned by CreateRefund.
type Refund struct {
	ProcessorID string
	Status      string
}

// Event is the canonical shape verify_signature + the webhook ingress
// pipeline produce: a decoded, provider-agnostic envelope around the raw
// payload. The ingress pipeline dispatches on Type, never on
// provider-specific constants.
type Event struct {
	ID        string
	Type      string
	CreatedAt time.Time
	Raw       []byte
}

// Gateway is the processor adapter contract. Every method
// takes ctx first and every error returned must already be classified
// (apperr.KindPaymentProcessor for 4xx from the processor, apperr.KindInternal
// wrapping a retriable cause for 5xx/timeout) so callers never branch on
// provider-specific error types.
type Gateway interface {
	CreateCustomer(ctx context.Context, email, name string) (Customer, error)
	UpdateCustomer(ctx context.Context, processorID, email, name string) error
	AttachPaymentMethod(ctx context.Context, processorCustomerID, paymentMethodToken string) (PaymentMethod, error)
	SetDefaultPaymentMethod(ctx context.Context, processorCustomerID, processorPaymentMethodID string) error
	CreateSubscription(ctx context.Context, processorCustomerID, priceID string, quantity int64) (Subscription, error)
	CancelSubscription(ctx context.Context, processorSubscriptionID string, immediately bool) error
	CreateCharge(ctx context.Context, processorCustomerID string, amountCents int64, currency, idempotencyKey string) (Charge, error)
	CreateRefund(ctx context.Context, processorChargeID string, amountCents int64) (Refund, error)

	// VerifySignature validates rawBody against signature using secret and,
	// on success, decodes the event envelope. It must compare the raw body
	// byte-for-byte, never a re-serialized form, and reject on any
	// mismatch.
	VerifySignature(rawBody []byte, signature, secret string) (Event, error)
}
