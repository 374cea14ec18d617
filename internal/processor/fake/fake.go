// Package fake is an in-memory processor.Gateway double for engine unit
// tests. A hand-written fake (rather than a generated mock) is used here
// because engines exercise multi-step call sequences (create then
// finalize) where scripted return values are clearer than per-call
// expectations.
package fake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/processor"
	"github.com/google/uuid"
)

// Gateway is a deterministic, in-memory processor.Gateway.
type Gateway struct {
	mu sync.Mutex

	// FailNext, when set, is returned (and cleared) by the next mutating
	// call instead of succeeding.
	FailNext error

	customers      map[string]bool
	subscriptions  map[string]bool
	webhookSecrets map[string]string
}

var _ processor.Gateway = (*Gateway)(nil)

func New() *Gateway {
	return &Gateway{
		customers:      make(map[string]bool),
		subscriptions:  make(map[string]bool),
		webhookSecrets: make(map[string]string),
	}
}

func (g *Gateway) takeFailure() error {
	err := g.FailNext
	g.FailNext = nil
	return err
}

func (g *Gateway) CreateCustomer(ctx context.Context, email, name string) (processor.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return processor.Customer{}, err
	}
	id := "cus_" + uuid.NewString()
	g.customers[id] = true
	return processor.Customer{ProcessorID: id}, nil
}

func (g *Gateway) UpdateCustomer(ctx context.Context, processorID, email, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return err
	}
	if !g.customers[processorID] {
		return apperr.Processor("resource_missing", "no such customer", nil)
	}
	return nil
}

func (g *Gateway) AttachPaymentMethod(ctx context.Context, processorCustomerID, paymentMethodToken string) (processor.PaymentMethod, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return processor.PaymentMethod{}, err
	}
	return processor.PaymentMethod{
		ProcessorID: "pm_" + uuid.NewString(),
		Brand:       "visa",
		Last4:       "4242",
		ExpMonth:    12,
		ExpYear:     time.Now().Year() + 2,
	}, nil
}

func (g *Gateway) SetDefaultPaymentMethod(ctx context.Context, processorCustomerID, processorPaymentMethodID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.takeFailure()
}

func (g *Gateway) CreateSubscription(ctx context.Context, processorCustomerID, priceID string, quantity int64) (processor.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return processor.Subscription{}, err
	}
	id := "sub_" + uuid.NewString()
	g.subscriptions[id] = true
	now := time.Now().UTC().Truncate(24 * time.Hour)
	return processor.Subscription{
		ProcessorID:        id,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	}, nil
}

func (g *Gateway) CancelSubscription(ctx context.Context, processorSubscriptionID string, immediately bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return err
	}
	if !g.subscriptions[processorSubscriptionID] {
		return apperr.Processor("resource_missing", "no such subscription", nil)
	}
	return nil
}

func (g *Gateway) CreateCharge(ctx context.Context, processorCustomerID string, amountCents int64, currency, idempotencyKey string) (processor.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return processor.Charge{}, err
	}
	return processor.Charge{ProcessorID: "ch_" + uuid.NewString(), Status: "succeeded"}, nil
}

func (g *Gateway) CreateRefund(ctx context.Context, processorChargeID string, amountCents int64) (processor.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return processor.Refund{}, err
	}
	return processor.Refund{ProcessorID: "re_" + uuid.NewString(), Status: "succeeded"}, nil
}

// SetWebhookSecret records a signing secret for an app_id. VerifySignature
// does not consult these records: it accepts when signature equals its
// secret argument (no HMAC), so tests can construct valid/invalid
// signatures trivially.
func (g *Gateway) SetWebhookSecret(appID, secret string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.webhookSecrets[appID] = secret
}

func (g *Gateway) VerifySignature(rawBody []byte, signature, secret string) (processor.Event, error) {
	if signature != secret {
		return processor.Event{}, apperr.Validation("webhook signature verification failed")
	}
	return processor.Event{
		ID:        fmt.Sprintf("evt_%x", fnvSum(rawBody)),
		Type:      "test.event",
		CreatedAt: time.Now().UTC(),
		Raw:       rawBody,
	}, nil
}

func fnvSum(b []byte) uint32 {
	var h uint32 = 2166136261
	for _, c := range b {
		h ^= uint32(c)
		h *= 16777619
	}
	return h
}
