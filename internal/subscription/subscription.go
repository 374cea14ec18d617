// Package subscription implements the subscription engine:
// create/update/cancel against the Billing Repository and Processor
// Gateway, the trialing/active/past_due/canceled status machine, and
// interval (cycle) changes as cancel-then-create composites that borrow
// the Proration Engine's cancellation-refund factor for the old
// subscription's credit.
package subscription

import (
	"context"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/processor"
	"github.com/cyphera-core/billing-core/internal/proration"
	"go.uber.org/zap"
)

type Service struct {
	repo   billing.Repository
	gw     processor.Gateway
	logger *zap.Logger
}

func New(repo billing.Repository, gw processor.Gateway, logger *zap.Logger) *Service {
	return &Service{repo: repo, gw: gw, logger: logger}
}

// CreateParams is Create's input.
type CreateParams struct {
	AppID               string
	CustomerID          string
	ProcessorCustomerID string
	PlanID              string
	PriceID             string
	PriceCents          int64
	Quantity            int64
	Currency            string
	IntervalUnit        billing.IntervalUnit
	IntervalCount       int
}

// Create validates the plan/price inputs, persists a local pending row,
// calls the processor, and finalizes with the processor id and derived
// period bounds.
func (s *Service) Create(ctx context.Context, p CreateParams) (billing.Subscription, error) {
	if p.AppID == "" {
		return billing.Subscription{}, apperr.Validation("app_id is required")
	}
	if p.PriceCents <= 0 || p.Quantity <= 0 {
		return billing.Subscription{}, apperr.Validation("price_cents and quantity must be positive")
	}

	customerID, err := parseUUID(p.CustomerID)
	if err != nil {
		return billing.Subscription{}, apperr.Validation("invalid customer_id")
	}

	pending, err := s.repo.CreateSubscription(ctx, billing.Subscription{
		AppID:         p.AppID,
		CustomerID:    customerID,
		PlanID:        p.PlanID,
		PriceCents:    p.PriceCents,
		Quantity:      p.Quantity,
		Currency:      p.Currency,
		IntervalUnit:  p.IntervalUnit,
		IntervalCount: p.IntervalCount,
		Status:        billing.SubscriptionTrialing,
	})
	if err != nil {
		return billing.Subscription{}, err
	}

	remote, err := s.gw.CreateSubscription(ctx, p.ProcessorCustomerID, p.PriceID, p.Quantity)
	if err != nil {
		return billing.Subscription{}, err
	}

	pending.ProcessorID = &remote.ProcessorID
	pending.Status = billing.SubscriptionActive
	pending.CurrentPeriodStart = remote.CurrentPeriodStart
	pending.CurrentPeriodEnd = remote.CurrentPeriodEnd
	return s.repo.UpdateSubscription(ctx, pending)
}

// CancelMode selects immediate vs at-period-end cancellation.
type CancelMode string

const (
	CancelImmediate   CancelMode = "immediate"
	CancelAtPeriodEnd CancelMode = "at_period_end"
)

// Cancel applies one of the two cancellation modes. Immediate cancellation
// also calls the processor synchronously; at-period-end only schedules
// cancel_at, leaving the status flip to the renewal job or a webhook.
func (s *Service) Cancel(ctx context.Context, appID string, subscriptionID string, mode CancelMode) (billing.Subscription, error) {
	id, err := parseUUID(subscriptionID)
	if err != nil {
		return billing.Subscription{}, apperr.Validation("invalid subscription id")
	}
	sub, err := s.repo.GetSubscription(ctx, appID, id)
	if err != nil {
		return billing.Subscription{}, err
	}

	switch mode {
	case CancelImmediate:
		if sub.ProcessorID != nil {
			if err := s.gw.CancelSubscription(ctx, *sub.ProcessorID, true); err != nil {
				return billing.Subscription{}, err
			}
		}
		now := time.Now().UTC()
		sub.Status = billing.SubscriptionCanceled
		sub.CanceledAt = &now
	case CancelAtPeriodEnd:
		if sub.ProcessorID != nil {
			if err := s.gw.CancelSubscription(ctx, *sub.ProcessorID, false); err != nil {
				return billing.Subscription{}, err
			}
		}
		cancelAt := sub.CurrentPeriodEnd
		sub.CancelAt = &cancelAt
	default:
		return billing.Subscription{}, apperr.Validation("unknown cancellation mode")
	}

	return s.repo.UpdateSubscription(ctx, sub)
}

// ChangeCycleParams is ChangeCycle's input: an interval (cycle) change is
// never an in-place mutation. It cancels the old subscription
// (crediting the unused remainder via the cancellation
// factor) and creates a brand new subscription at the new interval's full
// price.
type ChangeCycleParams struct {
	NewPlanID            string
	NewPriceID           string
	NewPriceCents        int64
	NewQuantity          int64
	NewIntervalUnit      billing.IntervalUnit
	NewIntervalCount     int
	ChangeDate           time.Time
	TotalPaidCents       int64
	CancellationBehavior proration.CancellationBehavior
}

// ChangeCycleResult is the composite result of an interval change.
type ChangeCycleResult struct {
	OldSubscription billing.Subscription
	NewSubscription billing.Subscription
	Cancellation    proration.CancellationResult
}

func (s *Service) ChangeCycle(ctx context.Context, appID, subscriptionID string, p ChangeCycleParams) (ChangeCycleResult, error) {
	id, err := parseUUID(subscriptionID)
	if err != nil {
		return ChangeCycleResult{}, apperr.Validation("invalid subscription id")
	}
	old, err := s.repo.GetSubscription(ctx, appID, id)
	if err != nil {
		return ChangeCycleResult{}, err
	}

	factor := proration.CancellationRefundFactor(p.ChangeDate, old.CurrentPeriodStart, old.CurrentPeriodEnd)
	cancellation := proration.CancellationRefund(p.TotalPaidCents, factor, p.CancellationBehavior)

	canceled, err := s.Cancel(ctx, appID, subscriptionID, CancelImmediate)
	if err != nil {
		return ChangeCycleResult{}, err
	}

	cust, err := s.repo.GetCustomer(ctx, appID, old.CustomerID)
	if err != nil {
		return ChangeCycleResult{}, err
	}
	processorCustomerID := ""
	if cust.ProcessorID != nil {
		processorCustomerID = *cust.ProcessorID
	}
	newSub, err := s.Create(ctx, CreateParams{
		AppID:               appID,
		CustomerID:          old.CustomerID.String(),
		ProcessorCustomerID: processorCustomerID,
		PlanID:              p.NewPlanID,
		PriceID:             p.NewPriceID,
		PriceCents:          p.NewPriceCents,
		Quantity:            p.NewQuantity,
		Currency:            old.Currency,
		IntervalUnit:        p.NewIntervalUnit,
		IntervalCount:       p.NewIntervalCount,
	})
	if err != nil {
		return ChangeCycleResult{}, err
	}

	return ChangeCycleResult{OldSubscription: canceled, NewSubscription: newSub, Cancellation: cancellation}, nil
}
