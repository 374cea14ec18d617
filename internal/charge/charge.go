// Package charge implements one-time charges and refunds: a
// one-time charge against a customer's default payment method, and a
// refund bounded by the sum of prior successful refunds, both wrapped by
// the Idempotency Store at the HTTP layer (the engine itself is
// idempotency-agnostic; it trusts its caller to have already deduplicated
// via internal/idempotency).
package charge

import (
	"context"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/processor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var timeNow = func() time.Time { return time.Now().UTC() }

type Service struct {
	repo   billing.Repository
	gw     processor.Gateway
	logger *zap.Logger
}

func New(repo billing.Repository, gw processor.Gateway, logger *zap.Logger) *Service {
	return &Service{repo: repo, gw: gw, logger: logger}
}

// CreateOneTimeParams is CreateOneTime's input.
type CreateOneTimeParams struct {
	AppID               string
	CustomerID          uuid.UUID
	ProcessorCustomerID string
	AmountCents         int64
	Currency            string
	ReferenceID         string
}

func (s *Service) CreateOneTime(ctx context.Context, p CreateOneTimeParams) (billing.Charge, error) {
	if p.AppID == "" {
		return billing.Charge{}, apperr.Validation("app_id is required")
	}
	if p.AmountCents <= 0 {
		return billing.Charge{}, apperr.Validation("amount_cents must be positive")
	}

	if _, err := s.repo.GetDefaultPaymentMethod(ctx, p.AppID, p.CustomerID); err != nil {
		if apperr.OfKind(err, apperr.KindNotFound) {
			return billing.Charge{}, apperr.Conflict("customer has no default payment method")
		}
		return billing.Charge{}, err
	}

	if existing, found, err := s.repo.GetChargeByReferenceID(ctx, p.AppID, p.ReferenceID); err != nil {
		return billing.Charge{}, err
	} else if found {
		return existing, nil
	}

	pending, err := s.repo.CreateCharge(ctx, billing.Charge{
		AppID:       p.AppID,
		CustomerID:  p.CustomerID,
		ChargeType:  billing.ChargeOneTime,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		Status:      billing.ChargePending,
		ReferenceID: p.ReferenceID,
	})
	if err != nil {
		return billing.Charge{}, err
	}

	remote, err := s.gw.CreateCharge(ctx, p.ProcessorCustomerID, p.AmountCents, p.Currency, p.ReferenceID)
	if err != nil {
		pending.Status = billing.ChargeFailed
		if apiErr, ok := apperr.As(err); ok && apiErr.Kind == apperr.KindPaymentProcessor {
			pending.FailureCode = &apiErr.ProcessorCode
			msg := apiErr.Message
			pending.FailureMessage = &msg
		}
		if _, updateErr := s.repo.UpdateCharge(ctx, pending); updateErr != nil {
			return billing.Charge{}, updateErr
		}
		return billing.Charge{}, err
	}

	pending.ProcessorID = &remote.ProcessorID
	pending.Status = statusFromProcessor(remote.Status)
	return s.repo.UpdateCharge(ctx, pending)
}

func statusFromProcessor(processorStatus string) billing.ChargeStatus {
	switch processorStatus {
	case "succeeded":
		return billing.ChargeSucceeded
	case "failed":
		return billing.ChargeFailed
	default:
		return billing.ChargePending
	}
}

// RefundParams is Refund's input.
type RefundParams struct {
	AppID       string
	ChargeID    uuid.UUID
	AmountCents int64
	Reason      string
}

// Refund looks up the charge tenant-scoped, enforces status=succeeded and
// the Σsuccessful_refunds bound, then proceeds local-pending → processor →
// finalize.
func (s *Service) Refund(ctx context.Context, p RefundParams) (billing.Refund, error) {
	ch, err := s.repo.GetCharge(ctx, p.AppID, p.ChargeID)
	if err != nil {
		return billing.Refund{}, err
	}
	if ch.Status != billing.ChargeSucceeded {
		return billing.Refund{}, apperr.Conflict("charge is not in a refundable state")
	}

	alreadyRefunded, err := s.repo.SumSuccessfulRefunds(ctx, p.AppID, p.ChargeID)
	if err != nil {
		return billing.Refund{}, err
	}
	if p.AmountCents > ch.AmountCents-alreadyRefunded {
		return billing.Refund{}, apperr.Conflict("refund amount exceeds remaining refundable balance")
	}

	var reason *string
	if p.Reason != "" {
		reason = &p.Reason
	}
	pending, err := s.repo.CreateRefund(ctx, billing.Refund{
		AppID:       p.AppID,
		ChargeID:    p.ChargeID,
		AmountCents: p.AmountCents,
		Status:      billing.RefundPending,
		Reason:      reason,
		ReferenceID: refundReferenceID(p.ChargeID),
	})
	if err != nil {
		return billing.Refund{}, err
	}

	processorChargeID := ""
	if ch.ProcessorID != nil {
		processorChargeID = *ch.ProcessorID
	}
	remote, err := s.gw.CreateRefund(ctx, processorChargeID, p.AmountCents)
	if err != nil {
		pending.Status = billing.RefundFailed
		if _, updateErr := s.repo.UpdateRefund(ctx, pending); updateErr != nil {
			return billing.Refund{}, updateErr
		}
		return billing.Refund{}, err
	}

	pending.ProcessorID = &remote.ProcessorID
	pending.Status = billing.RefundSucceeded
	return s.repo.UpdateRefund(ctx, pending)
}

func refundReferenceID(chargeID uuid.UUID) string {
	return "refund_" + chargeID.String() + "_" + uuid.New().String()[:8]
}

// ReconcilePending re-attempts processor creation for one-time charges
// stuck in status=pending past olderThan. There is no request-scoped
// cancellation that rolls back a committed local write; pending rows wait
// for the next webhook or this sweep. A charge whose customer has no resolved
// processor id yet is skipped; it will be picked up once the customer
// reconciliation sweep finalizes it.
func (s *Service) ReconcilePending(ctx context.Context, appID string, olderThan time.Duration) (int, error) {
	cutoff := timeNow().Add(-olderThan)
	pending, err := s.repo.ListPendingCharges(ctx, appID, cutoff)
	if err != nil {
		return 0, err
	}

	for _, c := range pending {
		cust, err := s.repo.GetCustomer(ctx, appID, c.CustomerID)
		if err != nil || cust.ProcessorID == nil {
			s.logger.Warn("reconciliation skipped charge with unresolved processor customer",
				zap.String("charge_id", c.ID.String()))
			continue
		}

		remote, err := s.gw.CreateCharge(ctx, *cust.ProcessorID, c.AmountCents, c.Currency, c.ReferenceID)
		if err != nil {
			c.Status = billing.ChargeFailed
			if apiErr, ok := apperr.As(err); ok && apiErr.Kind == apperr.KindPaymentProcessor {
				c.FailureCode = &apiErr.ProcessorCode
				msg := apiErr.Message
				c.FailureMessage = &msg
			}
			if _, updateErr := s.repo.UpdateCharge(ctx, c); updateErr != nil {
				s.logger.Error("failed to mark charge failed during reconciliation",
					zap.String("charge_id", c.ID.String()), zap.Error(updateErr))
			}
			s.logger.Warn("reconciliation could not create processor charge",
				zap.String("charge_id", c.ID.String()), zap.Error(err))
			continue
		}

		c.ProcessorID = &remote.ProcessorID
		c.Status = statusFromProcessor(remote.Status)
		if _, err := s.repo.UpdateCharge(ctx, c); err != nil {
			s.logger.Error("failed to finalize reconciled charge",
				zap.String("charge_id", c.ID.String()), zap.Error(err))
		}
	}
	return len(pending), nil
}
