package webhook

import (
	"context"
	"strings"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/config"
	"github.com/cyphera-core/billing-core/internal/dunning"
	"github.com/cyphera-core/billing-core/internal/processor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventSink receives fire-and-forget audit events; satisfied by
// *events.Recorder. A nil sink disables auditing.
type EventSink interface {
	Record(e billing.Event)
}

// Handlers applies processor events to local billing state.
// One Handlers instance is shared by Ingress (first-attempt dispatch) and
// Controller (retry dispatch); both paths end up here.
type Handlers struct {
	repo    billing.Repository
	tenants *config.TenantConfigCache
	events  EventSink
	logger  *zap.Logger
}

func NewHandlers(repo billing.Repository, tenants *config.TenantConfigCache, events EventSink, logger *zap.Logger) *Handlers {
	return &Handlers{repo: repo, tenants: tenants, events: events, logger: logger}
}

// Dispatch routes event to the handler for its family, returning the
// handler's error (nil on success). Unknown event types are non-retriable.
func (h *Handlers) Dispatch(ctx context.Context, appID string, event processor.Event) error {
	switch eventFamily(event.Type) {
	case familySubscriptionUpdated:
		return h.handleSubscriptionUpdated(ctx, appID, event.Raw)
	case familySubscriptionCanceled:
		return h.handleSubscriptionCanceled(ctx, appID, event.Raw)
	case familyPaymentFailed:
		return h.handlePaymentFailed(ctx, appID, event.Raw)
	case familyRefund:
		return h.handleRefund(ctx, appID, event.Raw)
	case familyDispute:
		return h.handleDispute(ctx, appID, event.Raw)
	default:
		return apperr.Validation(errUnknownEventType)
	}
}

type eventFamilyKind string

const (
	familySubscriptionUpdated  eventFamilyKind = "subscription.updated"
	familySubscriptionCanceled eventFamilyKind = "subscription.canceled"
	familyPaymentFailed        eventFamilyKind = "payment.failed"
	familyRefund               eventFamilyKind = "refund"
	familyDispute              eventFamilyKind = "dispute"
	familyUnknown              eventFamilyKind = ""
)

// eventFamily normalizes a processor-native event type (e.g. Stripe's
// "customer.subscription.updated", "invoice.payment_failed") into the
// handler families. New processor event names only need an entry here,
// never a new Handlers method.
func eventFamily(eventType string) eventFamilyKind {
	t := strings.ToLower(eventType)
	switch {
	case strings.Contains(t, "subscription") && (strings.Contains(t, "deleted") || strings.Contains(t, "canceled") || strings.Contains(t, "cancelled")):
		return familySubscriptionCanceled
	case strings.Contains(t, "subscription") && strings.Contains(t, "updated"):
		return familySubscriptionUpdated
	case t == "charge.failed" || t == "payment_intent.payment_failed" || t == "invoice.payment_failed":
		return familyPaymentFailed
	case strings.Contains(t, "refund"):
		return familyRefund
	case strings.Contains(t, "dispute"):
		return familyDispute
	default:
		return familyUnknown
	}
}

// handleSubscriptionUpdated applies status, period bounds, cancel_at and
// canceled_at from the processor's subscription object.
func (h *Handlers) handleSubscriptionUpdated(ctx context.Context, appID string, raw []byte) error {
	var p subscriptionPayload
	if err := decode(raw, &p); err != nil {
		return apperr.Validation("malformed subscription payload")
	}

	sub, err := h.repo.GetSubscriptionByProcessorID(ctx, appID, p.ID)
	if err != nil {
		if apperr.OfKind(err, apperr.KindNotFound) {
			h.logger.Warn("subscription.updated for unknown processor id", zap.String("processor_id", p.ID))
			return nil
		}
		return err
	}

	sub.Status = mapSubscriptionStatus(p.Status)
	if p.CurrentPeriodStart > 0 {
		sub.CurrentPeriodStart = time.Unix(p.CurrentPeriodStart, 0).UTC()
	}
	if p.CurrentPeriodEnd > 0 {
		sub.CurrentPeriodEnd = time.Unix(p.CurrentPeriodEnd, 0).UTC()
	}
	sub.CancelAt = unixPtrToTime(p.CancelAt)
	sub.CanceledAt = unixPtrToTime(p.CanceledAt)

	_, err = h.repo.UpdateSubscription(ctx, sub)
	return err
}

// handleSubscriptionCanceled sets status=canceled, canceled_at=now. It
// ignores period/cancel_at fields the updated handler already owns.
func (h *Handlers) handleSubscriptionCanceled(ctx context.Context, appID string, raw []byte) error {
	var p subscriptionPayload
	if err := decode(raw, &p); err != nil {
		return apperr.Validation("malformed subscription payload")
	}

	sub, err := h.repo.GetSubscriptionByProcessorID(ctx, appID, p.ID)
	if err != nil {
		if apperr.OfKind(err, apperr.KindNotFound) {
			h.logger.Warn("subscription.canceled for unknown processor id", zap.String("processor_id", p.ID))
			return nil
		}
		return err
	}

	now := timeNow()
	sub.Status = billing.SubscriptionCanceled
	sub.CanceledAt = &now
	_, err = h.repo.UpdateSubscription(ctx, sub)
	return err
}

// handlePaymentFailed marks the subscription's customer delinquent with a
// grace window from the tenant's dunning config and logs the failure
// event. Subscription status itself is left for the next
// subscription.updated event.
func (h *Handlers) handlePaymentFailed(ctx context.Context, appID string, raw []byte) error {
	var p invoiceEventPayload
	if err := decode(raw, &p); err != nil {
		return apperr.Validation("malformed payment-failure payload")
	}
	if p.Subscription == "" {
		h.logger.Warn("payment failure event carries no subscription reference", zap.String("app_id", appID))
		return nil
	}

	sub, err := h.repo.GetSubscriptionByProcessorID(ctx, appID, p.Subscription)
	if err != nil {
		if apperr.OfKind(err, apperr.KindNotFound) {
			h.logger.Warn("payment.failed for unknown subscription processor id", zap.String("processor_id", p.Subscription))
			return nil
		}
		return err
	}

	cust, err := h.repo.GetCustomer(ctx, appID, sub.CustomerID)
	if err != nil {
		return err
	}

	graceDays := 7
	if tc, err := h.tenants.Get(ctx, appID); err == nil && tc.DunningGraceDays > 0 {
		graceDays = tc.DunningGraceDays
	}

	cust = dunning.Delinquent(cust, graceDays)
	if p.AmountDue > 0 {
		cust = dunning.WithOutstanding(cust, p.AmountDue, p.Currency)
	}
	if _, err := h.repo.UpdateCustomer(ctx, cust); err != nil {
		return err
	}

	if h.events != nil {
		h.events.Record(billing.Event{
			ID:         uuid.New(),
			AppID:      appID,
			EventType:  "payment_failure",
			Source:     billing.EventSourceWebhook,
			EntityType: "customer",
			EntityID:   cust.ID.String(),
		})
	}
	return nil
}

// handleRefund updates an existing refund row by processor refund id, or
// creates one linked to the local charge by processor charge id; if the
// charge cannot be resolved locally it logs and skips; the next
// reconciliation pass picks it up.
func (h *Handlers) handleRefund(ctx context.Context, appID string, raw []byte) error {
	var p refundEventPayload
	if err := decode(raw, &p); err != nil {
		return apperr.Validation("malformed refund payload")
	}

	if existing, found, err := h.repo.GetRefundByProcessorID(ctx, appID, p.ID); err != nil {
		return err
	} else if found {
		existing.Status = mapRefundStatus(p.Status)
		_, err := h.repo.UpdateRefund(ctx, existing)
		return err
	}

	ch, found, err := h.repo.GetChargeByProcessorID(ctx, appID, p.Charge)
	if err != nil {
		return err
	}
	if !found {
		h.logger.Warn("refund event references a charge not yet known locally",
			zap.String("processor_charge_id", p.Charge), zap.String("processor_refund_id", p.ID))
		return nil
	}

	var reason *string
	if p.Reason != "" {
		reason = &p.Reason
	}
	processorID := p.ID
	_, err = h.repo.CreateRefund(ctx, billing.Refund{
		AppID:       appID,
		ChargeID:    ch.ID,
		ProcessorID: &processorID,
		AmountCents: p.AmountCents,
		Status:      mapRefundStatus(p.Status),
		Reason:      reason,
		ReferenceID: "webhook_refund_" + p.ID,
	})
	return err
}

// handleDispute upserts by (processor_dispute_id, app_id).
func (h *Handlers) handleDispute(ctx context.Context, appID string, raw []byte) error {
	var p disputeEventPayload
	if err := decode(raw, &p); err != nil {
		return apperr.Validation("malformed dispute payload")
	}

	var chargeID *uuid.UUID
	if ch, found, err := h.repo.GetChargeByProcessorID(ctx, appID, p.Charge); err != nil {
		return err
	} else if found {
		chargeID = &ch.ID
	}

	_, err := h.repo.UpsertDisputeByProcessorID(ctx, billing.Dispute{
		AppID:              appID,
		ChargeID:           chargeID,
		ProcessorDisputeID: p.ID,
		Status:             mapDisputeStatus(p.Status),
		AmountCents:        p.AmountCents,
		Reason:             p.Reason,
	})
	return err
}

func mapSubscriptionStatus(s string) billing.SubscriptionStatus {
	switch s {
	case "trialing":
		return billing.SubscriptionTrialing
	case "active":
		return billing.SubscriptionActive
	case "canceled", "cancelled":
		return billing.SubscriptionCanceled
	default:
		// incomplete, incomplete_expired, unpaid, past_due all mean the
		// processor could not collect; treat as past_due locally.
		return billing.SubscriptionPastDue
	}
}

func mapRefundStatus(s string) billing.RefundStatus {
	switch s {
	case "succeeded":
		return billing.RefundSucceeded
	case "failed", "canceled":
		return billing.RefundFailed
	default:
		return billing.RefundPending
	}
}

func mapDisputeStatus(s string) billing.DisputeStatus {
	switch s {
	case "won":
		return billing.DisputeWon
	case "lost":
		return billing.DisputeLost
	case "under_review", "warning_under_review":
		return billing.DisputeUnderReview
	default:
		return billing.DisputeNeedsResponse
	}
}

func unixPtrToTime(sec *int64) *time.Time {
	if sec == nil || *sec == 0 {
		return nil
	}
	t := time.Unix(*sec, 0).UTC()
	return &t
}

