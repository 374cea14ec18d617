package ledger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Consumer consumes gl.posting.requested events from the event bus and,
// per event, within a single database transaction, idempotently builds a
// balanced journal entry. It reuses the webhook ingress pipeline's
// dedupe-then-persist-then-classify shape (internal/webhook.Ingress),
// generalized from HTTP delivery to event-bus delivery.
type Consumer struct {
	repo   Repository
	logger *zap.Logger
}

func NewConsumer(repo Repository, logger *zap.Logger) *Consumer {
	return &Consumer{repo: repo, logger: logger}
}

// Outcome classifies how Consume disposed of one event, for the caller's
// ack/nack decision against the event-bus transport.
type Outcome int

const (
	// OutcomeProcessed means a new journal entry was created (or the event
	// was already processed; both ack the message).
	OutcomeProcessed Outcome = iota
	// OutcomeFailedEvent means the envelope failed validation and was
	// routed to failed_events; never retried (ack the message).
	OutcomeFailedEvent
	// OutcomeRetriable means a transient error occurred; the caller should
	// nack/redeliver up to its own bounded attempt count before
	// dead-lettering. Only transient database errors land here.
	OutcomeRetriable
)

// Consume processes one raw gl.posting.requested message body.
func (c *Consumer) Consume(ctx context.Context, raw []byte) Outcome {
	var ev PostingEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		// Malformed JSON is never retriable. No event_id is recoverable
		// from the envelope, so recordFailure can only log it.
		c.recordFailure(ctx, ev, raw, apperr.Validation("malformed json: "+err.Error()))
		return OutcomeFailedEvent
	}
	ev.Raw = raw

	if err := c.validate(ev); err != nil {
		c.recordFailure(ctx, ev, raw, err)
		return OutcomeFailedEvent
	}

	processed, err := c.repo.IsEventProcessed(ctx, ev.TenantID, ev.EventID)
	if err != nil {
		c.logger.Error("failed to check gl event idempotency", zap.String("event_id", ev.EventID), zap.Error(err))
		return OutcomeRetriable
	}
	if processed {
		return OutcomeProcessed
	}

	period, hasPeriod, err := c.repo.GetPeriodForDate(ctx, ev.TenantID, postedAtFor(ev))
	if err != nil {
		c.logger.Error("failed to resolve accounting period", zap.String("event_id", ev.EventID), zap.Error(err))
		return OutcomeRetriable
	}
	if hasPeriod && period.IsClosed {
		c.recordFailure(ctx, ev, raw, apperr.Conflict("closed_period"))
		return OutcomeFailedEvent
	}

	entry := toJournalEntry(ev)
	err = c.repo.WithTx(ctx, func(tx Repository) error {
		already, err := tx.IsEventProcessed(ctx, ev.TenantID, ev.EventID)
		if err != nil {
			return err
		}
		if already {
			return nil
		}
		if _, err := tx.CreateJournalEntry(ctx, entry); err != nil {
			return err
		}
		return tx.MarkEventProcessed(ctx, ev.TenantID, ev.EventID)
	})
	if err != nil {
		if apperr.OfKind(err, apperr.KindConflict) {
			// Unique-violation on (tenant_id, source_event_id): a
			// concurrent delivery of the same event won the race. This
			// delivery's work is done.
			return OutcomeProcessed
		}
		c.logger.Error("failed to post journal entry", zap.String("event_id", ev.EventID), zap.Error(err))
		return OutcomeRetriable
	}
	return OutcomeProcessed
}

func (c *Consumer) validate(ev PostingEvent) error {
	if ev.EventID == "" || ev.TenantID == "" {
		return apperr.Validation("event_id and tenant_id are required")
	}
	if ev.SourceModule == "" {
		return apperr.Validation("source_module is required")
	}
	return validateBalanced(ev.Currency, ev.Lines)
}

func (c *Consumer) recordFailure(ctx context.Context, ev PostingEvent, raw []byte, reason error) {
	if ev.TenantID == "" || ev.EventID == "" {
		c.logger.Error("gl posting event failed with no tenant/event id to record against", zap.Error(reason))
		return
	}
	if err := c.repo.RecordFailedEvent(ctx, ev.TenantID, ev.EventID, raw, reason.Error()); err != nil {
		c.logger.Error("failed to record failed gl event", zap.String("event_id", ev.EventID), zap.Error(err))
	}
}

func toJournalEntry(ev PostingEvent) JournalEntry {
	lines := make([]JournalLine, 0, len(ev.Lines))
	entryID := uuid.New()
	for i, l := range ev.Lines {
		var memo *string
		if l.Memo != "" {
			m := l.Memo
			memo = &m
		}
		lines = append(lines, JournalLine{
			JournalEntryID: entryID,
			LineNo:         i + 1,
			AccountRef:     l.AccountRef,
			DebitMinor:     l.DebitMinor,
			CreditMinor:    l.CreditMinor,
			Memo:           memo,
		})
	}
	var description, refType, refID *string
	if ev.Description != "" {
		description = &ev.Description
	}
	if ev.ReferenceType != "" {
		refType = &ev.ReferenceType
	}
	if ev.ReferenceID != "" {
		refID = &ev.ReferenceID
	}
	return JournalEntry{
		ID:            entryID,
		TenantID:      ev.TenantID,
		SourceModule:  ev.SourceModule,
		SourceEventID: ev.EventID,
		SourceSubject: ev.SourceSubject,
		PostedAt:      postedAtFor(ev),
		Currency:      ev.Currency,
		Description:   description,
		ReferenceType: refType,
		ReferenceID:   refID,
		Lines:         lines,
	}
}

// timeNow is a seam so tests can fix the consumer's notion of "now"
// (the wire envelope carries no explicit posted_at; the consumer posts at
// processing time, same convention as internal/webhook's timeNow).
var timeNow = func() time.Time { return time.Now().UTC() }

func postedAtFor(ev PostingEvent) time.Time {
	return timeNow()
}
