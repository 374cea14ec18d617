package webhook

import (
	"context"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/processor"
	"go.uber.org/zap"
)

// eventFromRecord reconstructs the processor.Event a retry replays the
// handler with. The signature has already been verified once at ingress
// time; retries never re-verify, they only re-dispatch the stored payload.
func eventFromRecord(rec billing.WebhookRecord) processor.Event {
	return processor.Event{
		ID:        rec.EventID,
		Type:      rec.EventType,
		CreatedAt: rec.CreatedAt,
		Raw:       rec.Payload,
	}
}

// backoffSchedule is the retry controller's fixed backoff:
// attempt 1 retries after 30s, attempt 2 after 2m, and so on. Attempt
// numbers beyond len(backoffSchedule) have no further retry; maxAttempts
// enforces that.
var backoffSchedule = []time.Duration{
	30 * time.Second,
	2 * time.Minute,
	15 * time.Minute,
	time.Hour,
	4 * time.Hour,
}

const maxAttempts = 5

// Non-retriable error codes: these move straight to
// dead-letter regardless of remaining attempts.
const (
	codeSignatureInvalid = "signature_invalid"
	codeUnknownEventType = "unknown_event_type"
	codeValidationError  = "validation_error"
	codeProcessorError   = "payment_processor_error"
	codeInternalError    = "internal_error"
)

// timeNow exists as a seam so tests can observe deterministic timestamps
// without monkeypatching time.Now directly.
var timeNow = func() time.Time { return time.Now().UTC() }

func nextAttemptAt(attempt int) time.Time {
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(backoffSchedule) {
		idx = len(backoffSchedule) - 1
	}
	return timeNow().Add(backoffSchedule[idx])
}

// classify maps a handler error to a webhook error code and whether the
// retry controller should schedule another attempt. Non-retriable codes
// are signature_invalid, unknown_event_type and validation_error;
// everything else retries up to maxAttempts.
func classify(err error) (code string, retriable bool) {
	if err == nil {
		return "", false
	}
	apiErr, ok := apperr.As(err)
	if !ok {
		return codeInternalError, true
	}
	switch apiErr.Kind {
	case apperr.KindValidation:
		if apiErr.Message == errSignatureInvalid {
			return codeSignatureInvalid, false
		}
		if apiErr.Message == errUnknownEventType {
			return codeUnknownEventType, false
		}
		return codeValidationError, false
	case apperr.KindPaymentProcessor:
		return codeProcessorError, true
	default:
		return codeInternalError, true
	}
}

const (
	errSignatureInvalid = "webhook signature verification failed"
	errUnknownEventType = "unknown webhook event type"
)

// Controller is the background retry processor: it polls
// ListDueWebhookRetries, replays the handler inside a
// status=processing transition, and advances the record (next attempt,
// or dead-letter once maxAttempts is exhausted).
type Controller struct {
	repo     billing.Repository
	handlers *Handlers
	logger   *zap.Logger
	batch    int
}

func NewController(repo billing.Repository, handlers *Handlers, logger *zap.Logger) *Controller {
	return &Controller{repo: repo, handlers: handlers, logger: logger, batch: 50}
}

// RunDue processes every record currently due for retry and reports how
// many it attempted.
func (c *Controller) RunDue(ctx context.Context) (int, error) {
	due, err := c.repo.ListDueWebhookRetries(ctx, timeNow(), c.batch)
	if err != nil {
		return 0, err
	}
	for _, rec := range due {
		c.retryOne(ctx, rec)
	}
	return len(due), nil
}

func (c *Controller) retryOne(ctx context.Context, rec billing.WebhookRecord) {
	rec.Status = billing.WebhookProcessing
	if err := c.repo.UpdateWebhookRecord(ctx, rec); err != nil {
		c.logger.Error("failed to mark webhook processing", zap.String("event_id", rec.EventID), zap.Error(err))
		return
	}

	event := eventFromRecord(rec)
	outcome := c.handlers.Dispatch(ctx, rec.AppID, event)
	attempt := rec.AttemptCount + 1

	if outcome == nil {
		rec.Status = billing.WebhookProcessed
		rec.AttemptCount = attempt
		rec.ErrorCode = nil
		rec.NextAttemptAt = nil
		if err := c.repo.UpdateWebhookRecord(ctx, rec); err != nil {
			c.logger.Error("failed to mark webhook processed on retry",
				zap.String("event_id", rec.EventID), zap.Error(err))
		}
		if err := c.repo.AppendWebhookAttempt(ctx, billing.WebhookAttempt{
			AppID:         rec.AppID,
			EventID:       rec.EventID,
			AttemptNumber: attempt,
			Status:        billing.WebhookProcessed,
		}); err != nil {
			c.logger.Error("failed to append retry attempt",
				zap.String("event_id", rec.EventID), zap.Error(err))
		}
		return
	}

	code, retriable := classify(outcome)
	rec.AttemptCount = attempt
	rec.ErrorCode = &code
	rec.Status = billing.WebhookFailed

	var nextAttempt *time.Time
	if retriable && attempt < maxAttempts {
		next := nextAttemptAt(attempt)
		rec.NextAttemptAt = &next
		nextAttempt = &next
	} else {
		now := timeNow()
		rec.DeadAt = &now
		rec.NextAttemptAt = nil
	}
	if err := c.repo.UpdateWebhookRecord(ctx, rec); err != nil {
		c.logger.Error("failed to advance webhook record after retry",
			zap.String("event_id", rec.EventID), zap.Error(err))
	}

	msg := outcome.Error()
	if err := c.repo.AppendWebhookAttempt(ctx, billing.WebhookAttempt{
		AppID:         rec.AppID,
		EventID:       rec.EventID,
		AttemptNumber: attempt,
		Status:        billing.WebhookFailed,
		NextAttemptAt: nextAttempt,
		ErrorCode:     &code,
		ErrorMessage:  &msg,
	}); err != nil {
		c.logger.Error("failed to append retry attempt",
			zap.String("event_id", rec.EventID), zap.Error(err))
	}
}
