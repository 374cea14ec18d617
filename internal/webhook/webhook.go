// Package webhook implements inbound processor event ingress: signature
// verification on the raw body, dedupe on (app_id, event_id), persistence,
// and dispatch to a per-event-type handler.
package webhook

import (
	"context"
	"encoding/json"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/processor"
	"go.uber.org/zap"
)

// Receipt is Ingress.Deliver's result. A redelivery of an already-seen
// event_id comes back with Duplicate=true and no handler effect.
type Receipt struct {
	Received  bool
	Duplicate bool
}

// Ingress is the verify -> dedupe -> persist -> dispatch pipeline.
type Ingress struct {
	repo     billing.Repository
	gw       processor.Gateway
	handlers *Handlers
	logger   *zap.Logger
}

func New(repo billing.Repository, gw processor.Gateway, handlers *Handlers, logger *zap.Logger) *Ingress {
	return &Ingress{repo: repo, gw: gw, handlers: handlers, logger: logger}
}

// Deliver runs the full ingress pipeline for one inbound delivery. rawBody
// must be the exact, unparsed request body; verification runs on the
// original bytes, never on a re-serialized form.
func (i *Ingress) Deliver(ctx context.Context, appID, webhookSecret string, rawBody []byte, signature string) (Receipt, error) {
	if signature == "" {
		return Receipt{}, apperr.Validation("missing webhook signature header")
	}

	event, err := i.gw.VerifySignature(rawBody, signature, webhookSecret)
	if err != nil {
		return Receipt{}, err
	}

	created, err := i.repo.CreateWebhookRecord(ctx, billing.WebhookRecord{
		AppID:     appID,
		EventID:   event.ID,
		EventType: event.Type,
		Status:    billing.WebhookReceived,
		Payload:   json.RawMessage(event.Raw),
	})
	if err != nil {
		return Receipt{}, err
	}
	if !created {
		return Receipt{Received: true, Duplicate: true}, nil
	}

	i.process(ctx, appID, event)
	return Receipt{Received: true, Duplicate: false}, nil
}

// process dispatches to the handler for event.Type and records the
// processed/failed outcome. Handler errors never propagate to the caller
// of Deliver: the delivery has already been accepted and deduped, and
// failures belong to the retry controller from here on.
func (i *Ingress) process(ctx context.Context, appID string, event processor.Event) {
	rec, found, err := i.repo.GetWebhookRecord(ctx, appID, event.ID)
	if err != nil || !found {
		i.logger.Error("webhook record vanished immediately after create",
			zap.String("event_id", event.ID), zap.Error(err))
		return
	}

	outcome := i.handlers.Dispatch(ctx, appID, event)
	if outcome == nil {
		rec.Status = billing.WebhookProcessed
		rec.ErrorCode = nil
		if err := i.repo.UpdateWebhookRecord(ctx, rec); err != nil {
			i.logger.Error("failed to mark webhook processed",
				zap.String("event_id", event.ID), zap.Error(err))
		}
		return
	}

	code, retriable := classify(outcome)
	rec.Status = billing.WebhookFailed
	rec.AttemptCount = 1
	rec.ErrorCode = &code
	if retriable {
		next := nextAttemptAt(1)
		rec.NextAttemptAt = &next
	} else {
		now := timeNow()
		rec.DeadAt = &now
	}
	if err := i.repo.UpdateWebhookRecord(ctx, rec); err != nil {
		i.logger.Error("failed to mark webhook failed",
			zap.String("event_id", event.ID), zap.Error(err))
	}

	msg := outcome.Error()
	if err := i.repo.AppendWebhookAttempt(ctx, billing.WebhookAttempt{
		AppID:         appID,
		EventID:       event.ID,
		AttemptNumber: 1,
		Status:        billing.WebhookFailed,
		NextAttemptAt: rec.NextAttemptAt,
		ErrorCode:     &code,
		ErrorMessage:  &msg,
	}); err != nil {
		i.logger.Error("failed to append webhook attempt",
			zap.String("event_id", event.ID), zap.Error(err))
	}
}
