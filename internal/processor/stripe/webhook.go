package stripe

import (
	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/processor"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

// VerifySignature validates rawBody against the Stripe-Signature header
// byte-for-byte (webhook.ConstructEvent hashes the exact bytes passed in,
// never a re-serialized form) and decodes the event envelope.
func (g *Gateway) VerifySignature(rawBody []byte, signature, secret string) (processor.Event, error) {
	event, err := webhook.ConstructEvent(rawBody, signature, secret)
	if err != nil {
		g.logger.Warn("webhook signature verification failed", zap.Error(err))
		return processor.Event{}, apperr.Validation("webhook signature verification failed")
	}
	return processor.Event{
		ID:        event.ID,
		Type:      string(event.Type),
		CreatedAt: unixToTime(event.Created),
		Raw:       event.Data.Raw,
	}, nil
}
