// Package stripe is the gateway's Stripe adapter: one client configured
// with an API key, one method per processor operation, and a dedicated
// webhook.go for signature verification.
package stripe

import (
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/processor"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
)

// Gateway implements processor.Gateway against the Stripe API.
type Gateway struct {
	client        *stripe.Client
	webhookSecret string
	logger        *zap.Logger
}

var _ processor.Gateway = (*Gateway)(nil)

// New configures a Gateway with an API key and the webhook signing secret
// for the tenant it serves; one gateway instance is scoped to one
// app_id's processor account.
func New(apiKey, webhookSecret string, logger *zap.Logger) *Gateway {
	return &Gateway{
		client:        stripe.NewClient(apiKey, nil),
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// classifyStripeErr maps a stripe-go error to the typed taxonomy:
// 4xx from the processor becomes PaymentProcessor, everything
// else (network, 5xx, timeout) is Internal so the caller's retry logic
// treats it as retriable.
func classifyStripeErr(err error, op string) error {
	if err == nil {
		return nil
	}
	var stripeErr *stripe.Error
	if ok := stripeErrAs(err, &stripeErr); ok {
		code := string(stripeErr.Code)
		if stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 {
			return apperr.Processor(code, stripeErr.Msg, err)
		}
	}
	return apperr.Internal(op+": processor request failed", err)
}

func stripeErrAs(err error, target **stripe.Error) bool {
	se, ok := err.(*stripe.Error)
	if !ok {
		return false
	}
	*target = se
	return true
}

func unixToTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
