package stripe

import (
	"context"

	"github.com/cyphera-core/billing-core/internal/processor"
	"github.com/stripe/stripe-go/v82"
)

func (g *Gateway) CreateCharge(ctx context.Context, processorCustomerID string, amountCents int64, currency, idempotencyKey string) (processor.Charge, error) {
	params := &stripe.ChargeCreateParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Customer: stripe.String(processorCustomerID),
	}
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	ch, err := g.client.V1Charges.Create(ctx, params)
	if err != nil {
		return processor.Charge{}, classifyStripeErr(err, "create_charge")
	}

	out := processor.Charge{ProcessorID: ch.ID, Status: string(ch.Status)}
	if ch.FailureCode != "" {
		out.FailureCode = ch.FailureCode
		out.FailureMessage = ch.FailureMessage
	}
	return out, nil
}

func (g *Gateway) CreateRefund(ctx context.Context, processorChargeID string, amountCents int64) (processor.Refund, error) {
	params := &stripe.RefundCreateParams{
		Charge: stripe.String(processorChargeID),
		Amount: stripe.Int64(amountCents),
	}
	r, err := g.client.V1Refunds.Create(ctx, params)
	if err != nil {
		return processor.Refund{}, classifyStripeErr(err, "create_refund")
	}
	return processor.Refund{ProcessorID: r.ID, Status: string(r.Status)}, nil
}
