package stripe

import (
	"context"

	"github.com/cyphera-core/billing-core/internal/processor"
	"github.com/stripe/stripe-go/v82"
)

func (g *Gateway) CreateSubscription(ctx context.Context, processorCustomerID, priceID string, quantity int64) (processor.Subscription, error) {
	params := &stripe.SubscriptionCreateParams{
		Customer: stripe.String(processorCustomerID),
		Items: []*stripe.SubscriptionCreateItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(quantity),
			},
		},
	}
	sub, err := g.client.V1Subscriptions.Create(ctx, params)
	if err != nil {
		return processor.Subscription{}, classifyStripeErr(err, "create_subscription")
	}

	out := processor.Subscription{ProcessorID: sub.ID}
	if len(sub.Items.Data) > 0 && sub.Items.Data[0] != nil {
		out.CurrentPeriodStart = unixToTime(sub.Items.Data[0].CurrentPeriodStart)
		out.CurrentPeriodEnd = unixToTime(sub.Items.Data[0].CurrentPeriodEnd)
	}
	return out, nil
}

func (g *Gateway) CancelSubscription(ctx context.Context, processorSubscriptionID string, immediately bool) error {
	if immediately {
		if _, err := g.client.V1Subscriptions.Cancel(ctx, processorSubscriptionID, &stripe.SubscriptionCancelParams{}); err != nil {
			return classifyStripeErr(err, "cancel_subscription")
		}
		return nil
	}

	params := &stripe.SubscriptionUpdateParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	if _, err := g.client.V1Subscriptions.Update(ctx, processorSubscriptionID, params); err != nil {
		return classifyStripeErr(err, "cancel_subscription")
	}
	return nil
}
