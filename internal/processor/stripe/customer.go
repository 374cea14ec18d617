package stripe

import (
	"context"

	"github.com/cyphera-core/billing-core/internal/processor"
	"github.com/stripe/stripe-go/v82"
)

func (g *Gateway) CreateCustomer(ctx context.Context, email, name string) (processor.Customer, error) {
	params := &stripe.CustomerCreateParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	cust, err := g.client.V1Customers.Create(ctx, params)
	if err != nil {
		return processor.Customer{}, classifyStripeErr(err, "create_customer")
	}
	return processor.Customer{ProcessorID: cust.ID}, nil
}

func (g *Gateway) UpdateCustomer(ctx context.Context, processorID, email, name string) error {
	params := &stripe.CustomerUpdateParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	if _, err := g.client.V1Customers.Update(ctx, processorID, params); err != nil {
		return classifyStripeErr(err, "update_customer")
	}
	return nil
}
