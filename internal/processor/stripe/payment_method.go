package stripe

import (
	"context"

	"github.com/cyphera-core/billing-core/internal/processor"
	"github.com/stripe/stripe-go/v82"
)

func (g *Gateway) AttachPaymentMethod(ctx context.Context, processorCustomerID, paymentMethodToken string) (processor.PaymentMethod, error) {
	params := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(processorCustomerID),
	}
	pm, err := g.client.V1PaymentMethods.Attach(ctx, paymentMethodToken, params)
	if err != nil {
		return processor.PaymentMethod{}, classifyStripeErr(err, "attach_payment_method")
	}

	out := processor.PaymentMethod{ProcessorID: pm.ID}
	if pm.Card != nil {
		out.Brand = string(pm.Card.Brand)
		out.Last4 = pm.Card.Last4
		out.ExpMonth = int(pm.Card.ExpMonth)
		out.ExpYear = int(pm.Card.ExpYear)
	}
	return out, nil
}

func (g *Gateway) SetDefaultPaymentMethod(ctx context.Context, processorCustomerID, processorPaymentMethodID string) error {
	params := &stripe.CustomerUpdateParams{
		InvoiceSettings: &stripe.CustomerUpdateInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(processorPaymentMethodID),
		},
	}
	if _, err := g.client.V1Customers.Update(ctx, processorCustomerID, params); err != nil {
		return classifyStripeErr(err, "set_default_payment_method")
	}
	return nil
}
