package dunning

import (
	"context"
	"fmt"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/processor"
	"github.com/google/uuid"
)

// GatewayRetrier implements Retrier by re-attempting a charge against the
// customer's default payment method on file for the amount stashed in the
// dunning state when the customer first became delinquent. It follows
// charge.Service's local-pending-then-processor shape, without
// persisting a new Charge row itself; a successful retry is reconciled by
// the next subscription.updated/invoice.paid webhook, matching dunning's
// "never mutates subscription status directly" constraint.
type GatewayRetrier struct {
	repo billing.Repository
	gw   processor.Gateway
}

func NewGatewayRetrier(repo billing.Repository, gw processor.Gateway) *GatewayRetrier {
	return &GatewayRetrier{repo: repo, gw: gw}
}

func (r *GatewayRetrier) RetryCollection(ctx context.Context, appID, customerID string) error {
	id, err := uuid.Parse(customerID)
	if err != nil {
		return apperr.Validation("invalid customer id")
	}
	cust, err := r.repo.GetCustomer(ctx, appID, id)
	if err != nil {
		return err
	}
	if cust.ProcessorID == nil || *cust.ProcessorID == "" {
		return apperr.Conflict("customer has no processor account on file")
	}
	if cust.DefaultPaymentMethodID == nil {
		return apperr.Conflict("customer has no default payment method on file")
	}

	state := StateFromCustomer(cust)
	if state.OutstandingAmountCents <= 0 {
		return apperr.Conflict("no outstanding amount recorded for retry")
	}

	key := fmt.Sprintf("dunning-retry-%s-%d", customerID, state.AttemptCount+1)
	_, err = r.gw.CreateCharge(ctx, *cust.ProcessorID, state.OutstandingAmountCents, state.Currency, key)
	return err
}
