package proration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/google/uuid"
)

// ApplyChangeInput is ApplySubscriptionChange's parameters. Subscription must already
// carry a verified AppID; there is no overload that skips tenant scoping.
type ApplyChangeInput struct {
	Subscription  billing.Subscription
	ChangeDate    time.Time
	NewPriceCents int64
	NewQuantity   int64
	NewPlanID     string
	Behavior      Behavior
}

// ApplyResult is what the caller needs to report back: the breakdown that
// was applied plus the charge rows it created (empty for BehaviorNone).
type ApplyResult struct {
	Breakdown Breakdown
	Credit    *billing.Charge
	Charge    *billing.Charge
}

// ApplySubscriptionChange atomically applies a mid-cycle subscription
// change: it inserts up to two charge rows, updates the subscription's
// price/plan and metadata footprint, and appends a proration_applied
// event, all within one transaction. Reference ids are
// deterministic (proration_sub_{id}_{date}_{credit|charge}); a second
// invocation for the same subscription on the same change date fails with
// Conflict instead of double-applying.
func ApplySubscriptionChange(ctx context.Context, repo billing.Repository, in ApplyChangeInput) (ApplyResult, error) {
	if in.Subscription.AppID == "" {
		return ApplyResult{}, apperr.Validation("app_id is required to apply a subscription change")
	}

	breakdown := Calculate(Input{
		ChangeDate:    in.ChangeDate,
		PeriodStart:   in.Subscription.CurrentPeriodStart,
		PeriodEnd:     in.Subscription.CurrentPeriodEnd,
		OldPriceCents: in.Subscription.PriceCents,
		OldQuantity:   in.Subscription.Quantity,
		NewPriceCents: in.NewPriceCents,
		NewQuantity:   in.NewQuantity,
	})

	result := ApplyResult{Breakdown: breakdown}
	dateStamp := utcMidnight(in.ChangeDate).Format("2006-01-02")
	appID := in.Subscription.AppID

	err := repo.WithTx(ctx, func(tx billing.Repository) error {
		if in.Behavior == BehaviorCreateProrations || in.Behavior == BehaviorAlwaysInvoice {
			if breakdown.OldPlan.AmountCents != 0 {
				ref := referenceID(in.Subscription.ID, dateStamp, "credit")
				if _, found, err := tx.GetChargeByReferenceID(ctx, appID, ref); err != nil {
					return err
				} else if found {
					return apperr.Conflict("proration already applied for this subscription today")
				}
				credit, err := tx.CreateCharge(ctx, billing.Charge{
					AppID:          appID,
					CustomerID:     in.Subscription.CustomerID,
					SubscriptionID: &in.Subscription.ID,
					ChargeType:     billing.ChargeProrationCredit,
					AmountCents:    -breakdown.OldPlan.AmountCents,
					Currency:       in.Subscription.Currency,
					Status:         billing.ChargePending,
					ReferenceID:    ref,
				})
				if err != nil {
					return err
				}
				result.Credit = &credit
			}

			if breakdown.NewPlan.AmountCents != 0 {
				ref := referenceID(in.Subscription.ID, dateStamp, "charge")
				if _, found, err := tx.GetChargeByReferenceID(ctx, appID, ref); err != nil {
					return err
				} else if found {
					return apperr.Conflict("proration already applied for this subscription today")
				}
				charge, err := tx.CreateCharge(ctx, billing.Charge{
					AppID:          appID,
					CustomerID:     in.Subscription.CustomerID,
					SubscriptionID: &in.Subscription.ID,
					ChargeType:     billing.ChargeProrationCharge,
					AmountCents:    breakdown.NewPlan.AmountCents,
					Currency:       in.Subscription.Currency,
					Status:         billing.ChargePending,
					ReferenceID:    ref,
				})
				if err != nil {
					return err
				}
				result.Charge = &charge
			}
		}

		updated := in.Subscription
		updated.PriceCents = in.NewPriceCents
		updated.Quantity = in.NewQuantity
		if in.NewPlanID != "" {
			updated.PlanID = in.NewPlanID
		}
		updated.Metadata = withLastChangeFootprint(updated.Metadata, in.ChangeDate, breakdown)

		if _, err := tx.UpdateSubscription(ctx, updated); err != nil {
			return err
		}

		payload, _ := json.Marshal(breakdown)
		return tx.AppendEvent(ctx, billing.Event{
			AppID:      appID,
			EventType:  "proration_applied",
			Source:     billing.EventSourceSystem,
			EntityType: "subscription",
			EntityID:   in.Subscription.ID.String(),
			Payload:    payload,
		})
	})
	if err != nil {
		return ApplyResult{}, err
	}
	return result, nil
}

func referenceID(subscriptionID uuid.UUID, dateStamp, kind string) string {
	return fmt.Sprintf("proration_sub_%s_%s_%s", subscriptionID, dateStamp, kind)
}

type lastChangeFootprint struct {
	ChangedAt time.Time `json:"changed_at"`
	Factor    float64   `json:"factor"`
	NetCents  int64     `json:"net_cents"`
	NetType   string    `json:"net_type"`
}

func withLastChangeFootprint(existing json.RawMessage, changeDate time.Time, b Breakdown) json.RawMessage {
	meta := map[string]interface{}{}
	if len(existing) > 0 {
		_ = json.Unmarshal(existing, &meta)
	}
	meta["last_proration"] = lastChangeFootprint{
		ChangedAt: utcMidnight(changeDate),
		Factor:    b.Factor,
		NetCents:  b.Net.AmountCents,
		NetType:   string(b.Net.Type),
	}
	out, err := json.Marshal(meta)
	if err != nil {
		return existing
	}
	return out
}
