// Package proration implements mid-cycle plan-change math: a pure
// time-proration calculation, its atomic application against a
// subscription, and the cancellation-refund variant of the same factor
// computation. All three are free functions; the calculation itself needs
// no external collaborators.
package proration

import (
	"math"
	"time"
)

// Behavior enumerates how ApplySubscriptionChange writes charges.
type Behavior string

const (
	BehaviorCreateProrations Behavior = "create_prorations"
	BehaviorNone             Behavior = "none"
	BehaviorAlwaysInvoice    Behavior = "always_invoice"
)

// CancellationBehavior enumerates the action a subscription cancellation's
// refund computation takes.
type CancellationBehavior string

const (
	CancellationPartialRefund CancellationBehavior = "partial_refund"
	CancellationAccountCredit CancellationBehavior = "account_credit"
	CancellationNone          CancellationBehavior = "none"
)

// ChangeType is the sign of the net amount in a Breakdown.
type ChangeType string

const (
	ChangeTypeCharge ChangeType = "charge"
	ChangeTypeCredit ChangeType = "credit"
)

// Input is the time-proration calculation's parameters.
type Input struct {
	ChangeDate    time.Time
	PeriodStart   time.Time
	PeriodEnd     time.Time
	OldPriceCents int64
	OldQuantity   int64
	NewPriceCents int64
	NewQuantity   int64
}

// PlanAmount is one side of a Breakdown.
type PlanAmount struct {
	AmountCents int64
}

// NetChange is the signed result of a proration calculation.
type NetChange struct {
	AmountCents int64
	Type        ChangeType
}

// Breakdown is the structured output of Calculate.
type Breakdown struct {
	Factor        float64
	DaysTotal     int
	DaysUsed      int
	DaysRemaining int
	OldPlan       PlanAmount
	NewPlan       PlanAmount
	Net           NetChange
}

const day = 24 * time.Hour

func utcMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// timeProrationFactor implements the algorithm's day-counting rules
// exactly, including the boundary cases and the floor/ceil asymmetry:
// days_used and days_remaining are not required to sum to days_total for
// periods that don't divide evenly.
func timeProrationFactor(changeDate, periodStart, periodEnd time.Time) (factor float64, daysTotal, daysUsed, daysRemaining int) {
	change := utcMidnight(changeDate)
	start := utcMidnight(periodStart)
	end := utcMidnight(periodEnd)

	daysTotal = int(math.Round(end.Sub(start).Hours() / 24))

	switch {
	case change.Equal(start):
		return 1.0, daysTotal, 0, daysTotal
	case !change.Before(end):
		return 0.0, daysTotal, daysTotal, 0
	default:
		daysUsed = int(math.Floor(change.Sub(start).Hours() / 24))
		daysRemaining = int(math.Ceil(end.Sub(change).Hours() / 24))
		factor = roundTo(float64(daysRemaining)/float64(daysTotal), 4)
		return factor, daysTotal, daysUsed, daysRemaining
	}
}

// roundCents applies half-up rounding to the nearest cent
// (1333.25 -> 1333, 2666.5 -> 2667).
func roundCents(amount float64) int64 {
	return int64(math.Round(amount))
}

func roundTo(v float64, decimals int) float64 {
	mult := math.Pow(10, float64(decimals))
	return math.Round(v*mult) / mult
}

// Calculate computes the proration breakdown for a subscription change
// within a single billing period. It is a pure function of its inputs:
// Calculate(x) == Calculate(x) always.
func Calculate(in Input) Breakdown {
	factor, daysTotal, daysUsed, daysRemaining := timeProrationFactor(in.ChangeDate, in.PeriodStart, in.PeriodEnd)

	oldCredit := roundCents(float64(in.OldPriceCents*in.OldQuantity) * factor)
	newCharge := roundCents(float64(in.NewPriceCents*in.NewQuantity) * factor)
	net := newCharge - oldCredit

	changeType := ChangeTypeCharge
	if net < 0 {
		changeType = ChangeTypeCredit
	}

	return Breakdown{
		Factor:        factor,
		DaysTotal:     daysTotal,
		DaysUsed:      daysUsed,
		DaysRemaining: daysRemaining,
		OldPlan:       PlanAmount{AmountCents: oldCredit},
		NewPlan:       PlanAmount{AmountCents: newCharge},
		Net:           NetChange{AmountCents: net, Type: changeType},
	}
}
