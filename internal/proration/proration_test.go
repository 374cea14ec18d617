package proration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateUpgradeMidCycle(t *testing.T) {
	b := Calculate(Input{
		ChangeDate:    date(2026, 1, 15),
		PeriodStart:   date(2026, 1, 1),
		PeriodEnd:     date(2026, 1, 31),
		OldPriceCents: 2500,
		OldQuantity:   1,
		NewPriceCents: 5000,
		NewQuantity:   1,
	})

	assert.Equal(t, 30, b.DaysTotal)
	assert.Equal(t, 16, b.DaysRemaining)
	assert.InDelta(t, 0.5333, b.Factor, 0.0001)
	assert.Equal(t, int64(1333), b.OldPlan.AmountCents)
	assert.Equal(t, int64(2667), b.NewPlan.AmountCents)
	assert.Equal(t, int64(1334), b.Net.AmountCents)
	assert.Equal(t, ChangeTypeCharge, b.Net.Type)
}

func TestCalculateAnnualToMonthlyDowngradeOldPlanSide(t *testing.T) {
	// The new-plan side of an interval change is handled by the
	// Subscription Engine's cancel-then-create flow (full price, no
	// proration), not by Calculate; see CancellationRefundFactor below,
	// which computes the old plan's credit side of the same scenario.
	// 2026 is not a leap year, so Jan 1 -> Dec 31 is 364 days, not 365;
	// Jul 1 -> Dec 31 is 183 of those days remaining.
	factor := CancellationRefundFactor(date(2026, 7, 1), date(2026, 1, 1), date(2026, 12, 31))
	assert.InDelta(t, 183.0/364.0, factor, 0.0001)

	result := CancellationRefund(12000, factor, CancellationPartialRefund)
	assert.Equal(t, ActionRefund, result.Action)
	assert.Equal(t, int64(6032), result.AmountCents)
}

func TestCalculateFactorBoundaries(t *testing.T) {
	t.Run("change at period start", func(t *testing.T) {
		b := Calculate(Input{
			ChangeDate:  date(2026, 1, 1),
			PeriodStart: date(2026, 1, 1),
			PeriodEnd:   date(2026, 1, 31),
		})
		assert.Equal(t, 1.0, b.Factor)
		assert.Equal(t, 0, b.DaysUsed)
		assert.Equal(t, b.DaysTotal, b.DaysRemaining)
	})

	t.Run("change at or after period end", func(t *testing.T) {
		b := Calculate(Input{
			ChangeDate:  date(2026, 2, 1),
			PeriodStart: date(2026, 1, 1),
			PeriodEnd:   date(2026, 1, 31),
		})
		assert.Equal(t, 0.0, b.Factor)
		assert.Equal(t, 0, b.DaysRemaining)
	})
}

func TestCalculateIsPure(t *testing.T) {
	in := Input{
		ChangeDate:    date(2026, 3, 10),
		PeriodStart:   date(2026, 3, 1),
		PeriodEnd:     date(2026, 3, 31),
		OldPriceCents: 1000,
		OldQuantity:   2,
		NewPriceCents: 1500,
		NewQuantity:   2,
	}
	assert.Equal(t, Calculate(in), Calculate(in))
}

func TestCancellationRefundBehaviors(t *testing.T) {
	factor := 0.5

	refund := CancellationRefund(1000, factor, CancellationPartialRefund)
	assert.Equal(t, ActionRefund, refund.Action)
	assert.Equal(t, int64(500), refund.AmountCents)

	credit := CancellationRefund(1000, factor, CancellationAccountCredit)
	assert.Equal(t, ActionAccountCredit, credit.Action)
	assert.Equal(t, int64(500), credit.AmountCents)

	none := CancellationRefund(1000, factor, CancellationNone)
	assert.Equal(t, ActionNone, none.Action)
	assert.Equal(t, int64(0), none.AmountCents)
}
