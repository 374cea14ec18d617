package proration

import "time"

// CancellationRefundFactor reuses the time-proration day-counting rules to
// compute the fraction of the current period remaining as of changeDate
// (daysRemaining / daysTotal).
func CancellationRefundFactor(changeDate, periodStart, periodEnd time.Time) float64 {
	factor, _, _, _ := timeProrationFactor(changeDate, periodStart, periodEnd)
	return factor
}

// CancellationAction is the outcome of CancellationRefund: what the caller
// should do with AmountCents.
type CancellationAction string

const (
	ActionRefund        CancellationAction = "refund"
	ActionAccountCredit CancellationAction = "account_credit"
	ActionNone          CancellationAction = "none"
)

// CancellationResult is the output of CancellationRefund.
type CancellationResult struct {
	Action      CancellationAction
	AmountCents int64
}

// CancellationRefund computes refund_amount = total_paid * factor and maps
// the configured behavior to an action.
func CancellationRefund(totalPaidCents int64, factor float64, behavior CancellationBehavior) CancellationResult {
	amount := roundCents(float64(totalPaidCents) * factor)

	switch behavior {
	case CancellationPartialRefund:
		return CancellationResult{Action: ActionRefund, AmountCents: amount}
	case CancellationAccountCredit:
		return CancellationResult{Action: ActionAccountCredit, AmountCents: amount}
	default:
		return CancellationResult{Action: ActionNone, AmountCents: 0}
	}
}
