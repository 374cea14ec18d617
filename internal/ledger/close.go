package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CloseWorkflow implements period close: validate-close, close and
// close-status. Close runs in one WithTx transaction, as
// internal/proration.ApplySubscriptionChange does, and additionally locks
// the period row with GetPeriodForUpdate (SELECT ... FOR UPDATE) before
// mutating it.
type CloseWorkflow struct {
	repo   Repository
	logger *zap.Logger
}

func NewCloseWorkflow(repo Repository, logger *zap.Logger) *CloseWorkflow {
	return &CloseWorkflow{repo: repo, logger: logger}
}

// ValidateClose is read-only: it reports whether the period can be
// closed and why not.
func (w *CloseWorkflow) ValidateClose(ctx context.Context, tenantID string, periodID uuid.UUID) (ValidateCloseResult, error) {
	period, err := w.repo.GetPeriod(ctx, tenantID, periodID)
	if err != nil {
		if apperr.OfKind(err, apperr.KindNotFound) {
			return ValidateCloseResult{CanClose: false, Issues: []string{IssuePeriodNotFound}}, nil
		}
		return ValidateCloseResult{}, err
	}

	var issues []string
	if period.IsClosed {
		issues = append(issues, IssuePeriodAlreadyClosed)
	}
	unbalanced, err := w.repo.ListUnbalancedEntries(ctx, tenantID, period.PeriodStart, period.PeriodEnd)
	if err != nil {
		return ValidateCloseResult{}, err
	}
	if len(unbalanced) > 0 {
		issues = append(issues, IssueUnbalancedEntries)
	}
	return ValidateCloseResult{CanClose: len(issues) == 0, Issues: issues}, nil
}

// Close is atomic, row-locked and idempotent. A period already closed
// returns its original close metadata unchanged: no re-validation, no new
// snapshot row, no mutation.
func (w *CloseWorkflow) Close(ctx context.Context, tenantID string, periodID uuid.UUID, closedBy string, closeReason *string) (AccountingPeriod, error) {
	var result AccountingPeriod
	err := w.repo.WithTx(ctx, func(tx Repository) error {
		period, err := tx.GetPeriodForUpdate(ctx, tenantID, periodID)
		if err != nil {
			return err
		}
		if period.ClosedAt != nil {
			result = period
			return nil
		}

		unbalanced, err := tx.ListUnbalancedEntries(ctx, tenantID, period.PeriodStart, period.PeriodEnd)
		if err != nil {
			return err
		}
		if len(unbalanced) > 0 {
			return apperr.Conflict("period has unbalanced entries and cannot be closed")
		}

		snapshots, err := tx.SumPeriodActivity(ctx, tenantID, period.PeriodStart, period.PeriodEnd)
		if err != nil {
			return err
		}
		for i := range snapshots {
			snapshots[i].PeriodID = periodID
			if _, err := tx.PutPeriodSummarySnapshot(ctx, snapshots[i]); err != nil {
				return err
			}
		}

		var journalCount, lineCount, debits, credits int64
		for _, snap := range snapshots {
			journalCount += snap.JournalCount
			lineCount += snap.LineCount
			debits += snap.TotalDebitsMinor
			credits += snap.TotalCreditsMinor
		}
		balanceRowCount := int64(len(snapshots))

		hash := closeHash(tenantID, periodID, journalCount, debits, credits, balanceRowCount)

		now := timeNow()
		period.ClosedAt = &now
		period.ClosedBy = &closedBy
		period.CloseReason = closeReason
		period.CloseHash = &hash
		period.IsClosed = true
		if period.CloseRequestedAt == nil {
			period.CloseRequestedAt = &now
		}

		updated, err := tx.ClosePeriod(ctx, period)
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return AccountingPeriod{}, err
	}
	return result, nil
}

// CloseStatus reports OPEN, or CLOSED with the original close metadata.
func (w *CloseWorkflow) CloseStatus(ctx context.Context, tenantID string, periodID uuid.UUID) (CloseStatus, error) {
	period, err := w.repo.GetPeriod(ctx, tenantID, periodID)
	if err != nil {
		return CloseStatus{}, err
	}
	if period.ClosedAt == nil {
		return CloseStatus{State: "OPEN"}, nil
	}
	return CloseStatus{
		State:       "CLOSED",
		ClosedAt:    period.ClosedAt,
		ClosedBy:    period.ClosedBy,
		CloseReason: period.CloseReason,
		CloseHash:   period.CloseHash,
	}, nil
}

// closeHash computes the SHA-256 witness over (tenant_id, period_id,
// journal_count, debits_minor, credits_minor, balance_row_count). The
// input string layout is fixed; re-running Close on unchanged underlying
// data must reproduce the same hash.
func closeHash(tenantID string, periodID uuid.UUID, journalCount, debits, credits, balanceRowCount int64) string {
	input := fmt.Sprintf("%s|%s|%d|%d|%d|%d", tenantID, periodID, journalCount, debits, credits, balanceRowCount)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
