package postgres

import (
	"context"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/ledger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const periodCols = `id, tenant_id, period_start, period_end, is_closed, close_requested_at,
	closed_at, closed_by, close_reason, close_hash`

func (s *Store) GetPeriod(ctx context.Context, tenantID string, periodID uuid.UUID) (ledger.AccountingPeriod, error) {
	row := s.db.QueryRow(ctx, `SELECT `+periodCols+` FROM accounting_periods WHERE tenant_id = $1 AND id = $2`,
		tenantID, toPgUUID(periodID))
	return scanPeriod(row)
}

// GetPeriodForUpdate takes the row lock that serializes concurrent close
// attempts. Only meaningful inside a transaction; the lock is released at
// commit/rollback.
func (s *Store) GetPeriodForUpdate(ctx context.Context, tenantID string, periodID uuid.UUID) (ledger.AccountingPeriod, error) {
	row := s.db.QueryRow(ctx, `SELECT `+periodCols+` FROM accounting_periods WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		tenantID, toPgUUID(periodID))
	return scanPeriod(row)
}

func (s *Store) GetPeriodForDate(ctx context.Context, tenantID string, at time.Time) (ledger.AccountingPeriod, bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+periodCols+` FROM accounting_periods
		WHERE tenant_id = $1 AND period_start <= $2 AND period_end > $2
	`, tenantID, toPgTimestamptz(at))
	p, err := scanPeriod(row)
	if apperr.OfKind(err, apperr.KindNotFound) {
		return ledger.AccountingPeriod{}, false, nil
	}
	if err != nil {
		return ledger.AccountingPeriod{}, false, err
	}
	return p, true, nil
}

func (s *Store) ClosePeriod(ctx context.Context, p ledger.AccountingPeriod) (ledger.AccountingPeriod, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE accounting_periods SET
			is_closed = true, close_requested_at = $3, closed_at = $4, closed_by = $5,
			close_reason = $6, close_hash = $7
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+periodCols,
		p.TenantID, toPgUUID(p.ID), toPgTimestamptzPtr(p.CloseRequestedAt), toPgTimestamptzPtr(p.ClosedAt),
		toPgTextPtr(p.ClosedBy), toPgTextPtr(p.CloseReason), toPgTextPtr(p.CloseHash))
	return scanPeriod(row)
}

func (s *Store) PutPeriodSummarySnapshot(ctx context.Context, snap ledger.PeriodSummarySnapshot) (bool, error) {
	var inserted bool
	err := s.db.QueryRow(ctx, `
		INSERT INTO period_summary_snapshots
			(tenant_id, period_id, currency, journal_count, line_count, total_debits_minor, total_credits_minor, checksum)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (tenant_id, period_id, currency) DO NOTHING
		RETURNING true
	`, snap.TenantID, toPgUUID(snap.PeriodID), snap.Currency, snap.JournalCount, snap.LineCount,
		snap.TotalDebitsMinor, snap.TotalCreditsMinor, toPgTextPtr(snap.Checksum)).Scan(&inserted)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, apperr.Internal("failed to insert period summary snapshot", err)
	}
	return inserted, nil
}

// SumPeriodActivity computes, per currency, the aggregate a close needs to
// snapshot: journal_count, line_count, total debits/credits
// over every entry in [periodStart, periodEnd).
func (s *Store) SumPeriodActivity(ctx context.Context, tenantID string, periodStart, periodEnd time.Time) ([]ledger.PeriodSummarySnapshot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT je.currency,
			COUNT(DISTINCT je.id) AS journal_count,
			COUNT(jl.journal_entry_id) AS line_count,
			COALESCE(SUM(jl.debit_minor), 0) AS total_debits,
			COALESCE(SUM(jl.credit_minor), 0) AS total_credits
		FROM journal_entries je
		JOIN journal_lines jl ON jl.journal_entry_id = je.id
		WHERE je.tenant_id = $1 AND je.posted_at >= $2 AND je.posted_at < $3
		GROUP BY je.currency
	`, tenantID, toPgTimestamptz(periodStart), toPgTimestamptz(periodEnd))
	if err != nil {
		return nil, apperr.Internal("failed to sum period activity", err)
	}
	defer rows.Close()

	var out []ledger.PeriodSummarySnapshot
	for rows.Next() {
		var snap ledger.PeriodSummarySnapshot
		if err := rows.Scan(&snap.Currency, &snap.JournalCount, &snap.LineCount,
			&snap.TotalDebitsMinor, &snap.TotalCreditsMinor); err != nil {
			return nil, apperr.Internal("failed to scan period activity row", err)
		}
		snap.TenantID = tenantID
		out = append(out, snap)
	}
	return out, rows.Err()
}

func scanPeriod(row rowScanner) (ledger.AccountingPeriod, error) {
	var p ledger.AccountingPeriod
	var id pgtype.UUID
	var closeRequestedAt, closedAt pgtype.Timestamptz
	var closedBy, closeReason, closeHash pgtype.Text

	err := row.Scan(&id, &p.TenantID, &p.PeriodStart, &p.PeriodEnd, &p.IsClosed, &closeRequestedAt,
		&closedAt, &closedBy, &closeReason, &closeHash)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ledger.AccountingPeriod{}, apperr.NotFound("accounting period not found")
		}
		return ledger.AccountingPeriod{}, apperr.Internal("failed to read accounting period", err)
	}
	p.ID = fromPgUUID(id)
	p.CloseRequestedAt = fromPgTimestamptzPtr(closeRequestedAt)
	p.ClosedAt = fromPgTimestamptzPtr(closedAt)
	p.ClosedBy = fromPgText(closedBy)
	p.CloseReason = fromPgText(closeReason)
	p.CloseHash = fromPgText(closeHash)
	return p, nil
}
