package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/ledger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

func (s *Store) IsEventProcessed(ctx context.Context, tenantID, eventID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM processed_events WHERE tenant_id = $1 AND event_id = $2)
	`, tenantID, eventID).Scan(&exists)
	if err != nil {
		return false, apperr.Internal("failed to check processed_events", err)
	}
	return exists, nil
}

func (s *Store) MarkEventProcessed(ctx context.Context, tenantID, eventID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO processed_events (tenant_id, event_id, processed_at) VALUES ($1, $2, now())
		ON CONFLICT (tenant_id, event_id) DO NOTHING
	`, tenantID, eventID)
	if err != nil {
		return apperr.Internal("failed to mark event processed", err)
	}
	return nil
}

const journalEntryCols = `id, tenant_id, source_module, source_event_id, source_subject, posted_at,
	currency, description, reference_type, reference_id, reverses_entry_id, created_at`

func (s *Store) CreateJournalEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO journal_entries (id, tenant_id, source_module, source_event_id, source_subject,
			posted_at, currency, description, reference_type, reference_id, reverses_entry_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING `+journalEntryCols,
		toPgUUID(e.ID), e.TenantID, e.SourceModule, e.SourceEventID, e.SourceSubject, toPgTimestamptz(e.PostedAt),
		e.Currency, toPgTextPtr(e.Description), toPgTextPtr(e.ReferenceType), toPgTextPtr(e.ReferenceID),
		toPgUUIDPtr(e.ReversesEntryID))
	created, err := scanJournalEntry(row)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.JournalEntry{}, apperr.Conflict("journal entry already posted for this source_event_id")
		}
		return ledger.JournalEntry{}, err
	}

	for _, l := range e.Lines {
		if _, err := s.db.Exec(ctx, `
			INSERT INTO journal_lines (journal_entry_id, line_no, account_ref, debit_minor, credit_minor, memo)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, toPgUUID(created.ID), l.LineNo, l.AccountRef, l.DebitMinor, l.CreditMinor, toPgTextPtr(l.Memo)); err != nil {
			return ledger.JournalEntry{}, apperr.Internal("failed to insert journal line", err)
		}
	}
	created.Lines = e.Lines
	return created, nil
}

func (s *Store) GetJournalEntry(ctx context.Context, tenantID string, id uuid.UUID) (ledger.JournalEntry, error) {
	row := s.db.QueryRow(ctx, `SELECT `+journalEntryCols+` FROM journal_entries WHERE tenant_id = $1 AND id = $2`,
		tenantID, toPgUUID(id))
	entry, err := scanJournalEntry(row)
	if err != nil {
		return ledger.JournalEntry{}, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT journal_entry_id, line_no, account_ref, debit_minor, credit_minor, memo
		FROM journal_lines WHERE journal_entry_id = $1 ORDER BY line_no
	`, toPgUUID(entry.ID))
	if err != nil {
		return ledger.JournalEntry{}, apperr.Internal("failed to read journal lines", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l ledger.JournalLine
		var entryID pgtype.UUID
		var memo pgtype.Text
		if err := rows.Scan(&entryID, &l.LineNo, &l.AccountRef, &l.DebitMinor, &l.CreditMinor, &memo); err != nil {
			return ledger.JournalEntry{}, apperr.Internal("failed to scan journal line", err)
		}
		l.JournalEntryID = fromPgUUID(entryID)
		l.Memo = fromPgText(memo)
		entry.Lines = append(entry.Lines, l)
	}
	return entry, rows.Err()
}

func (s *Store) ListUnbalancedEntries(ctx context.Context, tenantID string, periodStart, periodEnd time.Time) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `
		SELECT je.id
		FROM journal_entries je
		JOIN journal_lines jl ON jl.journal_entry_id = je.id
		WHERE je.tenant_id = $1 AND je.posted_at >= $2 AND je.posted_at < $3
		GROUP BY je.id
		HAVING COALESCE(SUM(jl.debit_minor), 0) != COALESCE(SUM(jl.credit_minor), 0)
	`, tenantID, toPgTimestamptz(periodStart), toPgTimestamptz(periodEnd))
	if err != nil {
		return nil, apperr.Internal("failed to list unbalanced entries", err)
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Internal("failed to scan unbalanced entry id", err)
		}
		ids = append(ids, fromPgUUID(id))
	}
	return ids, rows.Err()
}

func (s *Store) RecordFailedEvent(ctx context.Context, tenantID, eventID string, envelope []byte, reason string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO failed_events (tenant_id, event_id, envelope, reason, failed_at)
		VALUES ($1,$2,$3,$4,now())
		ON CONFLICT (tenant_id, event_id) DO UPDATE SET envelope = $3, reason = $4, failed_at = now()
	`, tenantID, eventID, envelope, reason)
	if err != nil {
		return apperr.Internal("failed to record failed event", err)
	}
	return nil
}

func scanJournalEntry(row rowScanner) (ledger.JournalEntry, error) {
	var e ledger.JournalEntry
	var id, reversesID pgtype.UUID
	var description, referenceType, referenceID pgtype.Text

	err := row.Scan(&id, &e.TenantID, &e.SourceModule, &e.SourceEventID, &e.SourceSubject, &e.PostedAt,
		&e.Currency, &description, &referenceType, &referenceID, &reversesID, &e.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ledger.JournalEntry{}, apperr.NotFound("journal entry not found")
		}
		return ledger.JournalEntry{}, apperr.Internal("failed to read journal entry", err)
	}
	e.ID = fromPgUUID(id)
	e.ReversesEntryID = fromPgUUIDPtr(reversesID)
	e.Description = fromPgText(description)
	e.ReferenceType = fromPgText(referenceType)
	e.ReferenceID = fromPgText(referenceID)
	return e, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
