package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the GL store's persistence contract, mirroring
// billing.Repository's shape (an interface + WithTx) but for the
// physically separate ledger database.
type Repository interface {
	// IsEventProcessed reports whether (tenantID, eventID) has already been
	// posted, via the processed_events(tenant_id, event_id) unique row.
	IsEventProcessed(ctx context.Context, tenantID, eventID string) (bool, error)
	// MarkEventProcessed records the processed_events row; it must be
	// called in the same transaction as the journal entry insert so the
	// two can never diverge.
	MarkEventProcessed(ctx context.Context, tenantID, eventID string) error

	// CreateJournalEntry inserts the header and then each of its lines. The
	// header's (tenant_id, source_event_id) unique constraint is the
	// second line of idempotency defense, behind IsEventProcessed.
	CreateJournalEntry(ctx context.Context, e JournalEntry) (JournalEntry, error)
	GetJournalEntry(ctx context.Context, tenantID string, id uuid.UUID) (JournalEntry, error)
	// ListUnbalancedEntries returns the ids of entries within a period whose
	// lines do not sum debit == credit (validate-close's UNBALANCED_ENTRIES
	// check).
	ListUnbalancedEntries(ctx context.Context, tenantID string, periodStart, periodEnd time.Time) ([]uuid.UUID, error)

	// RecordFailedEvent routes a non-retriable validation failure to
	// failed_events with the full envelope and reason.
	RecordFailedEvent(ctx context.Context, tenantID, eventID string, envelope []byte, reason string) error

	// GetPeriod and GetPeriodForUpdate read a tenant's accounting period;
	// GetPeriodForUpdate takes the row lock used to serialize concurrent
	// close attempts (SELECT ... FOR UPDATE on the period row). It must be
	// called inside a transaction for the lock to mean anything; GetPeriod
	// is safe outside one.
	GetPeriod(ctx context.Context, tenantID string, periodID uuid.UUID) (AccountingPeriod, error)
	GetPeriodForUpdate(ctx context.Context, tenantID string, periodID uuid.UUID) (AccountingPeriod, error)
	// GetPeriodForDate resolves the accounting period whose [period_start,
	// period_end) range contains at, if any (used by the GL Posting
	// consumer to reject postings into a closed period).
	GetPeriodForDate(ctx context.Context, tenantID string, at time.Time) (AccountingPeriod, bool, error)
	ClosePeriod(ctx context.Context, p AccountingPeriod) (AccountingPeriod, error)

	// PutPeriodSummarySnapshot inserts with
	// ON CONFLICT (tenant_id, period_id, currency) DO NOTHING semantics;
	// created reports whether this call inserted the row.
	PutPeriodSummarySnapshot(ctx context.Context, s PeriodSummarySnapshot) (created bool, err error)
	SumPeriodActivity(ctx context.Context, tenantID string, periodStart, periodEnd time.Time) ([]PeriodSummarySnapshot, error)

	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
