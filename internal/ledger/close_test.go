package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/cyphera-core/billing-core/internal/ledger"
	"github.com/cyphera-core/billing-core/internal/ledger/ledgerfake"
	"github.com/cyphera-core/billing-core/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPeriodWithEntry(t *testing.T, store *ledgerfake.Store, periodID uuid.UUID, periodStart, periodEnd time.Time, debit, credit int64) {
	t.Helper()
	store.PutPeriod(ledger.AccountingPeriod{
		ID:          periodID,
		TenantID:    "tenant-1",
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	_, err := store.CreateJournalEntry(context.Background(), ledger.JournalEntry{
		TenantID:      "tenant-1",
		SourceModule:  "billing.charge",
		SourceEventID: uuid.NewString(),
		SourceSubject: "seed",
		PostedAt:      periodStart.Add(time.Hour),
		Currency:      "USD",
		Lines: []ledger.JournalLine{
			{LineNo: 1, AccountRef: "cash", DebitMinor: debit},
			{LineNo: 2, AccountRef: "revenue", CreditMinor: credit},
		},
	})
	require.NoError(t, err)
}

func TestValidateCloseReportsUnbalancedEntries(t *testing.T) {
	store := ledgerfake.New()
	periodID := uuid.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	seedPeriodWithEntry(t, store, periodID, start, end, 100, 90)

	w := ledger.NewCloseWorkflow(store, logging.Must("test"))
	result, err := w.ValidateClose(context.Background(), "tenant-1", periodID)
	require.NoError(t, err)
	assert.False(t, result.CanClose)
	assert.Contains(t, result.Issues, ledger.IssueUnbalancedEntries)
}

func TestValidateCloseReportsPeriodNotFound(t *testing.T) {
	store := ledgerfake.New()
	w := ledger.NewCloseWorkflow(store, logging.Must("test"))
	result, err := w.ValidateClose(context.Background(), "tenant-1", uuid.New())
	require.NoError(t, err)
	assert.False(t, result.CanClose)
	assert.Contains(t, result.Issues, ledger.IssuePeriodNotFound)
}

func TestCloseIsIdempotentAndPreservesOriginalMetadata(t *testing.T) {
	store := ledgerfake.New()
	periodID := uuid.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	seedPeriodWithEntry(t, store, periodID, start, end, 100, 100)

	w := ledger.NewCloseWorkflow(store, logging.Must("test"))
	reason := "Jan close"

	first, err := w.Close(context.Background(), "tenant-1", periodID, "alice", &reason)
	require.NoError(t, err)
	require.NotNil(t, first.CloseHash)

	second, err := w.Close(context.Background(), "tenant-1", periodID, "bob", nil)
	require.NoError(t, err)
	require.NotNil(t, second.ClosedBy)
	assert.Equal(t, "alice", *second.ClosedBy)
	require.NotNil(t, second.CloseReason)
	assert.Equal(t, reason, *second.CloseReason)
	assert.Equal(t, *first.CloseHash, *second.CloseHash)
}

func TestCloseRejectsUnbalancedPeriod(t *testing.T) {
	store := ledgerfake.New()
	periodID := uuid.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	seedPeriodWithEntry(t, store, periodID, start, end, 100, 90)

	w := ledger.NewCloseWorkflow(store, logging.Must("test"))
	_, err := w.Close(context.Background(), "tenant-1", periodID, "alice", nil)
	assert.Error(t, err)
}

func TestCloseStatusReflectsClosure(t *testing.T) {
	store := ledgerfake.New()
	periodID := uuid.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store.PutPeriod(ledger.AccountingPeriod{ID: periodID, TenantID: "tenant-1", PeriodStart: start, PeriodEnd: end})

	w := ledger.NewCloseWorkflow(store, logging.Must("test"))
	before, err := w.CloseStatus(context.Background(), "tenant-1", periodID)
	require.NoError(t, err)
	assert.Equal(t, "OPEN", before.State)

	_, err = w.Close(context.Background(), "tenant-1", periodID, "alice", nil)
	require.NoError(t, err)

	after, err := w.CloseStatus(context.Background(), "tenant-1", periodID)
	require.NoError(t, err)
	assert.Equal(t, "CLOSED", after.State)
}
