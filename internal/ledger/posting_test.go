package ledger_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cyphera-core/billing-core/internal/ledger"
	"github.com/cyphera-core/billing-core/internal/ledger/ledgerfake"
	"github.com/cyphera-core/billing-core/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func balancedEvent(eventID string) ledger.PostingEvent {
	return ledger.PostingEvent{
		EventID:       eventID,
		TenantID:      "tenant-1",
		SourceModule:  "billing.charge",
		SourceSubject: "charge succeeded",
		Currency:      "USD",
		Lines: []ledger.PostingLine{
			{AccountRef: "cash", DebitMinor: 1000},
			{AccountRef: "revenue", CreditMinor: 1000},
		},
	}
}

func TestConsumeCreatesJournalEntry(t *testing.T) {
	store := ledgerfake.New()
	c := ledger.NewConsumer(store, logging.Must("test"))

	raw, err := json.Marshal(balancedEvent("evt-1"))
	require.NoError(t, err)

	outcome := c.Consume(context.Background(), raw)
	assert.Equal(t, ledger.OutcomeProcessed, outcome)
}

func TestConsumeIsIdempotentOnSameSourceEventID(t *testing.T) {
	store := ledgerfake.New()
	c := ledger.NewConsumer(store, logging.Must("test"))

	raw, err := json.Marshal(balancedEvent("evt-2"))
	require.NoError(t, err)

	first := c.Consume(context.Background(), raw)
	second := c.Consume(context.Background(), raw)
	assert.Equal(t, ledger.OutcomeProcessed, first)
	assert.Equal(t, ledger.OutcomeProcessed, second)

	processed, err := store.IsEventProcessed(context.Background(), "tenant-1", "evt-2")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestConsumeRoutesUnbalancedEntryToFailedEvents(t *testing.T) {
	store := ledgerfake.New()
	c := ledger.NewConsumer(store, logging.Must("test"))

	ev := balancedEvent("evt-3")
	ev.Lines[1].CreditMinor = 999 // now unbalanced
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	outcome := c.Consume(context.Background(), raw)
	assert.Equal(t, ledger.OutcomeFailedEvent, outcome)
	assert.True(t, store.WasRecordedFailed("tenant-1", "evt-3"))

	processed, err := store.IsEventProcessed(context.Background(), "tenant-1", "evt-3")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestConsumeRejectsMalformedJSON(t *testing.T) {
	store := ledgerfake.New()
	c := ledger.NewConsumer(store, logging.Must("test"))

	outcome := c.Consume(context.Background(), []byte("{not json"))
	assert.Equal(t, ledger.OutcomeFailedEvent, outcome)
}
