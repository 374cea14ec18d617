// Package ledgerfake is an in-memory ledger.Repository for tests, a
// hand-written fake (like internal/processor/fake) rather than a
// generated mock: the GL store's WithTx semantics are easier to fake
// honestly than to script through gomock expectations.
package ledgerfake

import (
	"context"
	"sync"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/ledger"
	"github.com/google/uuid"
)

type Store struct {
	mu        sync.Mutex
	processed map[string]bool
	entries   map[uuid.UUID]ledger.JournalEntry
	bySource  map[string]uuid.UUID                    // tenantID|sourceEventID -> entry id
	failed    map[string]bool
	periods   map[uuid.UUID]ledger.AccountingPeriod
	snapshots map[string]ledger.PeriodSummarySnapshot
}

func New() *Store {
	return &Store{
		processed: map[string]bool{},
		entries:   map[uuid.UUID]ledger.JournalEntry{},
		bySource:  map[string]uuid.UUID{},
		failed:    map[string]bool{},
		periods:   map[uuid.UUID]ledger.AccountingPeriod{},
		snapshots: map[string]ledger.PeriodSummarySnapshot{},
	}
}

func eventKey(tenantID, eventID string) string { return tenantID + "|" + eventID }

func snapKey(tenantID string, periodID uuid.UUID, currency string) string {
	return tenantID + "|" + periodID.String() + "|" + currency
}

var _ ledger.Repository = (*Store)(nil)

func (s *Store) IsEventProcessed(ctx context.Context, tenantID, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed[eventKey(tenantID, eventID)], nil
}

func (s *Store) MarkEventProcessed(ctx context.Context, tenantID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[eventKey(tenantID, eventID)] = true
	return nil
}

func (s *Store) CreateJournalEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := eventKey(e.TenantID, e.SourceEventID)
	if _, exists := s.bySource[key]; exists {
		return ledger.JournalEntry{}, apperr.Conflict("journal entry already posted for this source_event_id")
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.entries[e.ID] = e
	s.bySource[key] = e.ID
	return e, nil
}

func (s *Store) GetJournalEntry(ctx context.Context, tenantID string, id uuid.UUID) (ledger.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || e.TenantID != tenantID {
		return ledger.JournalEntry{}, apperr.NotFound("journal entry not found")
	}
	return e, nil
}

func (s *Store) ListUnbalancedEntries(ctx context.Context, tenantID string, periodStart, periodEnd time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for _, e := range s.entries {
		if e.TenantID != tenantID {
			continue
		}
		if e.PostedAt.Before(periodStart) || !e.PostedAt.Before(periodEnd) {
			continue
		}
		var debits, credits int64
		for _, l := range e.Lines {
			debits += l.DebitMinor
			credits += l.CreditMinor
		}
		if debits != credits {
			ids = append(ids, e.ID)
		}
	}
	return ids, nil
}

func (s *Store) RecordFailedEvent(ctx context.Context, tenantID, eventID string, envelope []byte, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[eventKey(tenantID, eventID)] = true
	return nil
}

func (s *Store) WasRecordedFailed(tenantID, eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed[eventKey(tenantID, eventID)]
}

func (s *Store) PutPeriod(p ledger.AccountingPeriod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods[p.ID] = p
}

func (s *Store) GetPeriod(ctx context.Context, tenantID string, periodID uuid.UUID) (ledger.AccountingPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.periods[periodID]
	if !ok || p.TenantID != tenantID {
		return ledger.AccountingPeriod{}, apperr.NotFound("accounting period not found")
	}
	return p, nil
}

func (s *Store) GetPeriodForUpdate(ctx context.Context, tenantID string, periodID uuid.UUID) (ledger.AccountingPeriod, error) {
	return s.GetPeriod(ctx, tenantID, periodID)
}

func (s *Store) GetPeriodForDate(ctx context.Context, tenantID string, at time.Time) (ledger.AccountingPeriod, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.periods {
		if p.TenantID != tenantID {
			continue
		}
		if !at.Before(p.PeriodStart) && at.Before(p.PeriodEnd) {
			return p, true, nil
		}
	}
	return ledger.AccountingPeriod{}, false, nil
}

func (s *Store) ClosePeriod(ctx context.Context, p ledger.AccountingPeriod) (ledger.AccountingPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.periods[p.ID]; !ok {
		return ledger.AccountingPeriod{}, apperr.NotFound("accounting period not found")
	}
	s.periods[p.ID] = p
	return p, nil
}

func (s *Store) PutPeriodSummarySnapshot(ctx context.Context, snap ledger.PeriodSummarySnapshot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := snapKey(snap.TenantID, snap.PeriodID, snap.Currency)
	if _, exists := s.snapshots[key]; exists {
		return false, nil
	}
	s.snapshots[key] = snap
	return true, nil
}

func (s *Store) SumPeriodActivity(ctx context.Context, tenantID string, periodStart, periodEnd time.Time) ([]ledger.PeriodSummarySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byCurrency := map[string]*ledger.PeriodSummarySnapshot{}
	for _, e := range s.entries {
		if e.TenantID != tenantID {
			continue
		}
		if e.PostedAt.Before(periodStart) || !e.PostedAt.Before(periodEnd) {
			continue
		}
		snap, ok := byCurrency[e.Currency]
		if !ok {
			snap = &ledger.PeriodSummarySnapshot{TenantID: tenantID, Currency: e.Currency}
			byCurrency[e.Currency] = snap
		}
		snap.JournalCount++
		for _, l := range e.Lines {
			snap.LineCount++
			snap.TotalDebitsMinor += l.DebitMinor
			snap.TotalCreditsMinor += l.CreditMinor
		}
	}
	var out []ledger.PeriodSummarySnapshot
	for _, snap := range byCurrency {
		out = append(out, *snap)
	}
	return out, nil
}

// WithTx runs fn directly against s; the fake has no real transaction
// isolation.
func (s *Store) WithTx(ctx context.Context, fn func(tx ledger.Repository) error) error {
	return fn(s)
}
