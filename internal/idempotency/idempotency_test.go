package idempotency_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/idempotency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a concurrency-safe in-memory Store for tests, mirroring the
// shape of the eventual postgres-backed implementation.
type memStore struct {
	mu   sync.Mutex
	rows map[string]idempotency.Record
}

func newMemStore() *memStore { return &memStore{rows: make(map[string]idempotency.Record)} }

func (m *memStore) Get(_ context.Context, appID, key string) (*idempotency.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[appID+"/"+key]
	if !ok {
		return nil, false, nil
	}
	cp := rec
	return &cp, true, nil
}

func (m *memStore) Put(_ context.Context, rec idempotency.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[rec.AppID+"/"+rec.Key] = rec
	return nil
}

func TestRequestHashStableAcrossKeyOrderAndWhitespace(t *testing.T) {
	a := idempotency.RequestHash("POST", "/charges/one-time", []byte(`{"amount":3500,"reference_id":"r-1"}`))
	b := idempotency.RequestHash("POST", "/charges/one-time", []byte(`{ "reference_id" : "r-1", "amount" : 3500 }`))
	assert.Equal(t, a, b)
}

func TestRequestHashDiffersOnBody(t *testing.T) {
	a := idempotency.RequestHash("POST", "/charges/one-time", []byte(`{"amount":3500}`))
	b := idempotency.RequestHash("POST", "/charges/one-time", []byte(`{"amount":3600}`))
	assert.NotEqual(t, a, b)
}

func TestBeginFreshThenFinalizeThenReplay(t *testing.T) {
	ctx := context.Background()
	checker := idempotency.New(newMemStore(), time.Hour)

	hash := idempotency.RequestHash("POST", "/charges/one-time", []byte(`{"amount":3500}`))

	out, err := checker.Begin(ctx, "app-1", "K1", hash)
	require.NoError(t, err)
	assert.False(t, out.Cached)

	require.NoError(t, checker.Finalize(ctx, "app-1", "K1", hash, 201, []byte(`{"id":"c1"}`)))

	out2, err := checker.Begin(ctx, "app-1", "K1", hash)
	require.NoError(t, err)
	assert.True(t, out2.Cached)
	assert.Equal(t, 201, out2.StatusCode)
	assert.Equal(t, []byte(`{"id":"c1"}`), out2.Body)
}

func TestBeginConflictsOnDifferentPayload(t *testing.T) {
	ctx := context.Background()
	checker := idempotency.New(newMemStore(), time.Hour)

	hash1 := idempotency.RequestHash("POST", "/charges/one-time", []byte(`{"amount":3500}`))
	hash2 := idempotency.RequestHash("POST", "/charges/one-time", []byte(`{"amount":3600}`))

	require.NoError(t, checker.Finalize(ctx, "app-1", "K1", hash1, 201, []byte(`{}`)))

	_, err := checker.Begin(ctx, "app-1", "K1", hash2)
	require.Error(t, err)
	assert.True(t, apperr.OfKind(err, apperr.KindConflict))
}

func TestBeginTreatsExpiredAsFresh(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	checker := idempotency.New(store, time.Hour)

	hash := idempotency.RequestHash("POST", "/x", []byte(`{}`))
	require.NoError(t, checker.Finalize(ctx, "app-1", "K1", hash, 200, []byte(`{}`)))

	// Force expiry by overwriting the row directly.
	require.NoError(t, store.Put(ctx, idempotency.Record{
		AppID: "app-1", Key: "K1", RequestHash: hash,
		StatusCode: 200, ResponseBody: []byte(`{}`),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	out, err := checker.Begin(ctx, "app-1", "K1", hash)
	require.NoError(t, err)
	assert.False(t, out.Cached)
}

func TestBeginRequiresKey(t *testing.T) {
	ctx := context.Background()
	checker := idempotency.New(newMemStore(), time.Hour)
	_, err := checker.Begin(ctx, "app-1", "", "hash")
	assert.True(t, apperr.OfKind(err, apperr.KindValidation))
}
