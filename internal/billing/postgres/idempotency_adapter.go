package postgres

import (
	"context"

	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/idempotency"
)

// IdempotencyAdapter satisfies idempotency.Store on top of the Billing
// Repository's IdempotencyRepository, so the Idempotency Store middleware
// shares the same transaction-capable pgx connection as the rest of
// billing persistence instead of needing its own client.
type IdempotencyAdapter struct {
	repo billing.IdempotencyRepository
}

func NewIdempotencyAdapter(repo billing.IdempotencyRepository) *IdempotencyAdapter {
	return &IdempotencyAdapter{repo: repo}
}

func (a *IdempotencyAdapter) Get(ctx context.Context, appID, key string) (*idempotency.Record, bool, error) {
	row, found, err := a.repo.GetIdempotencyRecord(ctx, appID, key)
	if err != nil || !found {
		return nil, found, err
	}
	return &idempotency.Record{
		AppID:        row.AppID,
		Key:          row.Key,
		RequestHash:  row.RequestHash,
		StatusCode:   row.StatusCode,
		ResponseBody: row.ResponseBody,
		ExpiresAt:    row.ExpiresAt,
	}, true, nil
}

func (a *IdempotencyAdapter) Put(ctx context.Context, rec idempotency.Record) error {
	return a.repo.PutIdempotencyRecord(ctx, billing.IdempotencyRow{
		AppID:        rec.AppID,
		Key:          rec.Key,
		RequestHash:  rec.RequestHash,
		StatusCode:   rec.StatusCode,
		ResponseBody: rec.ResponseBody,
		ExpiresAt:    rec.ExpiresAt,
	})
}

var _ idempotency.Store = (*IdempotencyAdapter)(nil)
