package postgres

import (
	"context"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/jackc/pgx/v5"
)

func (s *Store) GetIdempotencyRecord(ctx context.Context, appID, key string) (billing.IdempotencyRow, bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT app_id, key, request_hash, status_code, response_body, expires_at
		FROM idempotency_records WHERE app_id = $1 AND key = $2
	`, appID, key)

	var rec billing.IdempotencyRow
	err := row.Scan(&rec.AppID, &rec.Key, &rec.RequestHash, &rec.StatusCode, &rec.ResponseBody, &rec.ExpiresAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return billing.IdempotencyRow{}, false, nil
		}
		return billing.IdempotencyRow{}, false, apperr.Internal("failed to read idempotency record", err)
	}
	return rec, true, nil
}

func (s *Store) PutIdempotencyRecord(ctx context.Context, rec billing.IdempotencyRow) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO idempotency_records (app_id, key, request_hash, status_code, response_body, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (app_id, key) DO UPDATE SET
			request_hash = EXCLUDED.request_hash,
			status_code = EXCLUDED.status_code,
			response_body = EXCLUDED.response_body,
			expires_at = EXCLUDED.expires_at
	`, rec.AppID, rec.Key, rec.RequestHash, rec.StatusCode, rec.ResponseBody, rec.ExpiresAt)
	if err != nil {
		return apperr.Internal("failed to persist idempotency record", err)
	}
	return nil
}

func (s *Store) PurgeExpiredIdempotencyRecords(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM idempotency_records WHERE expires_at < $1`, before)
	if err != nil {
		return 0, apperr.Internal("failed to purge expired idempotency records", err)
	}
	return tag.RowsAffected(), nil
}
