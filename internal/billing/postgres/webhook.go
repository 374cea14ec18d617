package postgres

import (
	"context"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const webhookCols = `app_id, event_id, event_type, status, payload, attempt_count, last_attempt_at, next_attempt_at, dead_at, error_code, created_at, updated_at`

func (s *Store) CreateWebhookRecord(ctx context.Context, rec billing.WebhookRecord) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO webhook_records (app_id, event_id, event_type, status, payload, attempt_count, next_attempt_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (app_id, event_id) DO NOTHING
	`, rec.AppID, rec.EventID, rec.EventType, string(rec.Status), []byte(rec.Payload), rec.AttemptCount, toPgTimestamptzPtr(rec.NextAttemptAt))
	if err != nil {
		return false, apperr.Internal("failed to insert webhook record", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) GetWebhookRecord(ctx context.Context, appID, eventID string) (billing.WebhookRecord, bool, error) {
	row := s.db.QueryRow(ctx, `SELECT `+webhookCols+` FROM webhook_records WHERE app_id = $1 AND event_id = $2`,
		appID, eventID)
	rec, err := scanWebhookRecord(row)
	if apperr.OfKind(err, apperr.KindNotFound) {
		return billing.WebhookRecord{}, false, nil
	}
	if err != nil {
		return billing.WebhookRecord{}, false, err
	}
	return rec, true, nil
}

func (s *Store) UpdateWebhookRecord(ctx context.Context, rec billing.WebhookRecord) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE webhook_records SET
			status = $3, attempt_count = $4, last_attempt_at = $5, next_attempt_at = $6,
			dead_at = $7, error_code = $8, updated_at = now()
		WHERE app_id = $1 AND event_id = $2
	`, rec.AppID, rec.EventID, string(rec.Status), rec.AttemptCount, toPgTimestamptzPtr(rec.LastAttemptAt),
		toPgTimestamptzPtr(rec.NextAttemptAt), toPgTimestamptzPtr(rec.DeadAt), toPgTextPtr(rec.ErrorCode))
	if err != nil {
		return apperr.Internal("failed to update webhook record", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("webhook record not found")
	}
	return nil
}

func (s *Store) AppendWebhookAttempt(ctx context.Context, a billing.WebhookAttempt) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO webhook_attempts (app_id, event_id, attempt_number, status, next_attempt_at, error_code, error_message)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, a.AppID, a.EventID, a.AttemptNumber, string(a.Status), toPgTimestamptzPtr(a.NextAttemptAt),
		toPgTextPtr(a.ErrorCode), toPgTextPtr(a.ErrorMessage))
	if err != nil {
		return apperr.Internal("failed to append webhook attempt", err)
	}
	return nil
}

func (s *Store) ListDueWebhookRetries(ctx context.Context, now time.Time, limit int) ([]billing.WebhookRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+webhookCols+` FROM webhook_records
		WHERE status = $1 AND dead_at IS NULL AND next_attempt_at IS NOT NULL AND next_attempt_at <= $2
		ORDER BY next_attempt_at ASC
		LIMIT $3
	`, string(billing.WebhookFailed), now, limit)
	if err != nil {
		return nil, apperr.Internal("failed to list due webhook retries", err)
	}
	defer rows.Close()

	var out []billing.WebhookRecord
	for rows.Next() {
		rec, err := scanWebhookRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) PurgeWebhookRecordsOlderThan(ctx context.Context, appID string, before time.Time) (int64, error) {
	_, err := s.db.Exec(ctx, `
		DELETE FROM webhook_attempts WHERE app_id = $1 AND event_id IN (
			SELECT event_id FROM webhook_records
			WHERE app_id = $1 AND created_at < $2 AND (status = $3 OR dead_at IS NOT NULL)
		)
	`, appID, before, string(billing.WebhookProcessed))
	if err != nil {
		return 0, apperr.Internal("failed to purge webhook attempts", err)
	}
	tag, err := s.db.Exec(ctx, `
		DELETE FROM webhook_records
		WHERE app_id = $1 AND created_at < $2 AND (status = $3 OR dead_at IS NOT NULL)
	`, appID, before, string(billing.WebhookProcessed))
	if err != nil {
		return 0, apperr.Internal("failed to purge webhook records", err)
	}
	return tag.RowsAffected(), nil
}

func scanWebhookRecord(row rowScanner) (billing.WebhookRecord, error) {
	var rec billing.WebhookRecord
	var status string
	var payload []byte
	var lastAttemptAt, nextAttemptAt, deadAt pgtype.Timestamptz
	var errorCode pgtype.Text

	err := row.Scan(&rec.AppID, &rec.EventID, &rec.EventType, &status, &payload, &rec.AttemptCount,
		&lastAttemptAt, &nextAttemptAt, &deadAt, &errorCode, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return billing.WebhookRecord{}, apperr.NotFound("webhook record not found")
		}
		return billing.WebhookRecord{}, apperr.Internal("failed to read webhook record", err)
	}
	rec.Status = billing.WebhookStatus(status)
	rec.Payload = payload
	rec.LastAttemptAt = fromPgTimestamptzPtr(lastAttemptAt)
	rec.NextAttemptAt = fromPgTimestamptzPtr(nextAttemptAt)
	rec.DeadAt = fromPgTimestamptzPtr(deadAt)
	rec.ErrorCode = fromPgText(errorCode)
	return rec, nil
}
