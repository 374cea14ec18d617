package postgres

import (
	"context"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/google/uuid"
)

func (s *Store) AppendEvent(ctx context.Context, e billing.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO events (id, app_id, event_type, source, entity_type, entity_id, payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, toPgUUID(e.ID), e.AppID, e.EventType, string(e.Source), e.EntityType, e.EntityID, []byte(e.Payload))
	if err != nil {
		return apperr.Internal("failed to append event", err)
	}
	return nil
}

func (s *Store) PurgeEventsOlderThan(ctx context.Context, appID string, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM events WHERE app_id = $1 AND created_at < $2`, appID, before)
	if err != nil {
		return 0, apperr.Internal("failed to purge events", err)
	}
	return tag.RowsAffected(), nil
}
