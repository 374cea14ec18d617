package postgres

import (
	"context"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const disputeCols = `id, app_id, charge_id, processor_dispute_id, status, amount_cents, reason, created_at, updated_at`

func (s *Store) UpsertDisputeByProcessorID(ctx context.Context, d billing.Dispute) (billing.Dispute, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO disputes (id, app_id, charge_id, processor_dispute_id, status, amount_cents, reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (app_id, processor_dispute_id) DO UPDATE SET
			status = EXCLUDED.status, amount_cents = EXCLUDED.amount_cents,
			reason = EXCLUDED.reason, charge_id = COALESCE(EXCLUDED.charge_id, disputes.charge_id),
			updated_at = now()
		RETURNING `+disputeCols,
		toPgUUID(d.ID), d.AppID, toPgUUIDPtr(d.ChargeID), d.ProcessorDisputeID,
		string(d.Status), d.AmountCents, d.Reason)
	return scanDispute(row)
}

func scanDispute(row rowScanner) (billing.Dispute, error) {
	var d billing.Dispute
	var id, chargeID pgtype.UUID
	var status string

	err := row.Scan(&id, &d.AppID, &chargeID, &d.ProcessorDisputeID, &status, &d.AmountCents, &d.Reason,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return billing.Dispute{}, apperr.NotFound("dispute not found")
		}
		return billing.Dispute{}, apperr.Internal("failed to read dispute", err)
	}
	d.ID = fromPgUUID(id)
	d.ChargeID = fromPgUUIDPtr(chargeID)
	d.Status = billing.DisputeStatus(status)
	return d, nil
}
