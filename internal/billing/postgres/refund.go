package postgres

import (
	"context"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const refundCols = `id, app_id, charge_id, processor_id, amount_cents, status, reason, reference_id, created_at, updated_at`

func (s *Store) CreateRefund(ctx context.Context, r billing.Refund) (billing.Refund, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO refunds (id, app_id, charge_id, processor_id, amount_cents, status, reason, reference_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+refundCols,
		toPgUUID(r.ID), r.AppID, toPgUUID(r.ChargeID), toPgTextPtr(r.ProcessorID), r.AmountCents,
		string(r.Status), toPgTextPtr(r.Reason), r.ReferenceID)
	return scanRefund(row)
}

func (s *Store) GetRefundByProcessorID(ctx context.Context, appID, processorRefundID string) (billing.Refund, bool, error) {
	row := s.db.QueryRow(ctx, `SELECT `+refundCols+` FROM refunds WHERE app_id = $1 AND processor_id = $2`,
		appID, processorRefundID)
	r, err := scanRefund(row)
	if apperr.OfKind(err, apperr.KindNotFound) {
		return billing.Refund{}, false, nil
	}
	if err != nil {
		return billing.Refund{}, false, err
	}
	return r, true, nil
}

func (s *Store) UpdateRefund(ctx context.Context, r billing.Refund) (billing.Refund, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE refunds SET processor_id = $3, status = $4, updated_at = now()
		WHERE app_id = $1 AND id = $2
		RETURNING `+refundCols,
		r.AppID, toPgUUID(r.ID), toPgTextPtr(r.ProcessorID), string(r.Status))
	return scanRefund(row)
}

func scanRefund(row rowScanner) (billing.Refund, error) {
	var r billing.Refund
	var id, chargeID pgtype.UUID
	var processorID, reason pgtype.Text
	var status string

	err := row.Scan(&id, &r.AppID, &chargeID, &processorID, &r.AmountCents, &status, &reason, &r.ReferenceID,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return billing.Refund{}, apperr.NotFound("refund not found")
		}
		return billing.Refund{}, apperr.Internal("failed to read refund", err)
	}
	r.ID = fromPgUUID(id)
	r.ChargeID = fromPgUUID(chargeID)
	r.ProcessorID = fromPgText(processorID)
	r.Status = billing.RefundStatus(status)
	r.Reason = fromPgText(reason)
	return r, nil
}
