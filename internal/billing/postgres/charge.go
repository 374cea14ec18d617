package postgres

import (
	"context"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const chargeCols = `id, app_id, customer_id, subscription_id, processor_id, charge_type, amount_cents,
	currency, status, reason, reference_id, failure_code, failure_message, metadata, created_at, updated_at`

func (s *Store) CreateCharge(ctx context.Context, c billing.Charge) (billing.Charge, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO charges (id, app_id, customer_id, subscription_id, processor_id, charge_type,
			amount_cents, currency, status, reason, reference_id, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING `+chargeCols,
		toPgUUID(c.ID), c.AppID, toPgUUID(c.CustomerID), toPgUUIDPtr(c.SubscriptionID), toPgTextPtr(c.ProcessorID),
		string(c.ChargeType), c.AmountCents, c.Currency, string(c.Status), toPgTextPtr(c.Reason), c.ReferenceID,
		[]byte(c.Metadata))
	return scanCharge(row)
}

func (s *Store) GetCharge(ctx context.Context, appID string, id uuid.UUID) (billing.Charge, error) {
	row := s.db.QueryRow(ctx, `SELECT `+chargeCols+` FROM charges WHERE app_id = $1 AND id = $2`, appID, toPgUUID(id))
	return scanCharge(row)
}

func (s *Store) GetChargeByReferenceID(ctx context.Context, appID, referenceID string) (billing.Charge, bool, error) {
	row := s.db.QueryRow(ctx, `SELECT `+chargeCols+` FROM charges WHERE app_id = $1 AND reference_id = $2`, appID, referenceID)
	c, err := scanCharge(row)
	if apperr.OfKind(err, apperr.KindNotFound) {
		return billing.Charge{}, false, nil
	}
	if err != nil {
		return billing.Charge{}, false, err
	}
	return c, true, nil
}

func (s *Store) GetChargeByProcessorID(ctx context.Context, appID, processorChargeID string) (billing.Charge, bool, error) {
	row := s.db.QueryRow(ctx, `SELECT `+chargeCols+` FROM charges WHERE app_id = $1 AND processor_id = $2`,
		appID, processorChargeID)
	c, err := scanCharge(row)
	if apperr.OfKind(err, apperr.KindNotFound) {
		return billing.Charge{}, false, nil
	}
	if err != nil {
		return billing.Charge{}, false, err
	}
	return c, true, nil
}

func (s *Store) UpdateCharge(ctx context.Context, c billing.Charge) (billing.Charge, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE charges SET
			processor_id = $3, status = $4, failure_code = $5, failure_message = $6,
			metadata = $7, updated_at = now()
		WHERE app_id = $1 AND id = $2
		RETURNING `+chargeCols,
		c.AppID, toPgUUID(c.ID), toPgTextPtr(c.ProcessorID), string(c.Status),
		toPgTextPtr(c.FailureCode), toPgTextPtr(c.FailureMessage), []byte(c.Metadata))
	return scanCharge(row)
}

func (s *Store) ListPendingCharges(ctx context.Context, appID string, olderThan time.Time) ([]billing.Charge, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+chargeCols+`
		FROM charges WHERE app_id = $1 AND status = $2 AND created_at <= $3
	`, appID, string(billing.ChargePending), olderThan)
	if err != nil {
		return nil, apperr.Internal("failed to list pending charges", err)
	}
	defer rows.Close()

	var out []billing.Charge
	for rows.Next() {
		c, err := scanCharge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) SumSuccessfulRefunds(ctx context.Context, appID string, chargeID uuid.UUID) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM refunds
		WHERE app_id = $1 AND charge_id = $2 AND status = $3
	`, appID, toPgUUID(chargeID), string(billing.RefundSucceeded)).Scan(&total)
	if err != nil {
		return 0, apperr.Internal("failed to sum successful refunds", err)
	}
	return total, nil
}

func scanCharge(row rowScanner) (billing.Charge, error) {
	var c billing.Charge
	var id, customerID, subscriptionID pgtype.UUID
	var processorID, reason, failureCode, failureMessage pgtype.Text
	var chargeType, status string
	var metadata []byte

	err := row.Scan(&id, &c.AppID, &customerID, &subscriptionID, &processorID, &chargeType, &c.AmountCents,
		&c.Currency, &status, &reason, &c.ReferenceID, &failureCode, &failureMessage, &metadata,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return billing.Charge{}, apperr.NotFound("charge not found")
		}
		return billing.Charge{}, apperr.Internal("failed to read charge", err)
	}
	c.ID = fromPgUUID(id)
	c.CustomerID = fromPgUUID(customerID)
	c.SubscriptionID = fromPgUUIDPtr(subscriptionID)
	c.ProcessorID = fromPgText(processorID)
	c.ChargeType = billing.ChargeType(chargeType)
	c.Status = billing.ChargeStatus(status)
	c.Reason = fromPgText(reason)
	c.FailureCode = fromPgText(failureCode)
	c.FailureMessage = fromPgText(failureMessage)
	c.Metadata = metadata
	return c, nil
}
