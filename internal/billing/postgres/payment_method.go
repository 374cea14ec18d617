package postgres

import (
	"context"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

func (s *Store) CreatePaymentMethod(ctx context.Context, pm billing.PaymentMethod) (billing.PaymentMethod, error) {
	if pm.ID == uuid.Nil {
		pm.ID = uuid.New()
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO payment_methods (id, app_id, customer_id, processor_id, type, brand, last4, exp_month, exp_year, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, app_id, customer_id, processor_id, type, brand, last4, exp_month, exp_year, is_default, deleted_at, created_at
	`, toPgUUID(pm.ID), pm.AppID, toPgUUID(pm.CustomerID), pm.ProcessorID, string(pm.Type), pm.Brand, pm.Last4, pm.ExpMonth, pm.ExpYear, pm.IsDefault)
	return scanPaymentMethod(row)
}

func (s *Store) GetDefaultPaymentMethod(ctx context.Context, appID string, customerID uuid.UUID) (billing.PaymentMethod, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, app_id, customer_id, processor_id, type, brand, last4, exp_month, exp_year, is_default, deleted_at, created_at
		FROM payment_methods
		WHERE app_id = $1 AND customer_id = $2 AND is_default = true AND deleted_at IS NULL
	`, appID, toPgUUID(customerID))
	return scanPaymentMethod(row)
}

func (s *Store) SetDefaultPaymentMethod(ctx context.Context, appID string, customerID, pmID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `
		UPDATE payment_methods SET is_default = false WHERE app_id = $1 AND customer_id = $2
	`, appID, toPgUUID(customerID)); err != nil {
		return apperr.Internal("failed to clear existing default payment method", err)
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE payment_methods SET is_default = true WHERE app_id = $1 AND customer_id = $2 AND id = $3
	`, appID, toPgUUID(customerID), toPgUUID(pmID))
	if err != nil {
		return apperr.Internal("failed to set default payment method", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("payment method not found")
	}
	return nil
}

func scanPaymentMethod(row rowScanner) (billing.PaymentMethod, error) {
	var pm billing.PaymentMethod
	var id, customerID pgtype.UUID
	var pType string
	var deletedAt pgtype.Timestamptz

	err := row.Scan(&id, &pm.AppID, &customerID, &pm.ProcessorID, &pType, &pm.Brand, &pm.Last4,
		&pm.ExpMonth, &pm.ExpYear, &pm.IsDefault, &deletedAt, &pm.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return billing.PaymentMethod{}, apperr.NotFound("payment method not found")
		}
		return billing.PaymentMethod{}, apperr.Internal("failed to read payment method", err)
	}
	pm.ID = fromPgUUID(id)
	pm.CustomerID = fromPgUUID(customerID)
	pm.Type = billing.PaymentMethodType(pType)
	pm.DeletedAt = fromPgTimestamptzPtr(deletedAt)
	return pm, nil
}
