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

func (s *Store) CreateCustomer(ctx context.Context, c billing.Customer) (billing.Customer, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO customers (id, app_id, external_id, processor_id, status, email, name, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, app_id, external_id, processor_id, status, email, name,
			default_payment_method_id, delinquent_since, grace_period_end, metadata, created_at, updated_at
	`, toPgUUID(c.ID), c.AppID, toPgTextPtr(c.ExternalID), toPgTextPtr(c.ProcessorID), string(c.Status), c.Email, c.Name, []byte(c.Metadata))
	return scanCustomer(row)
}

func (s *Store) GetCustomer(ctx context.Context, appID string, id uuid.UUID) (billing.Customer, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, app_id, external_id, processor_id, status, email, name,
			default_payment_method_id, delinquent_since, grace_period_end, metadata, created_at, updated_at
		FROM customers WHERE app_id = $1 AND id = $2
	`, appID, toPgUUID(id))
	return scanCustomer(row)
}

func (s *Store) GetCustomerByExternalID(ctx context.Context, appID, externalID string) (billing.Customer, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, app_id, external_id, processor_id, status, email, name,
			default_payment_method_id, delinquent_since, grace_period_end, metadata, created_at, updated_at
		FROM customers WHERE app_id = $1 AND external_id = $2
	`, appID, externalID)
	return scanCustomer(row)
}

func (s *Store) UpdateCustomer(ctx context.Context, c billing.Customer) (billing.Customer, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE customers SET
			processor_id = $3, status = $4, email = $5, name = $6,
			default_payment_method_id = $7, delinquent_since = $8, grace_period_end = $9,
			metadata = $10, updated_at = now()
		WHERE app_id = $1 AND id = $2
		RETURNING id, app_id, external_id, processor_id, status, email, name,
			default_payment_method_id, delinquent_since, grace_period_end, metadata, created_at, updated_at
	`, c.AppID, toPgUUID(c.ID), toPgTextPtr(c.ProcessorID), string(c.Status), c.Email, c.Name,
		toPgUUIDPtr(c.DefaultPaymentMethodID), toPgTimestamptzPtr(c.DelinquentSince), toPgTimestamptzPtr(c.GracePeriodEnd),
		[]byte(c.Metadata))
	return scanCustomer(row)
}

func (s *Store) ListDelinquentCustomers(ctx context.Context, appID string, graceEndBefore time.Time) ([]billing.Customer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, app_id, external_id, processor_id, status, email, name,
			default_payment_method_id, delinquent_since, grace_period_end, metadata, created_at, updated_at
		FROM customers WHERE app_id = $1 AND status = $2 AND grace_period_end <= $3
	`, appID, string(billing.CustomerDelinquent), graceEndBefore)
	if err != nil {
		return nil, apperr.Internal("failed to list delinquent customers", err)
	}
	defer rows.Close()
	return collectCustomers(rows)
}

func (s *Store) ListPendingCustomers(ctx context.Context, appID string, olderThan time.Time) ([]billing.Customer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, app_id, external_id, processor_id, status, email, name,
			default_payment_method_id, delinquent_since, grace_period_end, metadata, created_at, updated_at
		FROM customers WHERE app_id = $1 AND status = $2 AND created_at <= $3
	`, appID, string(billing.CustomerPending), olderThan)
	if err != nil {
		return nil, apperr.Internal("failed to list pending customers", err)
	}
	defer rows.Close()
	return collectCustomers(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row rowScanner) (billing.Customer, error) {
	var c billing.Customer
	var id, defaultPM pgtype.UUID
	var externalID, processorID pgtype.Text
	var status string
	var delinquentSince, graceEnd pgtype.Timestamptz
	var metadata []byte

	err := row.Scan(&id, &c.AppID, &externalID, &processorID, &status, &c.Email, &c.Name,
		&defaultPM, &delinquentSince, &graceEnd, &metadata, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return billing.Customer{}, apperr.NotFound("customer not found")
		}
		return billing.Customer{}, apperr.Internal("failed to read customer", err)
	}

	c.ID = fromPgUUID(id)
	c.ExternalID = fromPgText(externalID)
	c.ProcessorID = fromPgText(processorID)
	c.Status = billing.CustomerStatus(status)
	c.DefaultPaymentMethodID = fromPgUUIDPtr(defaultPM)
	c.DelinquentSince = fromPgTimestamptzPtr(delinquentSince)
	c.GracePeriodEnd = fromPgTimestamptzPtr(graceEnd)
	c.Metadata = metadata
	return c, nil
}

func collectCustomers(rows pgx.Rows) ([]billing.Customer, error) {
	var out []billing.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
