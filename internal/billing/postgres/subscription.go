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

const subscriptionCols = `id, app_id, customer_id, processor_id, plan_id, price_cents, quantity, currency,
	interval_unit, interval_count, status, current_period_start, current_period_end,
	cancel_at, canceled_at, metadata, created_at, updated_at`

func (s *Store) CreateSubscription(ctx context.Context, sub billing.Subscription) (billing.Subscription, error) {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO subscriptions (id, app_id, customer_id, processor_id, plan_id, price_cents, quantity,
			currency, interval_unit, interval_count, status, current_period_start, current_period_end, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING `+subscriptionCols,
		toPgUUID(sub.ID), sub.AppID, toPgUUID(sub.CustomerID), toPgTextPtr(sub.ProcessorID), sub.PlanID,
		sub.PriceCents, sub.Quantity, sub.Currency, string(sub.IntervalUnit), sub.IntervalCount,
		string(sub.Status), sub.CurrentPeriodStart, sub.CurrentPeriodEnd, []byte(sub.Metadata))
	return scanSubscription(row)
}

func (s *Store) GetSubscription(ctx context.Context, appID string, id uuid.UUID) (billing.Subscription, error) {
	row := s.db.QueryRow(ctx, `SELECT `+subscriptionCols+` FROM subscriptions WHERE app_id = $1 AND id = $2`,
		appID, toPgUUID(id))
	return scanSubscription(row)
}

func (s *Store) GetSubscriptionByProcessorID(ctx context.Context, appID, processorID string) (billing.Subscription, error) {
	row := s.db.QueryRow(ctx, `SELECT `+subscriptionCols+` FROM subscriptions WHERE app_id = $1 AND processor_id = $2`,
		appID, processorID)
	return scanSubscription(row)
}

func (s *Store) UpdateSubscription(ctx context.Context, sub billing.Subscription) (billing.Subscription, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE subscriptions SET
			processor_id = $3, plan_id = $4, price_cents = $5, quantity = $6, currency = $7,
			interval_unit = $8, interval_count = $9, status = $10,
			current_period_start = $11, current_period_end = $12,
			cancel_at = $13, canceled_at = $14, metadata = $15, updated_at = now()
		WHERE app_id = $1 AND id = $2
		RETURNING `+subscriptionCols,
		sub.AppID, toPgUUID(sub.ID), toPgTextPtr(sub.ProcessorID), sub.PlanID, sub.PriceCents, sub.Quantity,
		sub.Currency, string(sub.IntervalUnit), sub.IntervalCount, string(sub.Status),
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, toPgTimestamptzPtr(sub.CancelAt),
		toPgTimestamptzPtr(sub.CanceledAt), []byte(sub.Metadata))
	return scanSubscription(row)
}

func (s *Store) ListDueForRenewal(ctx context.Context, appID string, periodEndBefore time.Time) ([]billing.Subscription, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+subscriptionCols+` FROM subscriptions
		WHERE app_id = $1 AND status IN ($2, $3) AND current_period_end <= $4
	`, appID, string(billing.SubscriptionActive), string(billing.SubscriptionTrialing), periodEndBefore)
	if err != nil {
		return nil, apperr.Internal("failed to list subscriptions due for renewal", err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

func (s *Store) ListScheduledCancellations(ctx context.Context, appID string, cancelAtBefore time.Time) ([]billing.Subscription, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+subscriptionCols+` FROM subscriptions
		WHERE app_id = $1 AND cancel_at IS NOT NULL AND cancel_at <= $2 AND status != $3
	`, appID, cancelAtBefore, string(billing.SubscriptionCanceled))
	if err != nil {
		return nil, apperr.Internal("failed to list scheduled cancellations", err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

func scanSubscription(row rowScanner) (billing.Subscription, error) {
	var sub billing.Subscription
	var id, customerID pgtype.UUID
	var processorID pgtype.Text
	var intervalUnit, status string
	var cancelAt, canceledAt pgtype.Timestamptz
	var metadata []byte

	err := row.Scan(&id, &sub.AppID, &customerID, &processorID, &sub.PlanID, &sub.PriceCents, &sub.Quantity,
		&sub.Currency, &intervalUnit, &sub.IntervalCount, &status, &sub.CurrentPeriodStart, &sub.CurrentPeriodEnd,
		&cancelAt, &canceledAt, &metadata, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return billing.Subscription{}, apperr.NotFound("subscription not found")
		}
		return billing.Subscription{}, apperr.Internal("failed to read subscription", err)
	}
	sub.ID = fromPgUUID(id)
	sub.CustomerID = fromPgUUID(customerID)
	sub.ProcessorID = fromPgText(processorID)
	sub.IntervalUnit = billing.IntervalUnit(intervalUnit)
	sub.Status = billing.SubscriptionStatus(status)
	sub.CancelAt = fromPgTimestamptzPtr(cancelAt)
	sub.CanceledAt = fromPgTimestamptzPtr(canceledAt)
	sub.Metadata = metadata
	return sub, nil
}

func collectSubscriptions(rows pgx.Rows) ([]billing.Subscription, error) {
	var out []billing.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
