package postgres

import (
	"context"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

func (s *Store) CreateInvoice(ctx context.Context, inv billing.Invoice) (billing.Invoice, error) {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO invoices (id, app_id, customer_id, subscription_id, status, amount_cents, currency,
			billing_period_start, billing_period_end, due_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, app_id, customer_id, subscription_id, status, amount_cents, currency,
			billing_period_start, billing_period_end, due_at, paid_at, created_at
	`, toPgUUID(inv.ID), inv.AppID, toPgUUID(inv.CustomerID), toPgUUIDPtr(inv.SubscriptionID), string(inv.Status),
		inv.AmountCents, inv.Currency, toPgTimestamptzPtr(inv.BillingPeriodStart), toPgTimestamptzPtr(inv.BillingPeriodEnd),
		toPgTimestamptzPtr(inv.DueAt))
	created, err := scanInvoice(row)
	if err != nil {
		return billing.Invoice{}, err
	}

	for i := range inv.LineItems {
		li := inv.LineItems[i]
		if li.ID == uuid.Nil {
			li.ID = uuid.New()
		}
		if _, err := s.db.Exec(ctx, `
			INSERT INTO invoice_line_items (id, invoice_id, type, description, quantity, unit_price_cents)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, toPgUUID(li.ID), toPgUUID(created.ID), string(li.Type), li.Description, li.Quantity, li.UnitPriceCents); err != nil {
			return billing.Invoice{}, apperr.Internal("failed to insert invoice line item", err)
		}
		li.InvoiceID = created.ID
		created.LineItems = append(created.LineItems, li)
	}
	return created, nil
}

func (s *Store) GetInvoice(ctx context.Context, appID string, id uuid.UUID) (billing.Invoice, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, app_id, customer_id, subscription_id, status, amount_cents, currency,
			billing_period_start, billing_period_end, due_at, paid_at, created_at
		FROM invoices WHERE app_id = $1 AND id = $2
	`, appID, toPgUUID(id))
	inv, err := scanInvoice(row)
	if err != nil {
		return billing.Invoice{}, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, invoice_id, type, description, quantity, unit_price_cents
		FROM invoice_line_items WHERE invoice_id = $1
	`, toPgUUID(inv.ID))
	if err != nil {
		return billing.Invoice{}, apperr.Internal("failed to read invoice line items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var li billing.LineItem
		var liID, invID pgtype.UUID
		var liType string
		if err := rows.Scan(&liID, &invID, &liType, &li.Description, &li.Quantity, &li.UnitPriceCents); err != nil {
			return billing.Invoice{}, apperr.Internal("failed to scan invoice line item", err)
		}
		li.ID = fromPgUUID(liID)
		li.InvoiceID = fromPgUUID(invID)
		li.Type = billing.LineItemType(liType)
		inv.LineItems = append(inv.LineItems, li)
	}
	return inv, rows.Err()
}

func scanInvoice(row rowScanner) (billing.Invoice, error) {
	var inv billing.Invoice
	var id, customerID, subscriptionID pgtype.UUID
	var status string
	var periodStart, periodEnd, dueAt, paidAt pgtype.Timestamptz

	err := row.Scan(&id, &inv.AppID, &customerID, &subscriptionID, &status, &inv.AmountCents, &inv.Currency,
		&periodStart, &periodEnd, &dueAt, &paidAt, &inv.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return billing.Invoice{}, apperr.NotFound("invoice not found")
		}
		return billing.Invoice{}, apperr.Internal("failed to read invoice", err)
	}
	inv.ID = fromPgUUID(id)
	inv.CustomerID = fromPgUUID(customerID)
	inv.SubscriptionID = fromPgUUIDPtr(subscriptionID)
	inv.Status = billing.InvoiceStatus(status)
	inv.BillingPeriodStart = fromPgTimestamptzPtr(periodStart)
	inv.BillingPeriodEnd = fromPgTimestamptzPtr(periodEnd)
	inv.DueAt = fromPgTimestamptzPtr(dueAt)
	inv.PaidAt = fromPgTimestamptzPtr(paidAt)
	return inv, nil
}
