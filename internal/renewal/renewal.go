// Package renewal implements the renewal, invoice and retention jobs:
// scheduled jobs that generate invoices ahead of period boundaries,
// advance subscriptions whose current period has elapsed, and purge
// append-only tables past their tenant's retention window. All three
// share internal/webhook/retry.go's find-due/advance-one loop structure.
package renewal

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/config"
)

var timeNow = func() time.Time { return time.Now().UTC() }

// InvoiceJob finds subscriptions due for renewal within a lookahead
// window and generates a draft invoice summing their line items.
type InvoiceJob struct {
	repo   billing.Repository
	logger *zap.Logger
	window time.Duration
	batch  int
}

func NewInvoiceJob(repo billing.Repository, logger *zap.Logger, window time.Duration) *InvoiceJob {
	if window <= 0 {
		window = 72 * time.Hour
	}
	return &InvoiceJob{repo: repo, logger: logger, window: window, batch: 100}
}

// RunDue generates invoices for every subscription whose current_period_end
// falls within the job's lookahead window, and returns how many it found.
func (j *InvoiceJob) RunDue(ctx context.Context, appID string) (int, error) {
	due, err := j.repo.ListDueForRenewal(ctx, appID, timeNow().Add(j.window))
	if err != nil {
		return 0, err
	}
	for _, sub := range due {
		if err := j.generateInvoice(ctx, sub); err != nil {
			j.logger.Error("failed to generate renewal invoice",
				zap.String("app_id", sub.AppID),
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
		}
		if err := j.advancePeriod(ctx, sub); err != nil {
			j.logger.Error("failed to advance subscription period",
				zap.String("app_id", sub.AppID),
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
		}
	}
	return len(due), nil
}

func (j *InvoiceJob) generateInvoice(ctx context.Context, sub billing.Subscription) error {
	start := sub.CurrentPeriodStart
	end := sub.CurrentPeriodEnd
	inv := billing.Invoice{
		AppID:              sub.AppID,
		CustomerID:         sub.CustomerID,
		SubscriptionID:     &sub.ID,
		Status:             billing.InvoiceDraft,
		Currency:           sub.Currency,
		BillingPeriodStart: &start,
		BillingPeriodEnd:   &end,
		LineItems: []billing.LineItem{
			{
				Type:           billing.LineItemSubscription,
				Description:    "Subscription renewal",
				Quantity:       sub.Quantity,
				UnitPriceCents: sub.PriceCents,
			},
		},
	}
	inv.AmountCents = sub.PriceCents * sub.Quantity

	_, err := j.repo.CreateInvoice(ctx, inv)
	return err
}

// advancePeriod rolls a subscription's current_period_{start,end} forward
// by one interval once its invoice has been generated. Cancellations
// scheduled at period end (cancel_at == current_period_end) take effect
// here rather than advancing further.
func (j *InvoiceJob) advancePeriod(ctx context.Context, sub billing.Subscription) error {
	if sub.CancelAt != nil && !sub.CurrentPeriodEnd.Before(*sub.CancelAt) {
		now := timeNow()
		sub.Status = billing.SubscriptionCanceled
		sub.CanceledAt = &now
		_, err := j.repo.UpdateSubscription(ctx, sub)
		return err
	}

	next := addInterval(sub.CurrentPeriodEnd, sub.IntervalUnit, sub.IntervalCount)
	sub.CurrentPeriodStart = sub.CurrentPeriodEnd
	sub.CurrentPeriodEnd = next
	_, err := j.repo.UpdateSubscription(ctx, sub)
	return err
}

func addInterval(from time.Time, unit billing.IntervalUnit, count int) time.Time {
	if count <= 0 {
		count = 1
	}
	switch unit {
	case billing.IntervalDay:
		return from.AddDate(0, 0, count)
	case billing.IntervalWeek:
		return from.AddDate(0, 0, 7*count)
	case billing.IntervalMonth:
		return from.AddDate(0, count, 0)
	case billing.IntervalYear:
		return from.AddDate(count, 0, 0)
	default:
		return from.AddDate(0, count, 0)
	}
}

// CancellationJob finalizes subscriptions whose at-period-end cancellation
// has come due outside of a renewal cycle (e.g. a plan with no further
// invoice because the customer canceled before the next renewal window
// opened).
type CancellationJob struct {
	repo   billing.Repository
	logger *zap.Logger
	batch  int
}

func NewCancellationJob(repo billing.Repository, logger *zap.Logger) *CancellationJob {
	return &CancellationJob{repo: repo, logger: logger, batch: 100}
}

func (j *CancellationJob) RunDue(ctx context.Context, appID string) (int, error) {
	now := timeNow()
	due, err := j.repo.ListScheduledCancellations(ctx, appID, now)
	if err != nil {
		return 0, err
	}
	for _, sub := range due {
		sub.Status = billing.SubscriptionCanceled
		sub.CanceledAt = &now
		if _, err := j.repo.UpdateSubscription(ctx, sub); err != nil {
			j.logger.Error("failed to finalize scheduled cancellation",
				zap.String("app_id", sub.AppID),
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
		}
	}
	return len(due), nil
}

// RetentionJob purges append-only tables (events, webhooks, idempotency
// records) past a tenant's retention policy.
type RetentionJob struct {
	repo    billing.Repository
	configs *config.TenantConfigCache
	logger  *zap.Logger
}

func NewRetentionJob(repo billing.Repository, configs *config.TenantConfigCache, logger *zap.Logger) *RetentionJob {
	return &RetentionJob{repo: repo, configs: configs, logger: logger}
}

// RetentionResult reports how many rows each purge removed, useful for
// job-run observability.
type RetentionResult struct {
	EventsPurged      int64
	WebhooksPurged    int64
	IdempotencyPurged int64
}

func (j *RetentionJob) Run(ctx context.Context, appID string) (RetentionResult, error) {
	cfg, err := j.configs.Get(ctx, appID)
	if err != nil {
		return RetentionResult{}, err
	}
	retentionDays := cfg.RetentionDays
	if retentionDays <= 0 {
		retentionDays = 90
	}
	cutoff := timeNow().AddDate(0, 0, -retentionDays)

	eventsPurged, err := j.repo.PurgeEventsOlderThan(ctx, appID, cutoff)
	if err != nil {
		j.logger.Error("failed to purge events", zap.String("app_id", appID), zap.Error(err))
	}

	webhooksPurged, err := j.repo.PurgeWebhookRecordsOlderThan(ctx, appID, cutoff)
	if err != nil {
		j.logger.Error("failed to purge webhook records", zap.String("app_id", appID), zap.Error(err))
	}

	// Idempotency records expire on their own TTL, independent of the
	// tenant's data-retention window, so this purge always uses the
	// current time as its cutoff.
	idempotencyPurged, err := j.repo.PurgeExpiredIdempotencyRecords(ctx, timeNow())
	if err != nil {
		j.logger.Error("failed to purge idempotency records", zap.String("app_id", appID), zap.Error(err))
	}

	return RetentionResult{
		EventsPurged:      eventsPurged,
		WebhooksPurged:    webhooksPurged,
		IdempotencyPurged: idempotencyPurged,
	}, nil
}
