package renewal

import (
	"context"
	"testing"
	"time"

	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/billing/billingmock"
	"github.com/cyphera-core/billing-core/internal/config"
	"github.com/cyphera-core/billing-core/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeLoader struct{ cfg config.TenantConfig }

func (f fakeLoader) LoadTenantConfig(ctx context.Context, appID string) (config.TenantConfig, error) {
	return f.cfg, nil
}

func TestInvoiceJobGeneratesInvoiceAndAdvancesPeriod(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	j := NewInvoiceJob(repo, logging.Must("test"), 72*time.Hour)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	sub := billing.Subscription{
		ID: uuid.New(), AppID: "app-1", CustomerID: uuid.New(),
		PriceCents: 1500, Quantity: 2, Currency: "USD",
		IntervalUnit: billing.IntervalMonth, IntervalCount: 1,
		Status: billing.SubscriptionActive,
		CurrentPeriodStart: start, CurrentPeriodEnd: end,
	}

	repo.EXPECT().ListDueForRenewal(gomock.Any(), "app-1", gomock.Any()).Return([]billing.Subscription{sub}, nil)
	repo.EXPECT().CreateInvoice(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, inv billing.Invoice) (billing.Invoice, error) {
			assert.Equal(t, int64(3000), inv.AmountCents)
			require.Len(t, inv.LineItems, 1)
			return inv, nil
		})
	repo.EXPECT().UpdateSubscription(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, s billing.Subscription) (billing.Subscription, error) {
			assert.Equal(t, end, s.CurrentPeriodStart)
			assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), s.CurrentPeriodEnd)
			return s, nil
		})

	n, err := j.RunDue(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInvoiceJobFinalizesCancellationAtPeriodEnd(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	j := NewInvoiceJob(repo, logging.Must("test"), 72*time.Hour)

	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	sub := billing.Subscription{
		ID: uuid.New(), AppID: "app-1", CustomerID: uuid.New(),
		PriceCents: 1000, Quantity: 1, Currency: "USD",
		IntervalUnit: billing.IntervalMonth, IntervalCount: 1,
		Status:             billing.SubscriptionActive,
		CurrentPeriodStart: end.AddDate(0, -1, 0),
		CurrentPeriodEnd:   end,
		CancelAt:           &end,
	}

	repo.EXPECT().ListDueForRenewal(gomock.Any(), "app-1", gomock.Any()).Return([]billing.Subscription{sub}, nil)
	repo.EXPECT().CreateInvoice(gomock.Any(), gomock.Any()).Return(billing.Invoice{}, nil)
	repo.EXPECT().UpdateSubscription(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, s billing.Subscription) (billing.Subscription, error) {
			assert.Equal(t, billing.SubscriptionCanceled, s.Status)
			require.NotNil(t, s.CanceledAt)
			return s, nil
		})

	_, err := j.RunDue(context.Background(), "app-1")
	require.NoError(t, err)
}

func TestCancellationJobFinalizesScheduledCancellations(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	j := NewCancellationJob(repo, logging.Must("test"))

	sub := billing.Subscription{ID: uuid.New(), AppID: "app-1", Status: billing.SubscriptionActive}

	repo.EXPECT().ListScheduledCancellations(gomock.Any(), "app-1", gomock.Any()).Return([]billing.Subscription{sub}, nil)
	repo.EXPECT().UpdateSubscription(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, s billing.Subscription) (billing.Subscription, error) {
			assert.Equal(t, billing.SubscriptionCanceled, s.Status)
			return s, nil
		})

	n, err := j.RunDue(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRetentionJobPurgesPastWindow(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	configs := config.NewTenantConfigCache(fakeLoader{cfg: config.TenantConfig{AppID: "app-1", RetentionDays: 30}}, time.Minute)
	j := NewRetentionJob(repo, configs, logging.Must("test"))

	repo.EXPECT().PurgeEventsOlderThan(gomock.Any(), "app-1", gomock.Any()).Return(int64(5), nil)
	repo.EXPECT().PurgeWebhookRecordsOlderThan(gomock.Any(), "app-1", gomock.Any()).Return(int64(3), nil)
	repo.EXPECT().PurgeExpiredIdempotencyRecords(gomock.Any(), gomock.Any()).Return(int64(2), nil)

	result, err := j.Run(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.EventsPurged)
	assert.Equal(t, int64(3), result.WebhooksPurged)
	assert.Equal(t, int64(2), result.IdempotencyPurged)
}
