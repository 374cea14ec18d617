package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/billing/billingmock"
	"github.com/cyphera-core/billing-core/internal/logging"
	"github.com/cyphera-core/billing-core/internal/processor/fake"
	"github.com/cyphera-core/billing-core/internal/proration"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCreateFinalizesWithProcessorPeriod(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	gw := fake.New()
	svc := New(repo, gw, logging.Must("test"))

	customerID := uuid.New()
	repo.EXPECT().CreateSubscription(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, s billing.Subscription) (billing.Subscription, error) {
			s.ID = uuid.New()
			assert.Equal(t, billing.SubscriptionTrialing, s.Status)
			return s, nil
		})
	repo.EXPECT().UpdateSubscription(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, s billing.Subscription) (billing.Subscription, error) {
			assert.Equal(t, billing.SubscriptionActive, s.Status)
			require.NotNil(t, s.ProcessorID)
			assert.False(t, s.CurrentPeriodEnd.IsZero())
			return s, nil
		})

	out, err := svc.Create(context.Background(), CreateParams{
		AppID:      "app-1",
		CustomerID: customerID.String(),
		PlanID:     "plan-pro",
		PriceID:    "price-pro",
		PriceCents: 2500,
		Quantity:   1,
		Currency:   "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, billing.SubscriptionActive, out.Status)
}

func TestCancelImmediateSetsCanceledAt(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	gw := fake.New()
	svc := New(repo, gw, logging.Must("test"))

	subID := uuid.New()
	remote, err := gw.CreateSubscription(context.Background(), "cus_1", "price-pro", 1)
	require.NoError(t, err)
	processorID := remote.ProcessorID
	existing := billing.Subscription{ID: subID, AppID: "app-1", ProcessorID: &processorID, Status: billing.SubscriptionActive}

	repo.EXPECT().GetSubscription(gomock.Any(), "app-1", subID).Return(existing, nil)
	repo.EXPECT().UpdateSubscription(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, s billing.Subscription) (billing.Subscription, error) {
			assert.Equal(t, billing.SubscriptionCanceled, s.Status)
			require.NotNil(t, s.CanceledAt)
			return s, nil
		})

	_, err = svc.Cancel(context.Background(), "app-1", subID.String(), CancelImmediate)
	require.NoError(t, err)
}

func TestCancelAtPeriodEndSchedulesCancelAt(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	gw := fake.New()
	svc := New(repo, gw, logging.Must("test"))

	subID := uuid.New()
	periodEnd := time.Now().AddDate(0, 1, 0)
	existing := billing.Subscription{ID: subID, AppID: "app-1", Status: billing.SubscriptionActive, CurrentPeriodEnd: periodEnd}

	repo.EXPECT().GetSubscription(gomock.Any(), "app-1", subID).Return(existing, nil)
	repo.EXPECT().UpdateSubscription(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, s billing.Subscription) (billing.Subscription, error) {
			require.NotNil(t, s.CancelAt)
			assert.Equal(t, periodEnd, *s.CancelAt)
			assert.Equal(t, billing.SubscriptionActive, s.Status)
			return s, nil
		})

	_, err := svc.Cancel(context.Background(), "app-1", subID.String(), CancelAtPeriodEnd)
	require.NoError(t, err)
}

func TestChangeCycleCancelsOldAndCreatesNew(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	gw := fake.New()
	svc := New(repo, gw, logging.Must("test"))

	subID := uuid.New()
	customerID := uuid.New()
	remote, err := gw.CreateSubscription(context.Background(), "cus_9", "price-annual", 1)
	require.NoError(t, err)
	processorID := remote.ProcessorID
	old := billing.Subscription{
		ID:                 subID,
		AppID:              "app-1",
		CustomerID:         customerID,
		ProcessorID:        &processorID,
		Currency:           "usd",
		Status:             billing.SubscriptionActive,
		CurrentPeriodStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		CurrentPeriodEnd:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}

	processorCustID := "cus_9"
	repo.EXPECT().GetSubscription(gomock.Any(), "app-1", subID).Return(old, nil).Times(2)
	repo.EXPECT().GetCustomer(gomock.Any(), "app-1", customerID).Return(billing.Customer{
		ID:          customerID,
		AppID:       "app-1",
		ProcessorID: &processorCustID,
		Status:      billing.CustomerActive,
	}, nil)
	repo.EXPECT().UpdateSubscription(gomock.Any(), gomock.Any()).Return(old, nil).Times(1)
	repo.EXPECT().CreateSubscription(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, s billing.Subscription) (billing.Subscription, error) {
			s.ID = uuid.New()
			return s, nil
		})
	repo.EXPECT().UpdateSubscription(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, s billing.Subscription) (billing.Subscription, error) {
			return s, nil
		}).Times(1)

	result, err := svc.ChangeCycle(context.Background(), "app-1", subID.String(), ChangeCycleParams{
		NewPlanID:            "plan-monthly",
		NewPriceID:           "price-monthly",
		NewPriceCents:        1200,
		NewQuantity:          1,
		ChangeDate:           time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		TotalPaidCents:       12000,
		CancellationBehavior: proration.CancellationPartialRefund,
	})

	require.NoError(t, err)
	assert.Equal(t, proration.ActionRefund, result.Cancellation.Action)
	assert.InDelta(t, 6032, result.Cancellation.AmountCents, 1)
}
