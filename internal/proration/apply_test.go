package proration

import (
	"context"
	"testing"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/billing/billingmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestApplySubscriptionChangeCreatesChargesAndUpdatesSubscription(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	sub := billing.Subscription{
		ID:                 uuid.New(),
		AppID:              "app-1",
		CustomerID:         uuid.New(),
		PriceCents:         2500,
		Quantity:           1,
		Currency:           "usd",
		CurrentPeriodStart: date(2026, 1, 1),
		CurrentPeriodEnd:   date(2026, 1, 31),
	}

	repo.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(tx billing.Repository) error) error {
			return fn(repo)
		})
	repo.EXPECT().GetChargeByReferenceID(gomock.Any(), "app-1", gomock.Any()).
		Return(billing.Charge{}, false, nil).Times(2)
	repo.EXPECT().CreateCharge(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, c billing.Charge) (billing.Charge, error) {
			c.ID = uuid.New()
			return c, nil
		}).Times(2)
	repo.EXPECT().UpdateSubscription(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, s billing.Subscription) (billing.Subscription, error) {
			return s, nil
		})
	repo.EXPECT().AppendEvent(gomock.Any(), gomock.Any()).Return(nil)

	result, err := ApplySubscriptionChange(context.Background(), repo, ApplyChangeInput{
		Subscription:  sub,
		ChangeDate:    date(2026, 1, 15),
		NewPriceCents: 5000,
		NewQuantity:   1,
		Behavior:      BehaviorCreateProrations,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1333), result.Credit.AmountCents*-1)
	assert.Equal(t, int64(2667), result.Charge.AmountCents)
}

func TestApplySubscriptionChangeConflictsOnSameDayReinvocation(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	sub := billing.Subscription{
		ID:                 uuid.New(),
		AppID:              "app-1",
		CustomerID:         uuid.New(),
		PriceCents:         2500,
		Quantity:           1,
		Currency:           "usd",
		CurrentPeriodStart: date(2026, 1, 1),
		CurrentPeriodEnd:   date(2026, 1, 31),
	}

	repo.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(tx billing.Repository) error) error {
			return fn(repo)
		})
	repo.EXPECT().GetChargeByReferenceID(gomock.Any(), "app-1", gomock.Any()).
		Return(billing.Charge{}, true, nil)

	_, err := ApplySubscriptionChange(context.Background(), repo, ApplyChangeInput{
		Subscription:  sub,
		ChangeDate:    date(2026, 1, 15),
		NewPriceCents: 5000,
		NewQuantity:   1,
		Behavior:      BehaviorCreateProrations,
	})

	require.Error(t, err)
	assert.True(t, apperr.OfKind(err, apperr.KindConflict))
}

func TestApplySubscriptionChangeRequiresTenantScopedSubscription(t *testing.T) {
	_, err := ApplySubscriptionChange(context.Background(), nil, ApplyChangeInput{
		Subscription: billing.Subscription{ID: uuid.New()},
		ChangeDate:   time.Now(),
	})
	require.Error(t, err)
	assert.True(t, apperr.OfKind(err, apperr.KindValidation))
}
