package charge

import (
	"context"
	"testing"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/billing/billingmock"
	"github.com/cyphera-core/billing-core/internal/logging"
	"github.com/cyphera-core/billing-core/internal/processor/fake"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCreateOneTimeRequiresDefaultPaymentMethod(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	svc := New(repo, fake.New(), logging.Must("test"))

	customerID := uuid.New()
	repo.EXPECT().GetDefaultPaymentMethod(gomock.Any(), "app-1", customerID).
		Return(billing.PaymentMethod{}, apperr.NotFound("no payment method"))

	_, err := svc.CreateOneTime(context.Background(), CreateOneTimeParams{
		AppID: "app-1", CustomerID: customerID, AmountCents: 3500, Currency: "usd", ReferenceID: "r-1",
	})
	require.Error(t, err)
	assert.True(t, apperr.OfKind(err, apperr.KindConflict))
}

func TestCreateOneTimeReplaysExistingReference(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	svc := New(repo, fake.New(), logging.Must("test"))

	customerID := uuid.New()
	existing := billing.Charge{ID: uuid.New(), AppID: "app-1", ReferenceID: "r-1", AmountCents: 3500}

	repo.EXPECT().GetDefaultPaymentMethod(gomock.Any(), "app-1", customerID).
		Return(billing.PaymentMethod{IsDefault: true}, nil)
	repo.EXPECT().GetChargeByReferenceID(gomock.Any(), "app-1", "r-1").
		Return(existing, true, nil)

	out, err := svc.CreateOneTime(context.Background(), CreateOneTimeParams{
		AppID: "app-1", CustomerID: customerID, AmountCents: 3500, Currency: "usd", ReferenceID: "r-1",
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, out.ID)
}

func TestRefundRejectsWhenExceedingRemainingBalance(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	svc := New(repo, fake.New(), logging.Must("test"))

	chargeID := uuid.New()
	repo.EXPECT().GetCharge(gomock.Any(), "app-1", chargeID).
		Return(billing.Charge{ID: chargeID, AppID: "app-1", Status: billing.ChargeSucceeded, AmountCents: 1000}, nil)
	repo.EXPECT().SumSuccessfulRefunds(gomock.Any(), "app-1", chargeID).Return(int64(0), nil)

	_, err := svc.Refund(context.Background(), RefundParams{AppID: "app-1", ChargeID: chargeID, AmountCents: 1200})
	require.Error(t, err)
	assert.True(t, apperr.OfKind(err, apperr.KindConflict))
}

func TestRefundSucceedsWithinBound(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	svc := New(repo, fake.New(), logging.Must("test"))

	chargeID := uuid.New()
	processorID := "ch_live"
	repo.EXPECT().GetCharge(gomock.Any(), "app-1", chargeID).
		Return(billing.Charge{ID: chargeID, AppID: "app-1", Status: billing.ChargeSucceeded, AmountCents: 1000, ProcessorID: &processorID}, nil)
	repo.EXPECT().SumSuccessfulRefunds(gomock.Any(), "app-1", chargeID).Return(int64(200), nil)
	repo.EXPECT().CreateRefund(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, r billing.Refund) (billing.Refund, error) {
			r.ID = uuid.New()
			return r, nil
		})
	repo.EXPECT().UpdateRefund(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, r billing.Refund) (billing.Refund, error) {
			assert.Equal(t, billing.RefundSucceeded, r.Status)
			return r, nil
		})

	out, err := svc.Refund(context.Background(), RefundParams{AppID: "app-1", ChargeID: chargeID, AmountCents: 800})
	require.NoError(t, err)
	assert.Equal(t, billing.RefundSucceeded, out.Status)
}

func TestReconcilePendingFinalizesStuckCharge(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	svc := New(repo, fake.New(), logging.Must("test"))

	customerID := uuid.New()
	processorID := "cus_live"
	stuck := billing.Charge{
		ID: uuid.New(), AppID: "app-1", CustomerID: customerID,
		Status: billing.ChargePending, AmountCents: 3500, Currency: "usd", ReferenceID: "r-1",
	}

	repo.EXPECT().ListPendingCharges(gomock.Any(), "app-1", gomock.Any()).Return([]billing.Charge{stuck}, nil)
	repo.EXPECT().GetCustomer(gomock.Any(), "app-1", customerID).
		Return(billing.Customer{ID: customerID, AppID: "app-1", ProcessorID: &processorID}, nil)
	repo.EXPECT().UpdateCharge(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, c billing.Charge) (billing.Charge, error) {
			assert.Equal(t, billing.ChargeSucceeded, c.Status)
			require.NotNil(t, c.ProcessorID)
			return c, nil
		})

	n, err := svc.ReconcilePending(context.Background(), "app-1", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReconcilePendingSkipsChargeWithUnresolvedCustomer(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	svc := New(repo, fake.New(), logging.Must("test"))

	customerID := uuid.New()
	stuck := billing.Charge{
		ID: uuid.New(), AppID: "app-1", CustomerID: customerID,
		Status: billing.ChargePending, AmountCents: 3500, Currency: "usd", ReferenceID: "r-1",
	}

	repo.EXPECT().ListPendingCharges(gomock.Any(), "app-1", gomock.Any()).Return([]billing.Charge{stuck}, nil)
	repo.EXPECT().GetCustomer(gomock.Any(), "app-1", customerID).
		Return(billing.Customer{ID: customerID, AppID: "app-1"}, nil)

	n, err := svc.ReconcilePending(context.Background(), "app-1", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
