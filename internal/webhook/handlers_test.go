package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/billing/billingmock"
	"github.com/cyphera-core/billing-core/internal/config"
	"github.com/cyphera-core/billing-core/internal/logging"
	"github.com/cyphera-core/billing-core/internal/processor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newHandlersForTest(t *testing.T, repo *billingmock.MockRepository) *Handlers {
	return NewHandlers(repo, config.NewTenantConfigCache(noopLoader{}, time.Minute), nil, logging.Must("test"))
}

type captureSink struct{ events []billing.Event }

func (c *captureSink) Record(e billing.Event) { c.events = append(c.events, e) }

func TestHandleSubscriptionUpdatedAppliesStatusAndPeriod(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	h := newHandlersForTest(t, repo)

	subID := uuid.New()
	processorID := "sub_live"
	existing := billing.Subscription{ID: subID, AppID: "app-1", ProcessorID: &processorID, Status: billing.SubscriptionTrialing}

	repo.EXPECT().GetSubscriptionByProcessorID(gomock.Any(), "app-1", "sub_live").Return(existing, nil)
	repo.EXPECT().UpdateSubscription(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, s billing.Subscription) (billing.Subscription, error) {
			assert.Equal(t, billing.SubscriptionActive, s.Status)
			assert.False(t, s.CurrentPeriodEnd.IsZero())
			return s, nil
		})

	raw := []byte(`{"id":"sub_live","status":"active","current_period_start":1700000000,"current_period_end":1702600000}`)
	err := h.Dispatch(context.Background(), "app-1", processor.Event{Type: "customer.subscription.updated", Raw: raw})
	require.NoError(t, err)
}

func TestHandlePaymentFailedMarksCustomerDelinquent(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	sink := &captureSink{}
	h := NewHandlers(repo, config.NewTenantConfigCache(noopLoader{}, time.Minute), sink, logging.Must("test"))

	subID := uuid.New()
	customerID := uuid.New()
	processorID := "sub_live"
	sub := billing.Subscription{ID: subID, AppID: "app-1", CustomerID: customerID, ProcessorID: &processorID}
	cust := billing.Customer{ID: customerID, AppID: "app-1", Status: billing.CustomerActive}

	repo.EXPECT().GetSubscriptionByProcessorID(gomock.Any(), "app-1", "sub_live").Return(sub, nil)
	repo.EXPECT().GetCustomer(gomock.Any(), "app-1", customerID).Return(cust, nil)
	repo.EXPECT().UpdateCustomer(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, c billing.Customer) (billing.Customer, error) {
			assert.Equal(t, billing.CustomerDelinquent, c.Status)
			require.NotNil(t, c.GracePeriodEnd)
			return c, nil
		})

	raw := []byte(`{"id":"in_1","subscription":"sub_live"}`)
	err := h.Dispatch(context.Background(), "app-1", processor.Event{Type: "invoice.payment_failed", Raw: raw})
	require.NoError(t, err)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "payment_failure", sink.events[0].EventType)
}

func TestHandleRefundCreatesWhenChargeResolvesLocally(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	h := newHandlersForTest(t, repo)

	chargeID := uuid.New()
	repo.EXPECT().GetRefundByProcessorID(gomock.Any(), "app-1", "re_1").Return(billing.Refund{}, false, nil)
	repo.EXPECT().GetChargeByProcessorID(gomock.Any(), "app-1", "ch_1").
		Return(billing.Charge{ID: chargeID, AppID: "app-1"}, true, nil)
	repo.EXPECT().CreateRefund(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, r billing.Refund) (billing.Refund, error) {
			assert.Equal(t, chargeID, r.ChargeID)
			assert.Equal(t, billing.RefundSucceeded, r.Status)
			return r, nil
		})

	raw := []byte(`{"id":"re_1","charge":"ch_1","status":"succeeded","amount":500}`)
	err := h.Dispatch(context.Background(), "app-1", processor.Event{Type: "charge.refund.updated", Raw: raw})
	require.NoError(t, err)
}

func TestHandleRefundSkipsWhenChargeUnknown(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	h := newHandlersForTest(t, repo)

	repo.EXPECT().GetRefundByProcessorID(gomock.Any(), "app-1", "re_2").Return(billing.Refund{}, false, nil)
	repo.EXPECT().GetChargeByProcessorID(gomock.Any(), "app-1", "ch_missing").Return(billing.Charge{}, false, nil)

	raw := []byte(`{"id":"re_2","charge":"ch_missing","status":"succeeded","amount":500}`)
	err := h.Dispatch(context.Background(), "app-1", processor.Event{Type: "refund.created", Raw: raw})
	require.NoError(t, err)
}

func TestDispatchUnknownEventTypeIsNonRetriable(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	h := newHandlersForTest(t, repo)

	err := h.Dispatch(context.Background(), "app-1", processor.Event{Type: "some.unmapped.event", Raw: []byte(`{}`)})
	require.Error(t, err)
	code, retriable := classify(err)
	assert.Equal(t, codeUnknownEventType, code)
	assert.False(t, retriable)
}
