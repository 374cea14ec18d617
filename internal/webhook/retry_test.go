package webhook

import (
	"context"
	"testing"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/billing/billingmock"
	"github.com/cyphera-core/billing-core/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestControllerRetryOneSucceedsAndMarksProcessed(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	h := newHandlersForTest(t, repo)
	c := NewController(repo, h, logging.Must("test"))

	rec := billing.WebhookRecord{
		AppID:        "app-1",
		EventID:      "evt_1",
		EventType:    "customer.subscription.canceled",
		Status:       billing.WebhookFailed,
		AttemptCount: 1,
		Payload:      []byte(`{"id":"sub_live"}`),
	}
	subID := "sub_live"
	existing := billing.Subscription{ID: uuid.New(), AppID: "app-1", ProcessorID: &subID, Status: billing.SubscriptionActive}

	repo.EXPECT().ListDueWebhookRetries(gomock.Any(), gomock.Any(), gomock.Any()).Return([]billing.WebhookRecord{rec}, nil)
	repo.EXPECT().UpdateWebhookRecord(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, r billing.WebhookRecord) error {
			assert.Equal(t, billing.WebhookProcessing, r.Status)
			return nil
		})
	repo.EXPECT().GetSubscriptionByProcessorID(gomock.Any(), "app-1", "sub_live").Return(existing, nil)
	repo.EXPECT().UpdateSubscription(gomock.Any(), gomock.Any()).Return(existing, nil)
	repo.EXPECT().UpdateWebhookRecord(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, r billing.WebhookRecord) error {
			assert.Equal(t, billing.WebhookProcessed, r.Status)
			assert.Equal(t, 2, r.AttemptCount)
			return nil
		})
	repo.EXPECT().AppendWebhookAttempt(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, a billing.WebhookAttempt) error {
			assert.Equal(t, billing.WebhookProcessed, a.Status)
			assert.Equal(t, 2, a.AttemptNumber)
			return nil
		})

	count, err := c.RunDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestControllerDeadLettersAfterMaxAttempts(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	h := newHandlersForTest(t, repo)
	c := NewController(repo, h, logging.Must("test"))

	rec := billing.WebhookRecord{
		AppID:        "app-1",
		EventID:      "evt_2",
		EventType:    "customer.subscription.canceled",
		Status:       billing.WebhookFailed,
		AttemptCount: maxAttempts - 1,
		Payload:      []byte(`{"id":"sub_missing"}`),
	}

	repo.EXPECT().ListDueWebhookRetries(gomock.Any(), gomock.Any(), gomock.Any()).Return([]billing.WebhookRecord{rec}, nil)
	repo.EXPECT().UpdateWebhookRecord(gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().GetSubscriptionByProcessorID(gomock.Any(), "app-1", "sub_missing").
		Return(billing.Subscription{}, apperr.Internal("db unavailable", nil))
	repo.EXPECT().UpdateWebhookRecord(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, r billing.WebhookRecord) error {
			require.NotNil(t, r.DeadAt)
			assert.Equal(t, maxAttempts, r.AttemptCount)
			return nil
		})
	repo.EXPECT().AppendWebhookAttempt(gomock.Any(), gomock.Any()).Return(nil)

	_, err := c.RunDue(context.Background())
	require.NoError(t, err)
}
