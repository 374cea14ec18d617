package webhook

import (
	"context"
	"testing"

	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/billing/billingmock"
	"github.com/cyphera-core/billing-core/internal/config"
	"github.com/cyphera-core/billing-core/internal/logging"
	"github.com/cyphera-core/billing-core/internal/processor/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDeliverRejectsMissingSignature(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	gw := fake.New()
	h := NewHandlers(repo, config.NewTenantConfigCache(noopLoader{}, 0), nil, logging.Must("test"))
	in := New(repo, gw, h, logging.Must("test"))

	_, err := in.Deliver(context.Background(), "app-1", "whsec", []byte(`{}`), "")
	require.Error(t, err)
}

func TestDeliverIsDuplicateOnSecondDelivery(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	gw := fake.New()
	gw.SetWebhookSecret("app-1", "whsec")
	h := NewHandlers(repo, config.NewTenantConfigCache(noopLoader{}, 0), nil, logging.Must("test"))
	in := New(repo, gw, h, logging.Must("test"))

	body := []byte(`{"id":"sub_1","status":"active"}`)

	repo.EXPECT().CreateWebhookRecord(gomock.Any(), gomock.Any()).Return(true, nil)
	repo.EXPECT().GetWebhookRecord(gomock.Any(), "app-1", gomock.Any()).
		Return(billing.WebhookRecord{AppID: "app-1"}, true, nil)
	repo.EXPECT().UpdateWebhookRecord(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, rec billing.WebhookRecord) error {
			assert.Equal(t, billing.WebhookFailed, rec.Status)
			return nil
		})
	repo.EXPECT().AppendWebhookAttempt(gomock.Any(), gomock.Any()).Return(nil)

	first, err := in.Deliver(context.Background(), "app-1", "whsec", body, "whsec")
	require.NoError(t, err)
	assert.True(t, first.Received)
	assert.False(t, first.Duplicate)

	repo.EXPECT().CreateWebhookRecord(gomock.Any(), gomock.Any()).Return(false, nil)
	second, err := in.Deliver(context.Background(), "app-1", "whsec", body, "whsec")
	require.NoError(t, err)
	assert.True(t, second.Received)
	assert.True(t, second.Duplicate)
}

type noopLoader struct{}

func (noopLoader) LoadTenantConfig(ctx context.Context, appID string) (config.TenantConfig, error) {
	return config.TenantConfig{AppID: appID, DunningGraceDays: 7}, nil
}
