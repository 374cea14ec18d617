package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/billing/billingmock"
	"github.com/cyphera-core/billing-core/internal/charge"
	"github.com/cyphera-core/billing-core/internal/config"
	"github.com/cyphera-core/billing-core/internal/customer"
	"github.com/cyphera-core/billing-core/internal/idempotency"
	"github.com/cyphera-core/billing-core/internal/ledger"
	"github.com/cyphera-core/billing-core/internal/ledger/ledgerfake"
	"github.com/cyphera-core/billing-core/internal/logging"
	"github.com/cyphera-core/billing-core/internal/processor/fake"
	"github.com/cyphera-core/billing-core/internal/subscription"
	"github.com/cyphera-core/billing-core/internal/tenantgate"
	"github.com/cyphera-core/billing-core/internal/webhook"
	"go.uber.org/mock/gomock"
)

var jwtSecret = []byte("test-secret")

type memIdempotencyStore struct {
	rows map[string]idempotency.Record
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{rows: make(map[string]idempotency.Record)}
}

func (s *memIdempotencyStore) Get(ctx context.Context, appID, key string) (*idempotency.Record, bool, error) {
	rec, ok := s.rows[appID+"|"+key]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

func (s *memIdempotencyStore) Put(ctx context.Context, rec idempotency.Record) error {
	s.rows[rec.AppID+"|"+rec.Key] = rec
	return nil
}

func bearerToken(t *testing.T, appID string) string {
	t.Helper()
	claims := tenantgate.TenantClaims{
		AppID:            appID,
		RegisteredClaims: jwt.RegisteredClaims{},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	require.NoError(t, err)
	return "Bearer " + signed
}

func newTestRouter(t *testing.T, repo *billingmock.MockRepository, gw *fake.Gateway) (*Services, *httptest.Server) {
	t.Helper()
	logger := logging.Must("test")

	loader := staticLoader{cfg: config.TenantConfig{AppID: "app-1", WebhookSecret: "whsec"}}
	tenants := config.NewTenantConfigCache(loader, time.Minute)

	handlers := webhook.NewHandlers(repo, tenants, nil, logger)
	svc := &Services{
		Repo:          repo,
		Customers:     customer.New(repo, gw, nil, logger),
		Subscriptions: subscription.New(repo, gw, logger),
		Charges:       charge.New(repo, gw, logger),
		Webhooks:      webhook.New(repo, gw, handlers, logger),
		CloseWorkflow: ledger.NewCloseWorkflow(ledgerfake.New(), logger),
		Idempotency:   idempotency.New(newMemIdempotencyStore(), time.Hour),
		Tenants:       tenants,
		Mapper:        apperr.NewMapper(logger, false),
		JWTSecret:     jwtSecret,
	}

	r := NewRouter(svc)
	return svc, httptest.NewServer(r)
}

type staticLoader struct{ cfg config.TenantConfig }

func (s staticLoader) LoadTenantConfig(ctx context.Context, appID string) (config.TenantConfig, error) {
	return s.cfg, nil
}

func TestCreateCustomerEndToEnd(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	gw := fake.New()
	_, srv := newTestRouter(t, repo, gw)
	defer srv.Close()

	pending := billing.Customer{ID: uuid.New(), AppID: "app-1", Status: billing.CustomerPending, Email: "a@b.com", Name: "A"}
	active := pending
	active.Status = billing.CustomerActive

	repo.EXPECT().CreateCustomer(gomock.Any(), gomock.Any()).Return(pending, nil)
	repo.EXPECT().UpdateCustomer(gomock.Any(), gomock.Any()).Return(active, nil)

	body, _ := json.Marshal(map[string]string{"app_id": "app-1", "email": "a@b.com", "name": "A"})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/customers", bytes.NewReader(body))
	req.Header.Set("Authorization", bearerToken(t, "app-1"))
	req.Header.Set("Idempotency-Key", "key-1")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got billing.Customer
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, billing.CustomerActive, got.Status)
}

func TestCreateCustomerRejectsMissingIdempotencyKey(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	gw := fake.New()
	_, srv := newTestRouter(t, repo, gw)
	defer srv.Close()

	body, _ := json.Marshal(map[string]string{"app_id": "app-1", "email": "a@b.com", "name": "A"})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/customers", bytes.NewReader(body))
	req.Header.Set("Authorization", bearerToken(t, "app-1"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateCustomerRejectsMismatchedTenant(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	gw := fake.New()
	_, srv := newTestRouter(t, repo, gw)
	defer srv.Close()

	body, _ := json.Marshal(map[string]string{"app_id": "app-2", "email": "a@b.com", "name": "A"})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/customers", bytes.NewReader(body))
	req.Header.Set("Authorization", bearerToken(t, "app-1"))
	req.Header.Set("Idempotency-Key", "key-1")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebhookDeliveryIsIdempotentAcrossDuplicateDeliveries(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	gw := fake.New()
	gw.SetWebhookSecret("app-1", "whsec")
	_, srv := newTestRouter(t, repo, gw)
	defer srv.Close()

	payload := []byte(`{"id":"evt_1","type":"test.event"}`)

	var capturedEventID string
	repo.EXPECT().CreateWebhookRecord(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, rec billing.WebhookRecord) (bool, error) {
			capturedEventID = rec.EventID
			return true, nil
		})
	repo.EXPECT().GetWebhookRecord(gomock.Any(), "app-1", gomock.Any()).
		DoAndReturn(func(ctx context.Context, appID, eventID string) (billing.WebhookRecord, bool, error) {
			return billing.WebhookRecord{AppID: appID, EventID: capturedEventID, EventType: "test.event", Status: billing.WebhookReceived}, true, nil
		})
	repo.EXPECT().UpdateWebhookRecord(gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().AppendWebhookAttempt(gomock.Any(), gomock.Any()).Return(nil)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/webhooks/app-1", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", "whsec")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	repo.EXPECT().CreateWebhookRecord(gomock.Any(), gomock.Any()).Return(false, nil)
	req2, _ := http.NewRequest(http.MethodPost, srv.URL+"/webhooks/app-1", bytes.NewReader(payload))
	req2.Header.Set("Stripe-Signature", "whsec")
	resp2, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	var receipt webhook.Receipt
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&receipt))
	assert.True(t, receipt.Duplicate)
}

func TestValidateCloseReportsPeriodNotFoundOverHTTP(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	gw := fake.New()
	_, srv := newTestRouter(t, repo, gw)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/periods/"+uuid.NewString()+"/validate-close?app_id=app-1", nil)
	req.Header.Set("Authorization", bearerToken(t, "app-1"))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result ledger.ValidateCloseResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.False(t, result.CanClose)
	assert.Contains(t, result.Issues, ledger.IssuePeriodNotFound)
}
