package dunning

import (
	"context"
	"testing"

	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/billing/billingmock"
	"github.com/cyphera-core/billing-core/internal/processor/fake"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestGatewayRetrierChargesOutstandingAmount(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	gw := fake.New()

	processorID := "cus_123"
	pmID := uuid.New()
	custID := uuid.New()
	cust := billing.Customer{
		ID: custID, AppID: "app-1", ProcessorID: &processorID, DefaultPaymentMethodID: &pmID,
	}
	cust = WithOutstanding(cust, 2500, "USD")

	repo.EXPECT().GetCustomer(gomock.Any(), "app-1", custID).Return(cust, nil)

	r := NewGatewayRetrier(repo, gw)
	err := r.RetryCollection(context.Background(), "app-1", custID.String())
	require.NoError(t, err)
}

func TestGatewayRetrierRejectsCustomerWithoutPaymentMethod(t *testing.T) {
	repo := billingmock.NewMockRepositoryForTest(t)
	gw := fake.New()

	processorID := "cus_123"
	custID := uuid.New()
	cust := billing.Customer{ID: custID, AppID: "app-1", ProcessorID: &processorID}

	repo.EXPECT().GetCustomer(gomock.Any(), "app-1", custID).Return(cust, nil)

	r := NewGatewayRetrier(repo, gw)
	err := r.RetryCollection(context.Background(), "app-1", custID.String())
	assert.Error(t, err)
}
