// Package billingmock is a hand-maintained go.uber.org/mock-style mock of
// billing.Repository, in the shape mockgen would produce (MockRepository
// + MockRepositoryMockRecorder). Engines depend on billing.Repository so
// their unit
// tests can substitute this instead of a live Postgres connection.
package billingmock

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
)

// MockRepository is a mock of billing.Repository.
type MockRepository struct {
	ctrl     *gomock.Controller
	recorder *MockRepositoryMockRecorder
}

// MockRepositoryMockRecorder is the recorder for MockRepository.
type MockRepositoryMockRecorder struct {
	mock *MockRepository
}

// NewMockRepository creates a new mock instance.
func NewMockRepository(ctrl *gomock.Controller) *MockRepository {
	mock := &MockRepository{ctrl: ctrl}
	mock.recorder = &MockRepositoryMockRecorder{mock}
	return mock
}

// NewMockRepositoryForTest wires the controller to t and registers
// ctrl.Finish via t.Cleanup.
func NewMockRepositoryForTest(t *testing.T) *MockRepository {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockRepository(ctrl)
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRepository) EXPECT() *MockRepositoryMockRecorder {
	return m.recorder
}

var _ billing.Repository = (*MockRepository)(nil)

// --- CustomerRepository ---

func (m *MockRepository) CreateCustomer(ctx context.Context, c billing.Customer) (billing.Customer, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateCustomer", ctx, c)
	ret0, _ := ret[0].(billing.Customer)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) CreateCustomer(ctx, c interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateCustomer", reflect.TypeOf((*MockRepository)(nil).CreateCustomer), ctx, c)
}

func (m *MockRepository) GetCustomer(ctx context.Context, appID string, id uuid.UUID) (billing.Customer, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetCustomer", ctx, appID, id)
	ret0, _ := ret[0].(billing.Customer)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) GetCustomer(ctx, appID, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetCustomer", reflect.TypeOf((*MockRepository)(nil).GetCustomer), ctx, appID, id)
}

func (m *MockRepository) GetCustomerByExternalID(ctx context.Context, appID, externalID string) (billing.Customer, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetCustomerByExternalID", ctx, appID, externalID)
	ret0, _ := ret[0].(billing.Customer)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) GetCustomerByExternalID(ctx, appID, externalID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetCustomerByExternalID", reflect.TypeOf((*MockRepository)(nil).GetCustomerByExternalID), ctx, appID, externalID)
}

func (m *MockRepository) UpdateCustomer(ctx context.Context, c billing.Customer) (billing.Customer, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateCustomer", ctx, c)
	ret0, _ := ret[0].(billing.Customer)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) UpdateCustomer(ctx, c interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateCustomer", reflect.TypeOf((*MockRepository)(nil).UpdateCustomer), ctx, c)
}

func (m *MockRepository) ListDelinquentCustomers(ctx context.Context, appID string, graceEndBefore time.Time) ([]billing.Customer, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListDelinquentCustomers", ctx, appID, graceEndBefore)
	ret0, _ := ret[0].([]billing.Customer)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) ListDelinquentCustomers(ctx, appID, graceEndBefore interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListDelinquentCustomers", reflect.TypeOf((*MockRepository)(nil).ListDelinquentCustomers), ctx, appID, graceEndBefore)
}

func (m *MockRepository) ListPendingCustomers(ctx context.Context, appID string, olderThan time.Time) ([]billing.Customer, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListPendingCustomers", ctx, appID, olderThan)
	ret0, _ := ret[0].([]billing.Customer)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) ListPendingCustomers(ctx, appID, olderThan interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListPendingCustomers", reflect.TypeOf((*MockRepository)(nil).ListPendingCustomers), ctx, appID, olderThan)
}

// --- PaymentMethodRepository ---

func (m *MockRepository) CreatePaymentMethod(ctx context.Context, pm billing.PaymentMethod) (billing.PaymentMethod, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreatePaymentMethod", ctx, pm)
	ret0, _ := ret[0].(billing.PaymentMethod)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) CreatePaymentMethod(ctx, pm interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreatePaymentMethod", reflect.TypeOf((*MockRepository)(nil).CreatePaymentMethod), ctx, pm)
}

func (m *MockRepository) GetDefaultPaymentMethod(ctx context.Context, appID string, customerID uuid.UUID) (billing.PaymentMethod, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetDefaultPaymentMethod", ctx, appID, customerID)
	ret0, _ := ret[0].(billing.PaymentMethod)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) GetDefaultPaymentMethod(ctx, appID, customerID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetDefaultPaymentMethod", reflect.TypeOf((*MockRepository)(nil).GetDefaultPaymentMethod), ctx, appID, customerID)
}

func (m *MockRepository) SetDefaultPaymentMethod(ctx context.Context, appID string, customerID, pmID uuid.UUID) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SetDefaultPaymentMethod", ctx, appID, customerID, pmID)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockRepositoryMockRecorder) SetDefaultPaymentMethod(ctx, appID, customerID, pmID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetDefaultPaymentMethod", reflect.TypeOf((*MockRepository)(nil).SetDefaultPaymentMethod), ctx, appID, customerID, pmID)
}

// --- SubscriptionRepository ---

func (m *MockRepository) CreateSubscription(ctx context.Context, s billing.Subscription) (billing.Subscription, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateSubscription", ctx, s)
	ret0, _ := ret[0].(billing.Subscription)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) CreateSubscription(ctx, s interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateSubscription", reflect.TypeOf((*MockRepository)(nil).CreateSubscription), ctx, s)
}

func (m *MockRepository) GetSubscription(ctx context.Context, appID string, id uuid.UUID) (billing.Subscription, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetSubscription", ctx, appID, id)
	ret0, _ := ret[0].(billing.Subscription)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) GetSubscription(ctx, appID, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetSubscription", reflect.TypeOf((*MockRepository)(nil).GetSubscription), ctx, appID, id)
}

func (m *MockRepository) GetSubscriptionByProcessorID(ctx context.Context, appID, processorID string) (billing.Subscription, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetSubscriptionByProcessorID", ctx, appID, processorID)
	ret0, _ := ret[0].(billing.Subscription)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) GetSubscriptionByProcessorID(ctx, appID, processorID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetSubscriptionByProcessorID", reflect.TypeOf((*MockRepository)(nil).GetSubscriptionByProcessorID), ctx, appID, processorID)
}

func (m *MockRepository) UpdateSubscription(ctx context.Context, s billing.Subscription) (billing.Subscription, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateSubscription", ctx, s)
	ret0, _ := ret[0].(billing.Subscription)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) UpdateSubscription(ctx, s interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateSubscription", reflect.TypeOf((*MockRepository)(nil).UpdateSubscription), ctx, s)
}

func (m *MockRepository) ListDueForRenewal(ctx context.Context, appID string, periodEndBefore time.Time) ([]billing.Subscription, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListDueForRenewal", ctx, appID, periodEndBefore)
	ret0, _ := ret[0].([]billing.Subscription)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) ListDueForRenewal(ctx, appID, periodEndBefore interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListDueForRenewal", reflect.TypeOf((*MockRepository)(nil).ListDueForRenewal), ctx, appID, periodEndBefore)
}

func (m *MockRepository) ListScheduledCancellations(ctx context.Context, appID string, cancelAtBefore time.Time) ([]billing.Subscription, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListScheduledCancellations", ctx, appID, cancelAtBefore)
	ret0, _ := ret[0].([]billing.Subscription)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) ListScheduledCancellations(ctx, appID, cancelAtBefore interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListScheduledCancellations", reflect.TypeOf((*MockRepository)(nil).ListScheduledCancellations), ctx, appID, cancelAtBefore)
}

// --- ChargeRepository ---

func (m *MockRepository) CreateCharge(ctx context.Context, c billing.Charge) (billing.Charge, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateCharge", ctx, c)
	ret0, _ := ret[0].(billing.Charge)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) CreateCharge(ctx, c interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateCharge", reflect.TypeOf((*MockRepository)(nil).CreateCharge), ctx, c)
}

func (m *MockRepository) GetCharge(ctx context.Context, appID string, id uuid.UUID) (billing.Charge, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetCharge", ctx, appID, id)
	ret0, _ := ret[0].(billing.Charge)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) GetCharge(ctx, appID, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetCharge", reflect.TypeOf((*MockRepository)(nil).GetCharge), ctx, appID, id)
}

func (m *MockRepository) GetChargeByReferenceID(ctx context.Context, appID, referenceID string) (billing.Charge, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetChargeByReferenceID", ctx, appID, referenceID)
	ret0, _ := ret[0].(billing.Charge)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

func (mr *MockRepositoryMockRecorder) GetChargeByReferenceID(ctx, appID, referenceID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetChargeByReferenceID", reflect.TypeOf((*MockRepository)(nil).GetChargeByReferenceID), ctx, appID, referenceID)
}

func (m *MockRepository) GetChargeByProcessorID(ctx context.Context, appID, processorChargeID string) (billing.Charge, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetChargeByProcessorID", ctx, appID, processorChargeID)
	ret0, _ := ret[0].(billing.Charge)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

func (mr *MockRepositoryMockRecorder) GetChargeByProcessorID(ctx, appID, processorChargeID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetChargeByProcessorID", reflect.TypeOf((*MockRepository)(nil).GetChargeByProcessorID), ctx, appID, processorChargeID)
}

func (m *MockRepository) UpsertDisputeByProcessorID(ctx context.Context, d billing.Dispute) (billing.Dispute, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpsertDisputeByProcessorID", ctx, d)
	ret0, _ := ret[0].(billing.Dispute)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) UpsertDisputeByProcessorID(ctx, d interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpsertDisputeByProcessorID", reflect.TypeOf((*MockRepository)(nil).UpsertDisputeByProcessorID), ctx, d)
}

func (m *MockRepository) UpdateCharge(ctx context.Context, c billing.Charge) (billing.Charge, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateCharge", ctx, c)
	ret0, _ := ret[0].(billing.Charge)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) UpdateCharge(ctx, c interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateCharge", reflect.TypeOf((*MockRepository)(nil).UpdateCharge), ctx, c)
}

func (m *MockRepository) SumSuccessfulRefunds(ctx context.Context, appID string, chargeID uuid.UUID) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SumSuccessfulRefunds", ctx, appID, chargeID)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) SumSuccessfulRefunds(ctx, appID, chargeID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SumSuccessfulRefunds", reflect.TypeOf((*MockRepository)(nil).SumSuccessfulRefunds), ctx, appID, chargeID)
}

func (m *MockRepository) ListPendingCharges(ctx context.Context, appID string, olderThan time.Time) ([]billing.Charge, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListPendingCharges", ctx, appID, olderThan)
	ret0, _ := ret[0].([]billing.Charge)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) ListPendingCharges(ctx, appID, olderThan interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListPendingCharges", reflect.TypeOf((*MockRepository)(nil).ListPendingCharges), ctx, appID, olderThan)
}

// --- RefundRepository ---

func (m *MockRepository) CreateRefund(ctx context.Context, r billing.Refund) (billing.Refund, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateRefund", ctx, r)
	ret0, _ := ret[0].(billing.Refund)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) CreateRefund(ctx, r interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateRefund", reflect.TypeOf((*MockRepository)(nil).CreateRefund), ctx, r)
}

func (m *MockRepository) GetRefundByProcessorID(ctx context.Context, appID, processorRefundID string) (billing.Refund, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetRefundByProcessorID", ctx, appID, processorRefundID)
	ret0, _ := ret[0].(billing.Refund)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

func (mr *MockRepositoryMockRecorder) GetRefundByProcessorID(ctx, appID, processorRefundID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetRefundByProcessorID", reflect.TypeOf((*MockRepository)(nil).GetRefundByProcessorID), ctx, appID, processorRefundID)
}

func (m *MockRepository) UpdateRefund(ctx context.Context, r billing.Refund) (billing.Refund, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateRefund", ctx, r)
	ret0, _ := ret[0].(billing.Refund)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) UpdateRefund(ctx, r interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateRefund", reflect.TypeOf((*MockRepository)(nil).UpdateRefund), ctx, r)
}

// --- InvoiceRepository ---

func (m *MockRepository) CreateInvoice(ctx context.Context, inv billing.Invoice) (billing.Invoice, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateInvoice", ctx, inv)
	ret0, _ := ret[0].(billing.Invoice)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) CreateInvoice(ctx, inv interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateInvoice", reflect.TypeOf((*MockRepository)(nil).CreateInvoice), ctx, inv)
}

func (m *MockRepository) GetInvoice(ctx context.Context, appID string, id uuid.UUID) (billing.Invoice, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetInvoice", ctx, appID, id)
	ret0, _ := ret[0].(billing.Invoice)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) GetInvoice(ctx, appID, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetInvoice", reflect.TypeOf((*MockRepository)(nil).GetInvoice), ctx, appID, id)
}

// --- WebhookRepository ---

func (m *MockRepository) CreateWebhookRecord(ctx context.Context, rec billing.WebhookRecord) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateWebhookRecord", ctx, rec)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) CreateWebhookRecord(ctx, rec interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateWebhookRecord", reflect.TypeOf((*MockRepository)(nil).CreateWebhookRecord), ctx, rec)
}

func (m *MockRepository) GetWebhookRecord(ctx context.Context, appID, eventID string) (billing.WebhookRecord, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetWebhookRecord", ctx, appID, eventID)
	ret0, _ := ret[0].(billing.WebhookRecord)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

func (mr *MockRepositoryMockRecorder) GetWebhookRecord(ctx, appID, eventID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetWebhookRecord", reflect.TypeOf((*MockRepository)(nil).GetWebhookRecord), ctx, appID, eventID)
}

func (m *MockRepository) UpdateWebhookRecord(ctx context.Context, rec billing.WebhookRecord) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateWebhookRecord", ctx, rec)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockRepositoryMockRecorder) UpdateWebhookRecord(ctx, rec interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateWebhookRecord", reflect.TypeOf((*MockRepository)(nil).UpdateWebhookRecord), ctx, rec)
}

func (m *MockRepository) AppendWebhookAttempt(ctx context.Context, a billing.WebhookAttempt) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AppendWebhookAttempt", ctx, a)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockRepositoryMockRecorder) AppendWebhookAttempt(ctx, a interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AppendWebhookAttempt", reflect.TypeOf((*MockRepository)(nil).AppendWebhookAttempt), ctx, a)
}

func (m *MockRepository) ListDueWebhookRetries(ctx context.Context, now time.Time, limit int) ([]billing.WebhookRecord, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListDueWebhookRetries", ctx, now, limit)
	ret0, _ := ret[0].([]billing.WebhookRecord)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) ListDueWebhookRetries(ctx, now, limit interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListDueWebhookRetries", reflect.TypeOf((*MockRepository)(nil).ListDueWebhookRetries), ctx, now, limit)
}

func (m *MockRepository) PurgeWebhookRecordsOlderThan(ctx context.Context, appID string, before time.Time) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PurgeWebhookRecordsOlderThan", ctx, appID, before)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) PurgeWebhookRecordsOlderThan(ctx, appID, before interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PurgeWebhookRecordsOlderThan", reflect.TypeOf((*MockRepository)(nil).PurgeWebhookRecordsOlderThan), ctx, appID, before)
}

// --- EventRepository ---

func (m *MockRepository) AppendEvent(ctx context.Context, e billing.Event) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AppendEvent", ctx, e)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockRepositoryMockRecorder) AppendEvent(ctx, e interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AppendEvent", reflect.TypeOf((*MockRepository)(nil).AppendEvent), ctx, e)
}

func (m *MockRepository) PurgeEventsOlderThan(ctx context.Context, appID string, before time.Time) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PurgeEventsOlderThan", ctx, appID, before)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) PurgeEventsOlderThan(ctx, appID, before interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PurgeEventsOlderThan", reflect.TypeOf((*MockRepository)(nil).PurgeEventsOlderThan), ctx, appID, before)
}

// --- IdempotencyRepository ---

func (m *MockRepository) GetIdempotencyRecord(ctx context.Context, appID, key string) (billing.IdempotencyRow, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetIdempotencyRecord", ctx, appID, key)
	ret0, _ := ret[0].(billing.IdempotencyRow)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

func (mr *MockRepositoryMockRecorder) GetIdempotencyRecord(ctx, appID, key interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetIdempotencyRecord", reflect.TypeOf((*MockRepository)(nil).GetIdempotencyRecord), ctx, appID, key)
}

func (m *MockRepository) PutIdempotencyRecord(ctx context.Context, row billing.IdempotencyRow) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PutIdempotencyRecord", ctx, row)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockRepositoryMockRecorder) PutIdempotencyRecord(ctx, row interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PutIdempotencyRecord", reflect.TypeOf((*MockRepository)(nil).PutIdempotencyRecord), ctx, row)
}

func (m *MockRepository) PurgeExpiredIdempotencyRecords(ctx context.Context, before time.Time) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PurgeExpiredIdempotencyRecords", ctx, before)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRepositoryMockRecorder) PurgeExpiredIdempotencyRecords(ctx, before interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PurgeExpiredIdempotencyRecords", reflect.TypeOf((*MockRepository)(nil).PurgeExpiredIdempotencyRecords), ctx, before)
}

// --- WithTx ---

func (m *MockRepository) WithTx(ctx context.Context, fn func(tx billing.Repository) error) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "WithTx", ctx, fn)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockRepositoryMockRecorder) WithTx(ctx, fn interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WithTx", reflect.TypeOf((*MockRepository)(nil).WithTx), ctx, fn)
}
