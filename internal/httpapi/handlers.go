package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/charge"
	"github.com/cyphera-core/billing-core/internal/customer"
	"github.com/cyphera-core/billing-core/internal/proration"
	"github.com/cyphera-core/billing-core/internal/subscription"
)

// --- Customer Lifecycle ---

type createCustomerRequest struct {
	AppID      string `json:"app_id"`
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
}

func (h *handlers) createCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("invalid request body"))
		return
	}

	cust, err := h.svc.Customers.Create(c.Request.Context(), customer.CreateParams{
		AppID:      appID(c),
		ExternalID: req.ExternalID,
		Email:      req.Email,
		Name:       req.Name,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *handlers) getCustomer(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	cust, err := h.svc.Repo.GetCustomer(c.Request.Context(), appID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

type updateCustomerRequest struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
}

func (h *handlers) updateCustomer(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	var req updateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("invalid request body"))
		return
	}

	cust, err := h.svc.Repo.GetCustomer(c.Request.Context(), appID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	if req.Email != nil {
		cust.Email = *req.Email
	}
	if req.Name != nil {
		cust.Name = *req.Name
	}
	updated, err := h.svc.Repo.UpdateCustomer(c.Request.Context(), cust)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type setDefaultPaymentMethodRequest struct {
	PaymentMethodID string `json:"payment_method_id"`
}

func (h *handlers) setDefaultPaymentMethod(c *gin.Context) {
	custID, err := parseUUIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	var req setDefaultPaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("invalid request body"))
		return
	}
	pmID, err := uuid.Parse(req.PaymentMethodID)
	if err != nil {
		c.Error(apperr.Validation("invalid payment_method_id"))
		return
	}
	if err := h.svc.Repo.SetDefaultPaymentMethod(c.Request.Context(), appID(c), custID, pmID); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// --- Subscription Engine ---

type createSubscriptionRequest struct {
	CustomerID          string               `json:"customer_id"`
	ProcessorCustomerID string               `json:"processor_customer_id"`
	PlanID              string               `json:"plan_id"`
	PriceID             string               `json:"price_id"`
	PriceCents          int64                `json:"price_cents"`
	Quantity            int64                `json:"quantity"`
	Currency            string               `json:"currency"`
	IntervalUnit        billing.IntervalUnit `json:"interval_unit"`
	IntervalCount       int                  `json:"interval_count"`
}

func (h *handlers) createSubscription(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("invalid request body"))
		return
	}
	sub, err := h.svc.Subscriptions.Create(c.Request.Context(), subscription.CreateParams{
		AppID:               appID(c),
		CustomerID:          req.CustomerID,
		ProcessorCustomerID: req.ProcessorCustomerID,
		PlanID:              req.PlanID,
		PriceID:             req.PriceID,
		PriceCents:          req.PriceCents,
		Quantity:            req.Quantity,
		Currency:            req.Currency,
		IntervalUnit:        req.IntervalUnit,
		IntervalCount:       req.IntervalCount,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *handlers) getSubscription(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	sub, err := h.svc.Repo.GetSubscription(c.Request.Context(), appID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

type changeCycleRequest struct {
	NewPlanID            string                         `json:"new_plan_id"`
	NewPriceID           string                         `json:"new_price_id"`
	NewPriceCents        int64                          `json:"new_price_cents"`
	NewQuantity          int64                          `json:"new_quantity"`
	NewIntervalUnit      billing.IntervalUnit           `json:"new_interval_unit"`
	NewIntervalCount     int                            `json:"new_interval_count"`
	ChangeDate           time.Time                      `json:"change_date"`
	TotalPaidCents       int64                          `json:"total_paid_cents"`
	CancellationBehavior proration.CancellationBehavior `json:"cancellation_behavior"`
}

func (h *handlers) changeSubscriptionCycle(c *gin.Context) {
	var req changeCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("invalid request body"))
		return
	}
	result, err := h.svc.Subscriptions.ChangeCycle(c.Request.Context(), appID(c), c.Param("id"), subscription.ChangeCycleParams{
		NewPlanID:            req.NewPlanID,
		NewPriceID:           req.NewPriceID,
		NewPriceCents:        req.NewPriceCents,
		NewQuantity:          req.NewQuantity,
		NewIntervalUnit:      req.NewIntervalUnit,
		NewIntervalCount:     req.NewIntervalCount,
		ChangeDate:           req.ChangeDate,
		TotalPaidCents:       req.TotalPaidCents,
		CancellationBehavior: req.CancellationBehavior,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) cancelSubscription(c *gin.Context) {
	atPeriodEnd := c.Query("at_period_end") == "true"
	mode := subscription.CancelImmediate
	if atPeriodEnd {
		mode = subscription.CancelAtPeriodEnd
	}
	sub, err := h.svc.Subscriptions.Cancel(c.Request.Context(), appID(c), c.Param("id"), mode)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// --- Charge & Refund Engine ---

type createOneTimeChargeRequest struct {
	CustomerID          string `json:"customer_id"`
	ProcessorCustomerID string `json:"processor_customer_id"`
	AmountCents         int64  `json:"amount_cents"`
	Currency            string `json:"currency"`
	ReferenceID         string `json:"reference_id"`
}

func (h *handlers) createOneTimeCharge(c *gin.Context) {
	var req createOneTimeChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("invalid request body"))
		return
	}
	custID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		c.Error(apperr.Validation("invalid customer_id"))
		return
	}
	ch, err := h.svc.Charges.CreateOneTime(c.Request.Context(), charge.CreateOneTimeParams{
		AppID:               appID(c),
		CustomerID:          custID,
		ProcessorCustomerID: req.ProcessorCustomerID,
		AmountCents:         req.AmountCents,
		Currency:            req.Currency,
		ReferenceID:         req.ReferenceID,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

type createRefundRequest struct {
	ChargeID    string `json:"charge_id"`
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason"`
}

func (h *handlers) createRefund(c *gin.Context) {
	var req createRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("invalid request body"))
		return
	}
	chargeID, err := uuid.Parse(req.ChargeID)
	if err != nil {
		c.Error(apperr.Validation("invalid charge_id"))
		return
	}
	refund, err := h.svc.Charges.Refund(c.Request.Context(), charge.RefundParams{
		AppID:       appID(c),
		ChargeID:    chargeID,
		AmountCents: req.AmountCents,
		Reason:      req.Reason,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, refund)
}

// --- Proration Engine ---

type calculateProrationRequest struct {
	ChangeDate    time.Time `json:"change_date"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	OldPriceCents int64     `json:"old_price_cents"`
	OldQuantity   int64     `json:"old_quantity"`
	NewPriceCents int64     `json:"new_price_cents"`
	NewQuantity   int64     `json:"new_quantity"`
}

func (h *handlers) calculateProration(c *gin.Context) {
	var req calculateProrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("invalid request body"))
		return
	}
	breakdown := proration.Calculate(proration.Input{
		ChangeDate:    req.ChangeDate,
		PeriodStart:   req.PeriodStart,
		PeriodEnd:     req.PeriodEnd,
		OldPriceCents: req.OldPriceCents,
		OldQuantity:   req.OldQuantity,
		NewPriceCents: req.NewPriceCents,
		NewQuantity:   req.NewQuantity,
	})
	c.JSON(http.StatusOK, breakdown)
}

type applyProrationRequest struct {
	ChangeDate    time.Time          `json:"change_date"`
	NewPriceCents int64              `json:"new_price_cents"`
	NewQuantity   int64              `json:"new_quantity"`
	NewPlanID     string             `json:"new_plan_id"`
	Behavior      proration.Behavior `json:"behavior"`
}

func (h *handlers) applyProration(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	var req applyProrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("invalid request body"))
		return
	}
	sub, err := h.svc.Repo.GetSubscription(c.Request.Context(), appID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	result, err := proration.ApplySubscriptionChange(c.Request.Context(), h.svc.Repo, proration.ApplyChangeInput{
		Subscription:  sub,
		ChangeDate:    req.ChangeDate,
		NewPriceCents: req.NewPriceCents,
		NewQuantity:   req.NewQuantity,
		NewPlanID:     req.NewPlanID,
		Behavior:      req.Behavior,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type cancellationRefundRequest struct {
	ChangeDate           time.Time                      `json:"change_date"`
	TotalPaidCents       int64                          `json:"total_paid_cents"`
	CancellationBehavior proration.CancellationBehavior `json:"cancellation_behavior"`
}

func (h *handlers) cancellationRefund(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	var req cancellationRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("invalid request body"))
		return
	}
	sub, err := h.svc.Repo.GetSubscription(c.Request.Context(), appID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	factor := proration.CancellationRefundFactor(req.ChangeDate, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	result := proration.CancellationRefund(req.TotalPaidCents, factor, req.CancellationBehavior)
	c.JSON(http.StatusOK, result)
}

// --- Webhook Ingress ---

func (h *handlers) receiveWebhook(c *gin.Context) {
	app := c.Param("app_id")
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	tenant, err := h.svc.Tenants.Get(c.Request.Context(), app)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown app_id"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	receipt, err := h.svc.Webhooks.Deliver(c.Request.Context(), app, tenant.WebhookSecret, raw, signature)
	if err != nil {
		h.svc.Mapper.Respond(c, app, err)
		return
	}
	if h.svc.Events != nil {
		h.svc.Events.Record(billing.Event{
			ID:         uuid.New(),
			AppID:      app,
			EventType:  "webhook.received",
			Source:     billing.EventSourceSystem,
			EntityType: "webhook",
			Payload:    json.RawMessage(raw),
		})
	}
	c.JSON(http.StatusOK, receipt)
}

// --- Period Close Workflow ---

func (h *handlers) validateClose(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	result, err := h.svc.CloseWorkflow.ValidateClose(c.Request.Context(), appID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type closePeriodRequest struct {
	ClosedBy    string  `json:"closed_by"`
	CloseReason *string `json:"close_reason"`
}

func (h *handlers) closePeriod(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	var req closePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.Validation("invalid request body"))
		return
	}
	period, err := h.svc.CloseWorkflow.Close(c.Request.Context(), appID(c), id, req.ClosedBy, req.CloseReason)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, period)
}

func (h *handlers) closeStatus(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	status, err := h.svc.CloseWorkflow.CloseStatus(c.Request.Context(), appID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, status)
}
