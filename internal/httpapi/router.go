// Package httpapi implements the HTTP surface as a gin router: tenant
// gating and error mapping middleware wrap handlers across customers,
// subscriptions, charges and refunds, proration, webhook ingress and
// period close.
package httpapi

import (
	"io"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/charge"
	"github.com/cyphera-core/billing-core/internal/config"
	"github.com/cyphera-core/billing-core/internal/customer"
	"github.com/cyphera-core/billing-core/internal/events"
	"github.com/cyphera-core/billing-core/internal/idempotency"
	"github.com/cyphera-core/billing-core/internal/ledger"
	"github.com/cyphera-core/billing-core/internal/subscription"
	"github.com/cyphera-core/billing-core/internal/tenantgate"
	"github.com/cyphera-core/billing-core/internal/webhook"
)

// Services bundles every collaborator the router dispatches into. It is
// assembled once at startup by cmd/api and handed to NewRouter.
type Services struct {
	Repo          billing.Repository
	Customers     *customer.Service
	Subscriptions *subscription.Service
	Charges       *charge.Service
	Webhooks      *webhook.Ingress
	CloseWorkflow *ledger.CloseWorkflow
	Idempotency   *idempotency.Checker
	Tenants       *config.TenantConfigCache
	Mapper        *apperr.Mapper
	JWTSecret     []byte
	// Events is optional: when set, the webhook route records a
	// system-sourced receipt event through the bounded async queue rather
	// than blocking on a synchronous write.
	Events *events.Recorder
}

// NewRouter builds the gin.Engine exposing the API surface.
func NewRouter(svc *Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "Idempotency-Key"},
	}))
	r.Use(svc.Mapper.Middleware())

	h := &handlers{svc: svc}

	// Webhook ingress has no tenant-gate auth (signature only) and is
	// mounted outside the gated group.
	r.POST("/webhooks/:app_id", h.receiveWebhook)

	gated := r.Group("/")
	gated.Use(tenantgate.Middleware(svc.JWTSecret))
	{
		gated.POST("/customers", idempotent(svc.Idempotency, h.createCustomer))
		gated.GET("/customers/:id", h.getCustomer)
		gated.PUT("/customers/:id", idempotent(svc.Idempotency, h.updateCustomer))
		gated.POST("/customers/:id/default-payment-method", idempotent(svc.Idempotency, h.setDefaultPaymentMethod))

		gated.POST("/subscriptions", idempotent(svc.Idempotency, h.createSubscription))
		gated.GET("/subscriptions/:id", h.getSubscription)
		gated.PUT("/subscriptions/:id", idempotent(svc.Idempotency, h.changeSubscriptionCycle))
		gated.DELETE("/subscriptions/:id", idempotent(svc.Idempotency, h.cancelSubscription))

		gated.POST("/charges/one-time", idempotent(svc.Idempotency, h.createOneTimeCharge))
		gated.POST("/refunds", idempotent(svc.Idempotency, h.createRefund))

		gated.POST("/proration/calculate", h.calculateProration)
		gated.POST("/subscriptions/:id/proration/apply", idempotent(svc.Idempotency, h.applyProration))
		gated.POST("/subscriptions/:id/proration/cancellation-refund", h.cancellationRefund)

		gated.POST("/periods/:id/validate-close", h.validateClose)
		gated.POST("/periods/:id/close", idempotent(svc.Idempotency, h.closePeriod))
		gated.GET("/periods/:id/close-status", h.closeStatus)
	}

	return r
}

type handlers struct {
	svc *Services
}

func appID(c *gin.Context) string {
	v, _ := c.Get("app_id")
	s, _ := v.(string)
	return s
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.UUID{}, apperr.Validation("invalid " + name)
	}
	return id, nil
}

// idempotent wraps a handler with the Idempotency Store's begin/finalize
// cycle for mutating endpoints that require an Idempotency-Key header.
// The wrapped handler writes its response via c.JSON as normal;
// idempotent captures it via a response recorder so Finalize can
// persist the exact bytes sent.
func idempotent(checker *idempotency.Checker, next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Idempotency-Key")
		if key == "" {
			c.Error(apperr.Validation("Idempotency-Key header is required"))
			c.Abort()
			return
		}

		raw, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(newByteReader(raw))

		hash := idempotency.RequestHash(c.Request.Method, c.FullPath(), raw)
		app := appID(c)

		outcome, err := checker.Begin(c.Request.Context(), app, key, hash)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		if outcome.Cached {
			c.Data(outcome.StatusCode, "application/json", outcome.Body)
			c.Abort()
			return
		}

		rec := &responseRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		next(c)
		if len(c.Errors) > 0 {
			return
		}

		_ = checker.Finalize(c.Request.Context(), app, key, hash, rec.status, rec.body)
	}
}
