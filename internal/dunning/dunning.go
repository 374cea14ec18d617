// Package dunning implements the delinquency controller: a scheduled job
// that advances delinquent customers through grace and retry windows.
// Stage configuration is data-driven per tenant (DunningGraceDays,
// DunningMaxAttempts, DunningRetryIntervalHours in
// internal/config.TenantConfig), not hardcoded. Campaign state is carried
// in Customer.Metadata; the controller itself follows
// internal/webhook/retry.go's scheduled-job shape (RunDue over a
// repository query).
package dunning

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/config"
)

// timeNow is a seam so tests observe deterministic timestamps, matching
// the convention in internal/webhook/retry.go.
var timeNow = func() time.Time { return time.Now().UTC() }

// State is the dunning campaign state carried in Customer.Metadata under
// the "dunning" key. It never mutates subscription status directly;
// subscription transitions come only from processor events. The
// controller owns access/state flags on the customer.
type State struct {
	Stage                  int        `json:"stage"`
	AttemptCount           int        `json:"attempt_count"`
	NextRetryAt            *time.Time `json:"next_retry_at,omitempty"`
	LastOutcome            string     `json:"last_outcome,omitempty"`
	OutstandingAmountCents int64      `json:"outstanding_amount_cents,omitempty"`
	Currency               string     `json:"currency,omitempty"`
}

// StateFromCustomer exposes stateFromMetadata to callers outside this
// package (the Webhook Handlers, which stash the failed invoice amount
// when a customer first becomes delinquent).
func StateFromCustomer(cust billing.Customer) State {
	return stateFromMetadata(cust.Metadata)
}

// WithOutstanding records the amount and currency the next retry attempt
// should collect, preserving the rest of the dunning state.
func WithOutstanding(cust billing.Customer, amountCents int64, currency string) billing.Customer {
	state := stateFromMetadata(cust.Metadata)
	state.OutstandingAmountCents = amountCents
	state.Currency = currency
	cust.Metadata = withState(cust.Metadata, state)
	return cust
}

const metadataKey = "dunning"

// stateFromMetadata decodes the dunning sub-object out of a customer's
// freeform metadata. A missing or malformed key yields the zero State,
// matching a customer entering delinquency for the first time.
func stateFromMetadata(raw json.RawMessage) State {
	if len(raw) == 0 {
		return State{}
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return State{}
	}
	sub, ok := wrapper[metadataKey]
	if !ok {
		return State{}
	}
	var s State
	_ = json.Unmarshal(sub, &s)
	return s
}

// withState re-encodes metadata with the dunning sub-object replaced,
// preserving any other keys already present.
func withState(raw json.RawMessage, s State) json.RawMessage {
	wrapper := map[string]json.RawMessage{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &wrapper)
	}
	encoded, err := json.Marshal(s)
	if err != nil {
		return raw
	}
	wrapper[metadataKey] = encoded
	out, err := json.Marshal(wrapper)
	if err != nil {
		return raw
	}
	return out
}

// Retrier re-attempts collection against a customer's default payment
// method. Implemented by the charge engine; kept narrow so the Controller
// doesn't depend on the whole charge package.
type Retrier interface {
	RetryCollection(ctx context.Context, appID string, customerID string) error
}

// Controller is the scheduled Dunning Controller.
type Controller struct {
	repo    billing.Repository
	configs *config.TenantConfigCache
	retrier Retrier
	logger  *zap.Logger
	batch   int
}

func NewController(repo billing.Repository, configs *config.TenantConfigCache, retrier Retrier, logger *zap.Logger) *Controller {
	return &Controller{repo: repo, configs: configs, retrier: retrier, logger: logger, batch: 100}
}

// RunDue advances every delinquent customer for appID whose grace period
// has passed, or whose next_retry_at is due. It returns the number of
// customers it examined.
func (c *Controller) RunDue(ctx context.Context, appID string) (int, error) {
	cfg, err := c.configs.Get(ctx, appID)
	if err != nil {
		return 0, err
	}

	now := timeNow()
	customers, err := c.repo.ListDelinquentCustomers(ctx, appID, now)
	if err != nil {
		return 0, err
	}

	for _, cust := range customers {
		c.advance(ctx, cfg, cust, now)
	}
	return len(customers), nil
}

func (c *Controller) advance(ctx context.Context, cfg config.TenantConfig, cust billing.Customer, now time.Time) {
	state := stateFromMetadata(cust.Metadata)

	// Still within grace: nothing to do yet.
	if cust.GracePeriodEnd != nil && now.Before(*cust.GracePeriodEnd) {
		return
	}
	// A retry is scheduled but not yet due.
	if state.NextRetryAt != nil && now.Before(*state.NextRetryAt) {
		return
	}

	maxAttempts := cfg.DunningMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	retryInterval := time.Duration(cfg.DunningRetryIntervalHours) * time.Hour
	if retryInterval <= 0 {
		retryInterval = 24 * time.Hour
	}

	if state.AttemptCount >= maxAttempts {
		// Exhausted every retry: the final action is data-driven and
		// external to this package; the controller only records
		// LastOutcome "exhausted" in the dunning state and sets no
		// access flag on the customer.
		state.LastOutcome = "exhausted"
		c.persist(ctx, cust, state)
		return
	}

	err := c.retrier.RetryCollection(ctx, cust.AppID, cust.ID.String())
	state.AttemptCount++
	state.Stage++
	if err != nil {
		state.LastOutcome = "failed"
		next := now.Add(retryInterval)
		state.NextRetryAt = &next
		c.logger.Warn("dunning retry failed",
			zap.String("app_id", cust.AppID),
			zap.String("customer_id", cust.ID.String()),
			zap.Int("attempt", state.AttemptCount),
			zap.Error(err))
	} else {
		state.LastOutcome = "succeeded"
		state.NextRetryAt = nil
		cust.DelinquentSince = nil
		cust.GracePeriodEnd = nil
		cust.Status = billing.CustomerActive
	}
	c.persist(ctx, cust, state)
}

func (c *Controller) persist(ctx context.Context, cust billing.Customer, state State) {
	cust.Metadata = withState(cust.Metadata, state)
	if _, err := c.repo.UpdateCustomer(ctx, cust); err != nil {
		c.logger.Error("failed to persist dunning state",
			zap.String("app_id", cust.AppID),
			zap.String("customer_id", cust.ID.String()),
			zap.Error(err))
	}
}

// Delinquent transitions a customer into delinquent status with a fresh
// grace window, typically invoked from a webhook payment-failure handler
// rather than this package's own scheduler.
func Delinquent(cust billing.Customer, graceDays int) billing.Customer {
	now := timeNow()
	cust.Status = billing.CustomerDelinquent
	cust.DelinquentSince = &now
	if graceDays <= 0 {
		graceDays = 3
	}
	end := now.AddDate(0, 0, graceDays)
	cust.GracePeriodEnd = &end
	cust.Metadata = withState(cust.Metadata, State{})
	return cust
}
