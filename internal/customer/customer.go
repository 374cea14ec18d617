// Package customer implements the customer lifecycle: local-first
// creation against the billing repository and the processor gateway. The
// local row is written before the remote call so a remote object can
// never exist without a local reference.
package customer

import (
	"context"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/processor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var timeNow = func() time.Time { return time.Now().UTC() }

// EventSink receives fire-and-forget audit events; satisfied by
// *events.Recorder. A nil sink disables auditing.
type EventSink interface {
	Record(e billing.Event)
}

type Service struct {
	repo   billing.Repository
	gw     processor.Gateway
	events EventSink
	logger *zap.Logger
}

func New(repo billing.Repository, gw processor.Gateway, events EventSink, logger *zap.Logger) *Service {
	return &Service{repo: repo, gw: gw, events: events, logger: logger}
}

// CreateParams is the local-first Create's input.
type CreateParams struct {
	AppID      string
	ExternalID string
	Email      string
	Name       string
}

// Create inserts a pending row, calls the processor, finalizes
// active/failed, and fire-and-forgets the audit event.
func (s *Service) Create(ctx context.Context, p CreateParams) (billing.Customer, error) {
	if p.AppID == "" {
		return billing.Customer{}, apperr.Validation("app_id is required")
	}

	var externalID *string
	if p.ExternalID != "" {
		externalID = &p.ExternalID
	}

	pending, err := s.repo.CreateCustomer(ctx, billing.Customer{
		AppID:      p.AppID,
		ExternalID: externalID,
		Status:     billing.CustomerPending,
		Email:      p.Email,
		Name:       p.Name,
	})
	if err != nil {
		return billing.Customer{}, err
	}

	remote, err := s.gw.CreateCustomer(ctx, p.Email, p.Name)
	if err != nil {
		pending.Status = billing.CustomerFailed
		if _, updateErr := s.repo.UpdateCustomer(ctx, pending); updateErr != nil {
			s.logger.Error("failed to mark customer failed after processor error",
				zap.String("customer_id", pending.ID.String()), zap.Error(updateErr))
		}
		return billing.Customer{}, err
	}

	pending.Status = billing.CustomerActive
	pending.ProcessorID = &remote.ProcessorID
	active, err := s.repo.UpdateCustomer(ctx, pending)
	if err != nil {
		return billing.Customer{}, err
	}

	s.auditCreated(active)
	return active, nil
}

// ReconcilePending re-attempts processor creation for customers stuck in
// status=pending past olderThan. A call that crashed or timed out between
// the local insert and the processor finalize leaves exactly this state;
// the sweep either finalizes the row active or gives up and marks it
// failed so it stops reappearing on every run.
func (s *Service) ReconcilePending(ctx context.Context, appID string, olderThan time.Duration) (int, error) {
	cutoff := timeNow().Add(-olderThan)
	pending, err := s.repo.ListPendingCustomers(ctx, appID, cutoff)
	if err != nil {
		return 0, err
	}

	for _, c := range pending {
		remote, err := s.gw.CreateCustomer(ctx, c.Email, c.Name)
		if err != nil {
			c.Status = billing.CustomerFailed
			if _, updateErr := s.repo.UpdateCustomer(ctx, c); updateErr != nil {
				s.logger.Error("failed to mark customer failed during reconciliation",
					zap.String("customer_id", c.ID.String()), zap.Error(updateErr))
			}
			s.logger.Warn("reconciliation could not create processor customer",
				zap.String("customer_id", c.ID.String()), zap.Error(err))
			continue
		}

		c.Status = billing.CustomerActive
		c.ProcessorID = &remote.ProcessorID
		active, err := s.repo.UpdateCustomer(ctx, c)
		if err != nil {
			s.logger.Error("failed to finalize reconciled customer",
				zap.String("customer_id", c.ID.String()), zap.Error(err))
			continue
		}
		s.auditCreated(active)
	}
	return len(pending), nil
}

// auditCreated enqueues the creation audit event on the background
// recorder; it can never fail or slow the create call.
func (s *Service) auditCreated(c billing.Customer) {
	if s.events == nil {
		return
	}
	s.events.Record(billing.Event{
		ID:         uuid.New(),
		AppID:      c.AppID,
		EventType:  "customer_created",
		Source:     billing.EventSourceSystem,
		EntityType: "customer",
		EntityID:   c.ID.String(),
	})
}
