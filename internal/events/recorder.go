// Package events implements the append-only audit trail's background
// writer: a bounded task queue drained by a single worker, so business
// transactions commit first and an audit enqueue can never fail the call.
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/cyphera-core/billing-core/internal/billing"
)

// Recorder buffers billing.Event writes in a bounded channel and drains
// them from a single worker goroutine, so callers on the request path
// never block on (or fail because of) the append-only audit store.
type Recorder struct {
	repo   billing.EventRepository
	logger *zap.Logger

	queue chan billing.Event

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	dropped uint64
}

// NewRecorder builds a Recorder with the given channel capacity. A
// capacity of 0 is invalid and is promoted to a sane default, since an
// unbuffered queue would just re-introduce the blocking writes this
// package exists to avoid.
func NewRecorder(repo billing.EventRepository, logger *zap.Logger, capacity int) *Recorder {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Recorder{
		repo:   repo,
		logger: logger,
		queue:  make(chan billing.Event, capacity),
	}
}

// Start launches the drain worker. Calling Start twice is a no-op.
func (r *Recorder) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	workerCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.started = true

	go r.run(workerCtx)
}

// Stop signals the worker to finish draining in-flight work and blocks
// until it exits. Calling Stop before Start, or twice, is a no-op.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	done := r.done
	r.started = false
	r.mu.Unlock()

	cancel()
	<-done
}

// Record enqueues an event for background persistence. It never blocks:
// if the queue is full the event is dropped and counted, and a warning is
// logged. Audit writes are best-effort.
func (r *Recorder) Record(e billing.Event) {
	select {
	case r.queue <- e:
	default:
		r.mu.Lock()
		r.dropped++
		dropped := r.dropped
		r.mu.Unlock()
		r.logger.Warn("event recorder queue full, dropping event",
			zap.String("app_id", e.AppID),
			zap.String("event_type", e.EventType),
			zap.Uint64("total_dropped", dropped))
	}
}

// Dropped reports how many events have been discarded due to a full
// queue since the Recorder was created.
func (r *Recorder) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

func (r *Recorder) run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case e := <-r.queue:
			r.persist(ctx, e)
		case <-ctx.Done():
			// Drain whatever is already queued before exiting so a Stop
			// during normal shutdown doesn't silently lose buffered events.
			for {
				select {
				case e := <-r.queue:
					r.persist(context.Background(), e)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) persist(ctx context.Context, e billing.Event) {
	if err := r.repo.AppendEvent(ctx, e); err != nil {
		r.logger.Error("failed to append event",
			zap.String("app_id", e.AppID),
			zap.String("event_type", e.EventType),
			zap.String("entity_id", e.EntityID),
			zap.Error(err))
	}
}
