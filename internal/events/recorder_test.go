package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/cyphera-core/billing-core/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventRepo struct {
	mu     sync.Mutex
	events []billing.Event
	fail   bool
}

func (f *fakeEventRepo) AppendEvent(ctx context.Context, e billing.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return assertErr
	}
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEventRepo) PurgeEventsOlderThan(ctx context.Context, appID string, before time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeEventRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

var assertErr = errAppend{}

type errAppend struct{}

func (errAppend) Error() string { return "append failed" }

func TestRecorderPersistsQueuedEvents(t *testing.T) {
	repo := &fakeEventRepo{}
	r := NewRecorder(repo, logging.Must("test"), 10)
	r.Start(context.Background())
	defer r.Stop()

	r.Record(billing.Event{AppID: "app-1", EventType: "charge.succeeded", EntityID: "ch_1"})
	r.Record(billing.Event{AppID: "app-1", EventType: "charge.succeeded", EntityID: "ch_2"})

	require.Eventually(t, func() bool { return repo.count() == 2 }, time.Second, 10*time.Millisecond)
}

func TestRecorderDrainsOnStop(t *testing.T) {
	repo := &fakeEventRepo{}
	r := NewRecorder(repo, logging.Must("test"), 10)
	r.Start(context.Background())

	r.Record(billing.Event{AppID: "app-1", EventType: "customer.created", EntityID: "cust_1"})
	r.Stop()

	assert.Equal(t, 1, repo.count())
}

func TestRecorderDropsWhenQueueFull(t *testing.T) {
	repo := &fakeEventRepo{}
	r := NewRecorder(repo, logging.Must("test"), 1)
	// No Start: nothing drains, so the second Record must overflow the
	// capacity-1 channel and increment Dropped rather than block.
	r.Record(billing.Event{AppID: "app-1", EventType: "e1"})
	r.Record(billing.Event{AppID: "app-1", EventType: "e2"})

	assert.Equal(t, uint64(1), r.Dropped())
}
