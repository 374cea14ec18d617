// Package eventbusfake is an in-memory eventbus.Bus for tests, following
// the same hand-written in-memory adapter convention as ledgerfake.
package eventbusfake

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/cyphera-core/billing-core/internal/eventbus"
)

type queued struct {
	msg      eventbus.Message
	inFlight bool
}

// Bus is a single-process, queue-named FIFO. It is safe for concurrent use.
type Bus struct {
	mu     sync.Mutex
	queues map[string][]*queued
}

var _ eventbus.Bus = (*Bus)(nil)

func New() *Bus {
	return &Bus{queues: make(map[string][]*queued)}
}

func (b *Bus) Publish(ctx context.Context, queue string, body []byte, attributes map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := make([]byte, len(body))
	copy(cp, body)
	b.queues[queue] = append(b.queues[queue], &queued{
		msg: eventbus.Message{
			ID:            uuid.NewString(),
			Body:          cp,
			ReceiptHandle: uuid.NewString(),
		},
	})
	return nil
}

func (b *Bus) Receive(ctx context.Context, queue string, maxMessages int) ([]eventbus.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []eventbus.Message
	for _, q := range b.queues[queue] {
		if q.inFlight {
			continue
		}
		q.inFlight = true
		out = append(out, q.msg)
		if len(out) >= maxMessages {
			break
		}
	}
	return out, nil
}

// Ack removes the message permanently.
func (b *Bus) Ack(ctx context.Context, queue string, receiptHandle string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.queues[queue]
	for i, q := range items {
		if q.msg.ReceiptHandle == receiptHandle {
			b.queues[queue] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

// Nack makes the message visible again for the next Receive, unlike the
// SQS transport where redelivery happens passively via visibility timeout.
func (b *Bus) Nack(ctx context.Context, queue string, receiptHandle string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, q := range b.queues[queue] {
		if q.msg.ReceiptHandle == receiptHandle {
			q.inFlight = false
			return nil
		}
	}
	return nil
}

// Depth reports how many messages (in-flight or not) remain queued.
func (b *Bus) Depth(queue string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queues[queue])
}
