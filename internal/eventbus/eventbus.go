// Package eventbus is the transport for gl.posting.requested messages
// consumed by the ledger posting consumer; nothing in this module
// publishes audit events on it. It is a named-queue Publisher +
// Consumer pair any producer/consumer in this module can use.
package eventbus

import "context"

// Message is one unit of work read off a queue. ReceiptHandle is opaque to
// callers; it is whatever the transport needs to Ack/Nack this specific
// delivery (for SQS, the receipt handle; for the in-memory fake, the
// message id itself).
type Message struct {
	ID            string
	Body          []byte
	ReceiptHandle string
}

// Publisher sends a message onto a named queue/topic.
type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte, attributes map[string]string) error
}

// Consumer receives a bounded batch of messages from a named queue and
// acknowledges or negatively-acknowledges each by receipt handle. Ack
// deletes the message (SQS) or marks it processed (fake); Nack is a no-op
// for SQS (the visibility timeout naturally redrives it), matching the
// at-least-once semantics the GL Posting Consumer and webhook Retry
// Controller are both built to tolerate.
type Consumer interface {
	Receive(ctx context.Context, queue string, maxMessages int) ([]Message, error)
	Ack(ctx context.Context, queue string, receiptHandle string) error
	Nack(ctx context.Context, queue string, receiptHandle string) error
}

// Bus is the combined contract most callers depend on.
type Bus interface {
	Publisher
	Consumer
}
