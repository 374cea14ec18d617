// Package sqs implements eventbus.Bus against AWS SQS as an explicit
// Receive/Ack/Nack loop a long-lived supervisor can poll.
package sqs

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/cyphera-core/billing-core/internal/eventbus"
)

// Bus wraps *sqs.Client to implement eventbus.Bus.
type Bus struct {
	client *sqs.Client
}

var _ eventbus.Bus = (*Bus)(nil)

// New loads the default AWS config (region/credentials from the
// environment) and returns a ready Bus.
func New(ctx context.Context) (*Bus, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Bus{client: sqs.NewFromConfig(cfg)}, nil
}

func (b *Bus) Publish(ctx context.Context, queue string, body []byte, attributes map[string]string) error {
	attrs := make(map[string]types.MessageAttributeValue, len(attributes))
	for k, v := range attributes {
		attrs[k] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(v),
		}
	}
	_, err := b.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(queue),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	return nil
}

func (b *Bus) Receive(ctx context.Context, queue string, maxMessages int) ([]eventbus.Message, error) {
	out, err := b.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(queue),
		MaxNumberOfMessages: int32(maxMessages),
		WaitTimeSeconds:     5,
	})
	if err != nil {
		return nil, fmt.Errorf("sqs receive message: %w", err)
	}
	msgs := make([]eventbus.Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, eventbus.Message{
			ID:            aws.ToString(m.MessageId),
			Body:          []byte(aws.ToString(m.Body)),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		})
	}
	return msgs, nil
}

func (b *Bus) Ack(ctx context.Context, queue string, receiptHandle string) error {
	_, err := b.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queue),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("sqs delete message: %w", err)
	}
	return nil
}

// Nack is a no-op: leaving the message un-deleted lets its visibility
// timeout expire so SQS redelivers it, and after the queue's configured
// maxReceiveCount it moves to the queue's own dead-letter queue, the
// same terminal state as a webhook's dead_at, delegated to SQS's native
// redrive policy instead of re-implemented here.
func (b *Bus) Nack(ctx context.Context, queue string, receiptHandle string) error {
	return nil
}
