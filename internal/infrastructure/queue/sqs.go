// Package queue provides ports.Queue implementations: an SQS adapter and
// an in-memory mock.
package queue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
)

// SQSQueue implements ports.Queue over the classic aws/aws-sdk-go v1 sqs
// client, per spec.md §6's message_broker/message_broker_url variables.
type SQSQueue struct {
	client   sqsiface.SQSAPI
	queueURL string
}

// NewSQSQueue wraps an already-configured SQS client targeting queueURL.
func NewSQSQueue(client sqsiface.SQSAPI, queueURL string) *SQSQueue {
	return &SQSQueue{client: client, queueURL: queueURL}
}

func (q *SQSQueue) Enqueue(ctx context.Context, envelope []byte) (bool, error) {
	_, err := q.client.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(envelope)),
	})
	if err != nil {
		return false, fmt.Errorf("enqueuing message: %w", err)
	}
	return true, nil
}
