package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"holidayguard/internal/types"
)

// ArchiveSinkName identifies the SQS archive in reports.
const ArchiveSinkName = "archive"

// SQSSender abstracts the SQS SendMessage operation for testability.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// ArchivePublisher sends every notification to an outcome queue so decisions
// and restart results outlive the Lambda log retention. An empty queue URL
// disables it.
type ArchivePublisher struct {
	client   SQSSender
	queueURL string
}

// NewArchivePublisher creates an ArchivePublisher for queueURL.
func NewArchivePublisher(client SQSSender, queueURL string) *ArchivePublisher {
	return &ArchivePublisher{client: client, queueURL: queueURL}
}

func (p *ArchivePublisher) Name() string { return ArchiveSinkName }

func (p *ArchivePublisher) Enabled() bool {
	return p.client != nil && p.queueURL != ""
}

// Send publishes the notification as JSON with the event type and test flag
// as message attributes, so consumers can filter without decoding bodies.
func (p *ArchivePublisher) Send(ctx context.Context, n *types.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("archive publisher: failed to marshal notification: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(string(n.EventType))},
			"test_mode":  {DataType: aws.String("String"), StringValue: aws.String(fmt.Sprintf("%t", n.TestMode))},
		},
	})
	if err != nil {
		return fmt.Errorf("archive publisher: failed to send message to %s: %w", p.queueURL, err)
	}
	return nil
}
