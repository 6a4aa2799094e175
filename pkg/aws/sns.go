package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// EventTypeAttribute carries the event name so subscribers can filter on it.
const EventTypeAttribute = "event_type"

// SNSPublisher publishes one domain event to a topic.
type SNSPublisher interface {
	Publish(ctx context.Context, topicArn, eventType string, message []byte) error
}

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	client snsAPI
}

func NewSNSClient(cfg sdkaws.Config) *SNSClient {
	return &SNSClient{client: sns.NewFromConfig(cfg)}
}

// Publish sends message tagged with eventType. FIFO topics group messages by event type.
func (s *SNSClient) Publish(ctx context.Context, topicArn, eventType string, message []byte) error {
	if topicArn == "" {
		return errors.New("empty topicArn")
	}
	in := &sns.PublishInput{
		TopicArn: sdkaws.String(topicArn),
		Message:  sdkaws.String(string(message)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			EventTypeAttribute: {DataType: sdkaws.String("String"), StringValue: sdkaws.String(eventType)},
		},
	}
	if strings.HasSuffix(topicArn, ".fifo") {
		in.MessageGroupId = sdkaws.String(eventType)
	}
	if _, err := s.client.Publish(ctx, in); err != nil {
		return fmt.Errorf("sns publish %s to %s: %w", eventType, topicArn, err)
	}
	return nil
}
