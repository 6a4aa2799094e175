package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

type cloudWatchLogsAPI interface {
	CreateLogGroup(ctx context.Context, in *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	PutRetentionPolicy(ctx context.Context, in *cloudwatchlogs.PutRetentionPolicyInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutRetentionPolicyOutput, error)
	CreateLogStream(ctx context.Context, in *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, in *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// LogShipper is an io.Writer that forwards each log line to a CloudWatch Logs stream.
// It is meant as the extra sink of logger.InitializeWithWriter, which buffers it.
type LogShipper struct {
	client cloudWatchLogsAPI
	group  string
	stream string

	mu            sync.Mutex
	sequenceToken *string
}

// NewLogShipper creates the group (30 day retention) and a fresh stream named after the service.
func NewLogShipper(ctx context.Context, cfg sdkaws.Config, group, serviceName string) (*LogShipper, error) {
	return newLogShipper(ctx, cloudwatchlogs.NewFromConfig(cfg), group, fmt.Sprintf("%s-%d", serviceName, time.Now().Unix()))
}

func newLogShipper(ctx context.Context, client cloudWatchLogsAPI, group, stream string) (*LogShipper, error) {
	s := &LogShipper{client: client, group: group, stream: stream}

	_, err := client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{LogGroupName: sdkaws.String(group)})
	var exists *types.ResourceAlreadyExistsException
	if err != nil && !errors.As(err, &exists) {
		return nil, fmt.Errorf("failed to create log group: %w", err)
	}
	if _, err := client.PutRetentionPolicy(ctx, &cloudwatchlogs.PutRetentionPolicyInput{
		LogGroupName:    sdkaws.String(group),
		RetentionInDays: sdkaws.Int32(30),
	}); err != nil {
		return nil, fmt.Errorf("failed to set retention policy: %w", err)
	}
	if _, err := client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  sdkaws.String(group),
		LogStreamName: sdkaws.String(stream),
	}); err != nil {
		return nil, fmt.Errorf("failed to create log stream: %w", err)
	}
	return s, nil
}

// Write sends every non-empty line of p as its own event in one PutLogEvents
// call; the logger hands over buffered batches. Write never fails: shipping
// errors go to stderr so logging keeps working.
func (s *LogShipper) Write(p []byte) (int, error) {
	now := time.Now().UnixMilli()
	var events []types.InputLogEvent
	for _, line := range bytes.Split(p, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		events = append(events, types.InputLogEvent{
			Message:   sdkaws.String(string(line)),
			Timestamp: sdkaws.Int64(now),
		})
	}
	if len(events) == 0 {
		return len(p), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  sdkaws.String(s.group),
		LogStreamName: sdkaws.String(s.stream),
		SequenceToken: s.sequenceToken,
		LogEvents:     events,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "CloudWatch Logs write error: %v\n", err)
		return len(p), nil
	}
	s.sequenceToken = out.NextSequenceToken
	return len(p), nil
}
