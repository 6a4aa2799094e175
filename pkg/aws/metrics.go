package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metric names emitted by the service.
const (
	MetricHTTPRequests = "HTTPRequests"
	MetricHTTPLatency  = "HTTPLatency"
	MetricHTTP4xx      = "HTTP4xxErrors"
	MetricHTTP5xx      = "HTTP5xxErrors"

	MetricPaymentsSettled    = "PaymentsSettled"
	MetricCartItemsRetracted = "CartItemsRetracted"
	MetricMenuCacheHits      = "MenuCacheHits"
	MetricMenuCacheMisses    = "MenuCacheMisses"
)

// MetricsRecorder is the slice of the metrics client the services depend on.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordValue(ctx context.Context, metricName string, value float64, dimensions map[string]string) error
}

type cloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// MetricsClient wraps CloudWatch PutMetricData. A disabled client is a no-op.
type MetricsClient struct {
	client    cloudWatchAPI
	namespace string
	enabled   bool
}

// NewMetricsClient creates a CloudWatch metrics client.
func NewMetricsClient(cfg sdkaws.Config, namespace string, enabled bool) *MetricsClient {
	if namespace == "" {
		namespace = "Bistro"
	}
	return &MetricsClient{
		client:    cloudwatch.NewFromConfig(cfg),
		namespace: namespace,
		enabled:   enabled,
	}
}

// Datum is one data point of a batch.
type Datum struct {
	Name  string
	Value float64
	Unit  types.StandardUnit
}

// Count and Latency build the common data points.
func Count(name string) Datum { return Datum{Name: name, Value: 1, Unit: types.StandardUnitCount} }

func Latency(name string, d time.Duration) Datum {
	return Datum{Name: name, Value: float64(d.Milliseconds()), Unit: types.StandardUnitMilliseconds}
}

// PutBatch sends every datum with the same dimensions in a single PutMetricData call.
func (m *MetricsClient) PutBatch(ctx context.Context, data []Datum, dimensions map[string]string) error {
	if !m.IsEnabled() || len(data) == 0 {
		return nil
	}

	dims := make([]types.Dimension, 0, len(dimensions))
	for k, v := range dimensions {
		dims = append(dims, types.Dimension{Name: sdkaws.String(k), Value: sdkaws.String(v)})
	}
	now := time.Now()
	metricData := make([]types.MetricDatum, 0, len(data))
	for _, d := range data {
		metricData = append(metricData, types.MetricDatum{
			MetricName: sdkaws.String(d.Name),
			Value:      sdkaws.Float64(d.Value),
			Unit:       d.Unit,
			Timestamp:  sdkaws.Time(now),
			Dimensions: dims,
		})
	}

	if _, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(m.namespace),
		MetricData: metricData,
	}); err != nil {
		return fmt.Errorf("failed to put %d metrics: %w", len(data), err)
	}
	return nil
}

// RecordCount increments a counter metric
func (m *MetricsClient) RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error {
	return m.PutBatch(ctx, []Datum{Count(metricName)}, dimensions)
}

// RecordValue records a plain value
func (m *MetricsClient) RecordValue(ctx context.Context, metricName string, value float64, dimensions map[string]string) error {
	return m.PutBatch(ctx, []Datum{{Name: metricName, Value: value, Unit: types.StandardUnitNone}}, dimensions)
}

// IsEnabled returns whether metrics are sent at all. Safe on a nil client.
func (m *MetricsClient) IsEnabled() bool {
	return m != nil && m.enabled
}
