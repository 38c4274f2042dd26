package external

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"holidayguard/internal/types"
)

// CloudWatchAPI abstracts the CloudWatch PutMetricData operation.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics publishes planner, executor and delivery counters.
// Publishing is best effort: failures are logged and dropped.
//
// Metrics emitted:
//   - ConflictDetected: Dims {Conflict}
//   - RestartScheduled: Dims {Result}
//   - RestartOutcome: Dims {Status}
//   - NotificationDelivery: Dims {Sink, Result}
type CloudWatchMetrics struct {
	client    CloudWatchAPI
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchMetrics creates a publisher for the given namespace.
func NewCloudWatchMetrics(client CloudWatchAPI, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{client: client, namespace: namespace, logger: logger}
}

// RecordConflict counts a planner decision.
func (m *CloudWatchMetrics) RecordConflict(ctx context.Context, conflict bool) {
	m.put(ctx, types.MetricConflictDetected, map[string]string{
		types.DimConflict: strconv.FormatBool(conflict),
	})
}

// RecordSchedule counts one schedule attempt; result is "scheduled",
// "failed", "skipped" or "test".
func (m *CloudWatchMetrics) RecordSchedule(ctx context.Context, result string) {
	m.put(ctx, types.MetricRestartScheduled, map[string]string{
		types.DimResult: result,
	})
}

// RecordRestart counts one executor outcome.
func (m *CloudWatchMetrics) RecordRestart(ctx context.Context, status types.OutcomeStatus) {
	m.put(ctx, types.MetricRestartOutcome, map[string]string{
		types.DimStatus: string(status),
	})
}

// RecordDelivery counts one sink result.
func (m *CloudWatchMetrics) RecordDelivery(ctx context.Context, sink string, status types.DeliveryStatus) {
	m.put(ctx, types.MetricNotificationDelivery, map[string]string{
		types.DimSink:   sink,
		types.DimResult: string(status),
	})
}

func (m *CloudWatchMetrics) put(ctx context.Context, name string, dims map[string]string) {
	dimensions := make([]cwtypes.Dimension, 0, len(dims))
	for k, v := range dims {
		dimensions = append(dimensions, cwtypes.Dimension{Name: aws.String(k), Value: aws.String(v)})
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{{
			MetricName: aws.String(name),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dimensions,
		}},
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to publish metric",
			"metric", name,
			"error", err.Error(),
		)
	}
}

// NoopMetrics satisfies every recorder interface and does nothing. Used when
// ENABLE_METRICS is false and in local mode.
type NoopMetrics struct{}

func (NoopMetrics) RecordConflict(context.Context, bool)                         {}
func (NoopMetrics) RecordSchedule(context.Context, string)                       {}
func (NoopMetrics) RecordRestart(context.Context, types.OutcomeStatus)           {}
func (NoopMetrics) RecordDelivery(context.Context, string, types.DeliveryStatus) {}
