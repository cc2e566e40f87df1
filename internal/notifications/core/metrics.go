package core

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"hivewatch/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// requestMetricTimeout bounds the PutMetricData call made for each API
// request, which has no caller context.
const requestMetricTimeout = time.Second

var (
	_ AssessmentMetrics = (*CloudWatchAssessmentMetrics)(nil)
	_ DeliveryMetrics   = (*CloudWatchAssessmentMetrics)(nil)
)

// CloudWatchAssessmentMetrics emits HiveWatch metrics to AWS CloudWatch.
//
// Metrics emitted:
//   - AssessmentCompleted: Dims {Grade, RiskLevel}
//   - AssessmentFallback: no dims, when the engine fell back
//   - AlertsPublished, HivesReassessed {Reason}
//   - AlertDelivered / AlertDeliveryFailed
//   - APILatency: Dims {Endpoint}, in milliseconds
//
// Failures to emit are logged and otherwise ignored.
type CloudWatchAssessmentMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchAssessmentMetrics publishes to namespace, defaulting to
// types.MetricNamespace when empty.
func NewCloudWatchAssessmentMetrics(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchAssessmentMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = types.NewSlogLogger(nil)
	}
	return &CloudWatchAssessmentMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordAssessment counts one engine run.
func (m *CloudWatchAssessmentMetrics) RecordAssessment(ctx context.Context, grade types.Grade, risk types.RiskLevel, fallback bool) {
	data := []cwtypes.MetricDatum{
		count(types.MetricAssessmentCompleted, 1,
			dim(types.DimGrade, string(grade)),
			dim(types.DimRiskLevel, string(risk)),
		),
	}
	if fallback {
		data = append(data, count(types.MetricAssessmentFallback, 1))
	}
	m.put(ctx, data, "grade", string(grade), "risk_level", string(risk))
}

// RecordAlertsPublished counts alerts handed to the alert queue.
func (m *CloudWatchAssessmentMetrics) RecordAlertsPublished(ctx context.Context, n int) {
	if n <= 0 {
		return
	}
	m.put(ctx, []cwtypes.MetricDatum{count(types.MetricAlertsPublished, float64(n))}, "count", n)
}

// RecordHivesReassessed counts hives re-run by the reassessor.
func (m *CloudWatchAssessmentMetrics) RecordHivesReassessed(ctx context.Context, reason string, n int) {
	m.put(ctx, []cwtypes.MetricDatum{
		count(types.MetricHivesReassessed, float64(n), dim(types.DimReason, reason)),
	}, "reason", reason, "count", n)
}

// RecordDelivery counts one webhook delivery outcome.
func (m *CloudWatchAssessmentMetrics) RecordDelivery(ctx context.Context, result MetricResult) {
	name := types.MetricAlertDelivered
	if result != MetricSuccess {
		name = types.MetricAlertDeliveryFailed
	}
	m.put(ctx, []cwtypes.MetricDatum{count(name, 1)}, "result", string(result))
}

// RecordQueueLag records the time between alert enqueue and processing.
func (m *CloudWatchAssessmentMetrics) RecordQueueLag(ctx context.Context, lag time.Duration) {
	m.put(ctx, []cwtypes.MetricDatum{{
		MetricName: aws.String("AlertQueueLag"),
		Value:      aws.Float64(float64(lag.Milliseconds())),
		Unit:       cwtypes.StandardUnitMilliseconds,
	}}, "lag_ms", lag.Milliseconds())
}

// RecordRequest implements core.MetricsCollector for the HTTP API.
func (m *CloudWatchAssessmentMetrics) RecordRequest(method, endpoint, status string, duration time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), requestMetricTimeout)
	defer cancel()

	m.put(ctx, []cwtypes.MetricDatum{{
		MetricName: aws.String(types.MetricAPILatency),
		Value:      aws.Float64(float64(duration.Milliseconds())),
		Unit:       cwtypes.StandardUnitMilliseconds,
		Dimensions: []cwtypes.Dimension{
			dim(types.DimEndpoint, method+" "+endpoint),
			dim("StatusClass", statusClass(status)),
		},
	}}, "endpoint", endpoint, "status", status)
}

func (m *CloudWatchAssessmentMetrics) put(ctx context.Context, data []cwtypes.MetricDatum, logArgs ...any) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		args := append([]any{"error", err.Error(), "metric", aws.ToString(data[0].MetricName)}, logArgs...)
		m.logger.Error("failed to record metric", args...)
	}
}

func count(name string, value float64, dims ...cwtypes.Dimension) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: dims,
	}
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

// statusClass collapses an HTTP status to "2xx", "4xx" and so on to keep
// dimension cardinality low.
func statusClass(status string) string {
	code, err := strconv.Atoi(status)
	if err != nil || code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}
