// Package core provides the infrastructure shared by the assessment pipeline
// and the alert worker: delivery retry policy and CloudWatch telemetry.
package core

import (
	"context"
	"time"

	"hivewatch/internal/types"
)

// MetricResult categorizes a delivery outcome for metrics reporting.
type MetricResult string

const (
	MetricSuccess MetricResult = "success"
	MetricFailed  MetricResult = "failed"
)

// AssessmentMetrics records the outcome of engine runs.
type AssessmentMetrics interface {
	RecordAssessment(ctx context.Context, grade types.Grade, risk types.RiskLevel, fallback bool)
	RecordAlertsPublished(ctx context.Context, count int)
	RecordHivesReassessed(ctx context.Context, reason string, count int)
}

// DeliveryMetrics records alert webhook delivery outcomes.
type DeliveryMetrics interface {
	RecordDelivery(ctx context.Context, result MetricResult)
	RecordQueueLag(ctx context.Context, lag time.Duration)
}

// RetryPolicy defines the exponential backoff parameters for delivery retries.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// AlertRetryPolicy spaces re-deliveries of a failed alert message. Delays
// are applied as SQS DelaySeconds, so MaxDelay stays within 15 minutes.
var AlertRetryPolicy = RetryPolicy{
	MaxAttempts:   3,
	BaseDelay:     30 * time.Second,
	MaxDelay:      15 * time.Minute,
	BackoffFactor: 4.0,
}

// CalculateNextRetry computes the delay before the next retry attempt:
// min(BaseDelay * BackoffFactor^attempt, MaxDelay).
func CalculateNextRetry(policy RetryPolicy, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(policy.BaseDelay)
	for i := 0; i < attempt; i++ {
		delay *= policy.BackoffFactor
	}

	d := time.Duration(delay)
	if d > policy.MaxDelay || d < 0 {
		d = policy.MaxDelay
	}
	return d
}

// NopMetrics discards every measurement. Used when ENABLE_METRICS is off.
type NopMetrics struct{}

func (NopMetrics) RecordAssessment(context.Context, types.Grade, types.RiskLevel, bool) {}
func (NopMetrics) RecordAlertsPublished(context.Context, int) {}
func (NopMetrics) RecordHivesReassessed(context.Context, string, int) {}
func (NopMetrics) RecordDelivery(context.Context, MetricResult) {}
func (NopMetrics) RecordQueueLag(context.Context, time.Duration) {}
func (NopMetrics) RecordRequest(string, string, string, time.Duration) {}
