// Package queue provides SQS producers for dispatching hive alerts and
// reassessment requests to downstream workers.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"hivewatch/internal/config"
	"hivewatch/internal/types"
)

// maxDelaySeconds is the largest DelaySeconds SQS accepts.
const maxDelaySeconds = 900

// MaxHivesPerMessage bounds a single ReassessMessage so one slow batch cannot
// hold a Lambda invocation past its timeout.
const MaxHivesPerMessage = 25

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// AlertPublisher sends AlertMessages to the alerts queue consumed by the
// alert worker.
type AlertPublisher struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

// NewAlertPublisher creates an AlertPublisher targeting awsCfg.AlertQueueURL.
func NewAlertPublisher(client SQSSender, awsCfg config.AWSConfig, logger *slog.Logger) *AlertPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertPublisher{
		client:   client,
		queueURL: awsCfg.AlertQueueURL,
		logger:   logger,
	}
}

// PublishAlerts enqueues msg. Messages with no alerts are dropped silently.
// A missing MessageID is filled in so the worker can deduplicate deliveries.
func (p *AlertPublisher) PublishAlerts(ctx context.Context, msg types.AlertMessage) error {
	if len(msg.Alerts) == 0 {
		return nil
	}
	if msg.MessageID == "" {
		msg.MessageID = uuid.New().String()
	}

	if err := send(ctx, p.client, p.queueURL, msg, "alert", 0); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "alert message sent",
		"queue_url", p.queueURL,
		"message_id", msg.MessageID,
		"hive_id", msg.HiveID,
		"assessment_id", msg.AssessmentID,
		"alert_count", len(msg.Alerts),
		"retry_count", msg.RetryCount,
	)
	return nil
}

// RequeueAlerts re-publishes msg after a transient delivery failure. The
// retry count is incremented before serialization so the next consumer sees
// the attempt number; delay is clamped to the SQS maximum of 15 minutes.
func (p *AlertPublisher) RequeueAlerts(ctx context.Context, msg types.AlertMessage, delay time.Duration) error {
	msg.RetryCount++

	delaySec := int32(delay.Seconds())
	if delaySec > maxDelaySeconds {
		delaySec = maxDelaySeconds
	}
	if delaySec < 0 {
		delaySec = 0
	}

	if err := send(ctx, p.client, p.queueURL, msg, "retry", delaySec); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "alert message requeued",
		"message_id", msg.MessageID,
		"hive_id", msg.HiveID,
		"retry_count", msg.RetryCount,
		"delay_seconds", delaySec,
	)
	return nil
}

// ReassessTrigger sends ReassessMessages to the reassessment queue.
type ReassessTrigger struct {
	client   SQSSender
	queueURL string
	clock    types.Clock
	logger   *slog.Logger
}

// NewReassessTrigger creates a ReassessTrigger targeting awsCfg.ReassessQueueURL.
func NewReassessTrigger(client SQSSender, awsCfg config.AWSConfig, clock types.Clock, logger *slog.Logger) *ReassessTrigger {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReassessTrigger{
		client:   client,
		queueURL: awsCfg.ReassessQueueURL,
		clock:    clock,
		logger:   logger,
	}
}

// TriggerReassessment enqueues hives in chunks of MaxHivesPerMessage and
// returns the number of messages sent. It stops at the first failed send;
// chunks already sent stay sent.
func (t *ReassessTrigger) TriggerReassessment(ctx context.Context, hives []types.HiveRef, reason string) (int, error) {
	sent := 0
	now := t.clock.Now().UTC()

	for start := 0; start < len(hives); start += MaxHivesPerMessage {
		end := min(start+MaxHivesPerMessage, len(hives))
		msg := types.ReassessMessage{
			Hives:       hives[start:end],
			Reason:      reason,
			RequestedAt: now,
		}
		if err := send(ctx, t.client, t.queueURL, msg, reason, 0); err != nil {
			return sent, err
		}
		sent++
	}

	if sent > 0 {
		t.logger.InfoContext(ctx, "reassessment messages sent",
			"queue_url", t.queueURL,
			"messages", sent,
			"hives", len(hives),
			"reason", reason,
		)
	}
	return sent, nil
}

// send serializes payload to JSON and dispatches it with a "reason" attribute.
func send(ctx context.Context, client SQSSender, queueURL string, payload any, reason string, delaySec int32) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal %T: %w", payload, err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:     aws.String(queueURL),
		MessageBody:  aws.String(string(body)),
		DelaySeconds: delaySec,
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"reason": {
				DataType:    aws.String("String"),
				StringValue: aws.String(reason),
			},
		},
	}

	if _, err := client.SendMessage(ctx, input); err != nil {
		return types.NewAppError(
			types.ErrCodeUpstreamQueue,
			"failed to enqueue message",
			fmt.Errorf("queue: failed to send %T to %s: %w", payload, queueURL, err),
		)
	}
	return nil
}
