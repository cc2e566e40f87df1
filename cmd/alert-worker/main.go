// Package main is the entrypoint for the Alert Worker Lambda function.
//
// The alert worker consumes AlertMessages from the alerts queue and posts
// them, HMAC-signed, to the configured webhook in the generic, Slack or
// Discord format.
//
// Handler flow, for each SQS message in the batch:
//
//  1. Unmarshal the AlertMessage; malformed bodies are dropped.
//  2. Record queue lag from the SentTimestamp attribute.
//  3. Deliver. The HTTP client already retries 429 and 5xx in-process.
//  4. On a retryable failure publish a delayed copy with RetryCount+1 and
//     acknowledge the original, until AlertRetryPolicy.MaxAttempts.
//  5. Permanent failures are logged and acknowledged.
//
// Only a failed re-publish reports the message in batchItemFailures, so SQS
// redelivers the original instead of losing it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"hivewatch/internal/config"
	"hivewatch/internal/external"
	notifcore "hivewatch/internal/notifications/core"
	"hivewatch/internal/notifications/webhook"
	"hivewatch/internal/queue"
	"hivewatch/internal/types"
)

// AlertDeliverer posts one message. *webhook.Deliverer satisfies it.
type AlertDeliverer interface {
	Deliver(ctx context.Context, msg *types.AlertMessage) (*webhook.DeliveryResult, error)
}

// AlertRequeuer re-publishes a message with a delay. *queue.AlertPublisher
// satisfies it.
type AlertRequeuer interface {
	RequeueAlerts(ctx context.Context, msg types.AlertMessage, delay time.Duration) error
}

// Handler holds the dependencies of the alert worker Lambda handler.
type Handler struct {
	deliverer   AlertDeliverer
	requeuer    AlertRequeuer
	metrics     notifcore.DeliveryMetrics
	retryPolicy notifcore.RetryPolicy
	clock       types.Clock
	logger      *slog.Logger
}

// Handle processes an SQS event. Each message is handled independently.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	response := events.SQSEventResponse{}

	for _, record := range sqsEvent.Records {
		if err := h.processMessage(ctx, record); err != nil {
			h.logger.ErrorContext(ctx, "failed to process alert message",
				"message_id", record.MessageId,
				"error", err.Error(),
			)
			response.BatchItemFailures = append(response.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId},
			)
		}
	}

	return response, nil
}

func (h *Handler) processMessage(ctx context.Context, record events.SQSMessage) error {
	var msg types.AlertMessage
	if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
		h.logger.ErrorContext(ctx, "dropping malformed alert message",
			"message_id", record.MessageId,
			"error", err.Error(),
		)
		return nil
	}

	logger := h.logger.With(
		"alert_message_id", msg.MessageID,
		"hive_id", msg.HiveID,
		"account_id", msg.AccountID,
		"retry_count", msg.RetryCount,
	)

	if sent, ok := record.Attributes["SentTimestamp"]; ok {
		if sentAt, err := parseMillisTimestamp(sent); err == nil {
			h.metrics.RecordQueueLag(ctx, h.clock.Now().Sub(sentAt))
		}
	}

	result, err := h.deliverer.Deliver(ctx, &msg)
	if err != nil {
		h.metrics.RecordDelivery(ctx, notifcore.MetricFailed)
		logger.ErrorContext(ctx, "alert could not be delivered", "error", err.Error())
		return nil
	}

	if result.Status == webhook.DeliverySent {
		h.metrics.RecordDelivery(ctx, notifcore.MetricSuccess)
		return nil
	}

	h.metrics.RecordDelivery(ctx, notifcore.MetricFailed)
	return h.handleFailure(ctx, msg, result, logger)
}

// handleFailure re-publishes retryable failures with backoff and drops the
// rest.
func (h *Handler) handleFailure(ctx context.Context, msg types.AlertMessage, result *webhook.DeliveryResult, logger *slog.Logger) error {
	if !result.Retryable {
		logger.ErrorContext(ctx, "alert delivery permanently failed",
			"status_code", result.StatusCode,
			"reason", result.FailureReason,
		)
		return nil
	}
	if msg.RetryCount >= h.retryPolicy.MaxAttempts {
		logger.ErrorContext(ctx, "alert delivery retries exhausted",
			"status_code", result.StatusCode,
			"reason", result.FailureReason,
		)
		return nil
	}

	delay := result.RetryAfter
	if delay <= 0 {
		delay = notifcore.CalculateNextRetry(h.retryPolicy, msg.RetryCount)
	}

	if err := h.requeuer.RequeueAlerts(ctx, msg, delay); err != nil {
		return fmt.Errorf("requeue alert message: %w", err)
	}

	logger.WarnContext(ctx, "alert delivery retry scheduled",
		"reason", result.FailureReason,
		"delay_seconds", int(delay.Seconds()),
	)
	return nil
}

// parseMillisTimestamp parses the millisecond epoch used by SQS attributes.
func parseMillisTimestamp(ms string) (time.Time, error) {
	millis, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(millis), nil
}

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig(config.ProviderFromEnv())
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)
	logger.Info("alert worker Lambda initializing (cold start)", "version", cfg.Build.Version)

	awsCfg, err := cfg.AWS.LoadAWS(ctx)
	if err != nil {
		logger.Error("failed to load AWS SDK config", "error", err)
		os.Exit(1)
	}

	client := external.NewBaseClient(
		&http.Client{Timeout: cfg.Alerts.Timeout},
		"alert-webhook",
		external.RetryPolicy{
			MaxRetries: cfg.Alerts.MaxRetries,
			MinWait:    external.DefaultRetryPolicy().MinWait,
			MaxWait:    external.DefaultRetryPolicy().MaxWait,
		},
		cfg.Alerts.UserAgent,
	)

	clock := types.RealClock{}
	deliverer, err := webhook.NewDeliverer(cfg.Alerts, client, clock, logger)
	if err != nil {
		logger.Error("failed to create webhook deliverer", "error", err)
		os.Exit(1)
	}

	var metrics notifcore.DeliveryMetrics = notifcore.NopMetrics{}
	if cfg.Observability.EnableMetrics {
		metrics = notifcore.NewCloudWatchAssessmentMetrics(
			cloudwatch.NewFromConfig(awsCfg),
			cfg.Observability.MetricNamespace,
			types.NewSlogLogger(logger),
		)
	}

	handler := &Handler{
		deliverer:   deliverer,
		requeuer:    queue.NewAlertPublisher(sqs.NewFromConfig(awsCfg), cfg.AWS, logger),
		metrics:     metrics,
		retryPolicy: notifcore.AlertRetryPolicy,
		clock:       clock,
		logger:      logger,
	}

	logger.Info("alert worker Lambda initialized",
		"platform", string(deliverer.Platform()),
		"timeout", cfg.Alerts.Timeout.String(),
		"max_retries", cfg.Alerts.MaxRetries,
	)
	lambda.Start(handler.Handle)
}
