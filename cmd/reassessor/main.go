// Package main is the entrypoint for the Reassessor Lambda function.
//
// The reassessor consumes ReassessMessages from the reassessment queue. Each
// message names a batch of hives; the engine is re-run against every hive's
// latest inspection so scores, risk levels and next inspection dates stay
// current as the season moves on.
//
// A message whose hives all succeed, or fail permanently (the hive or its
// account no longer exists), is acknowledged. Any transient failure reports
// the message in batchItemFailures so SQS redelivers it; the queue's redrive
// policy bounds the attempts.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"hivewatch/internal/assessment"
	"hivewatch/internal/config"
	"hivewatch/internal/db"
	notifcore "hivewatch/internal/notifications/core"
	"hivewatch/internal/queue"
	"hivewatch/internal/reassess"
	"hivewatch/internal/types"
)

// BatchReassessor runs one ReassessMessage. *reassess.Service satisfies it.
type BatchReassessor interface {
	HandleMessage(ctx context.Context, msg types.ReassessMessage) reassess.Result
}

// Handler holds the dependencies of the reassessor Lambda handler.
type Handler struct {
	service BatchReassessor
	logger  *slog.Logger
}

// Handle processes an SQS event. Messages are handled one after another;
// the service already fans out across the hives of each message.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	response := events.SQSEventResponse{}

	for _, record := range sqsEvent.Records {
		if err := h.processMessage(ctx, record); err != nil {
			h.logger.ErrorContext(ctx, "reassessment message will be retried",
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
	var msg types.ReassessMessage
	if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
		// A malformed body never parses on redelivery either.
		h.logger.ErrorContext(ctx, "dropping malformed reassess message",
			"message_id", record.MessageId,
			"error", err.Error(),
		)
		return nil
	}
	if len(msg.Hives) == 0 {
		return nil
	}

	res := h.service.HandleMessage(ctx, msg)

	var retryable []string
	for hiveID, err := range res.Failed {
		if isPermanent(err) {
			h.logger.WarnContext(ctx, "hive cannot be reassessed",
				"hive_id", hiveID,
				"error", err.Error(),
			)
			continue
		}
		retryable = append(retryable, hiveID)
	}
	if len(retryable) > 0 {
		return errors.New("transient failures for hives " + strings.Join(retryable, ","))
	}
	return nil
}

// isPermanent reports whether err will recur on every retry: the hive, its
// apiary or its account is gone.
func isPermanent(err error) bool {
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return strings.HasPrefix(string(appErr.Code), "not_found_")
}

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig(config.ProviderFromEnv())
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)
	logger.Info("reassessor Lambda initializing (cold start)", "version", cfg.Build.Version)

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	awsCfg, err := cfg.AWS.LoadAWS(ctx)
	if err != nil {
		logger.Error("failed to load AWS SDK config", "error", err)
		os.Exit(1)
	}

	var metrics notifcore.AssessmentMetrics = notifcore.NopMetrics{}
	if cfg.Observability.EnableMetrics {
		metrics = notifcore.NewCloudWatchAssessmentMetrics(
			cloudwatch.NewFromConfig(awsCfg),
			cfg.Observability.MetricNamespace,
			types.NewSlogLogger(logger),
		)
	}

	clock := types.RealClock{}
	hives := db.NewHiveRepository(pool)
	recorder := reassess.NewRecorder(
		db.NewAssessmentRepository(pool),
		hives,
		queue.NewAlertPublisher(sqs.NewFromConfig(awsCfg), cfg.AWS, logger),
		metrics,
		clock,
		logger,
	)
	service := reassess.NewService(
		hives,
		db.NewApiaryRepository(pool),
		db.NewInspectionRepository(pool),
		assessment.NewAnalyzer(logger),
		recorder,
		metrics,
		clock,
		cfg.Reassess,
		logger,
	)

	handler := &Handler{service: service, logger: logger}

	logger.Info("reassessor Lambda initialized",
		"concurrency", cfg.Reassess.Concurrency,
		"history_depth", cfg.Reassess.HistoryDepth,
	)
	lambda.Start(handler.Handle)
}
