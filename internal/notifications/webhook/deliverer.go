package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"hivewatch/internal/config"
	"hivewatch/internal/types"
)

// maxResponseBodyRead limits how much of a response body is read for
// soft-failure detection and error messages.
const maxResponseBodyRead = 4096

// HTTPDoer executes requests. *external.BaseClient satisfies it and supplies
// retries and circuit breaking.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Deliverer posts AlertMessages to the configured webhook.
type Deliverer struct {
	client    HTTPDoer
	url       string
	formatter PlatformFormatter
	signer    *Signer
	clock     types.Clock
	logger    *slog.Logger
}

// NewDeliverer builds a Deliverer for cfg.WebhookURL. The payload format is
// cfg.Platform when set, otherwise detected from the URL.
func NewDeliverer(cfg config.AlertConfig, client HTTPDoer, clock types.Clock, logger *slog.Logger) (*Deliverer, error) {
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("webhook deliverer: ALERT_WEBHOOK_URL is not configured")
	}
	if client == nil {
		return nil, fmt.Errorf("webhook deliverer: http client is nil")
	}
	signer, err := NewSigner(cfg.SigningSecret.Unmask(), cfg.PreviousSigningSecret.Unmask(), cfg.PreviousSecretExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("webhook deliverer: %w", err)
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	registry := NewPlatformRegistry()
	return &Deliverer{
		client:    client,
		url:       cfg.WebhookURL,
		formatter: registry.Get(registry.Detect(cfg.WebhookURL, cfg.Platform)),
		signer:    signer,
		clock:     clock,
		logger:    logger,
	}, nil
}

// Platform reports the payload format in use.
func (d *Deliverer) Platform() Platform {
	return d.formatter.Platform()
}

// Deliver formats, signs and posts msg.
//
// Outcomes:
//   - 2xx that passes platform validation: sent.
//   - 2xx soft failure, exhausted 429/5xx retries, network failure: retryable.
//   - 408: retryable.
//   - Other 4xx (including 410 Gone): permanent.
//
// An error is returned only when the request could not be built.
func (d *Deliverer) Deliver(ctx context.Context, msg *types.AlertMessage) (*DeliveryResult, error) {
	payload, err := d.formatter.Format(msg)
	if err != nil {
		return nil, fmt.Errorf("webhook deliver: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("webhook deliver: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, d.signer.Sign(payload, d.clock.Now()))
	req.Header.Set("X-HiveWatch-Event", GenericEventType)
	req.Header.Set("X-HiveWatch-Delivery", msg.MessageID)
	req.Header.Set("X-HiveWatch-Attempt", strconv.Itoa(msg.RetryCount+1))

	log := d.logger.With(
		"message_id", msg.MessageID,
		"hive_id", msg.HiveID,
		"platform", string(d.formatter.Platform()),
	)

	resp, err := d.client.Do(req)
	if err != nil {
		var appErr *types.AppError
		reason := err.Error()
		if errors.As(err, &appErr) {
			reason = string(appErr.Code) + ": " + appErr.Message
		}
		log.WarnContext(ctx, "webhook delivery failed", "error", err)
		return &DeliveryResult{Status: DeliveryFailed, FailureReason: reason, Retryable: true}, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyRead))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := d.formatter.ValidateResponse(resp.StatusCode, body); err != nil {
			log.WarnContext(ctx, "webhook soft failure on 2xx", "status", resp.StatusCode, "error", err)
			return &DeliveryResult{
				Status:        DeliveryFailed,
				StatusCode:    resp.StatusCode,
				FailureReason: fmt.Sprintf("soft_failure: %v", err),
				Retryable:     true,
			}, nil
		}
		log.InfoContext(ctx, "webhook delivered", "status", resp.StatusCode, "alerts", len(msg.Alerts))
		return &DeliveryResult{Status: DeliverySent, StatusCode: resp.StatusCode}, nil

	case resp.StatusCode == http.StatusRequestTimeout:
		log.WarnContext(ctx, "webhook request timeout", "status", resp.StatusCode)
		return &DeliveryResult{
			Status:        DeliveryFailed,
			StatusCode:    resp.StatusCode,
			FailureReason: "request_timeout_408",
			Retryable:     true,
		}, nil

	default:
		log.WarnContext(ctx, "webhook client error", "status", resp.StatusCode, "body", truncateBody(body))
		return &DeliveryResult{
			Status:        DeliveryFailed,
			StatusCode:    resp.StatusCode,
			FailureReason: fmt.Sprintf("client_error_%d: %s", resp.StatusCode, truncateBody(body)),
		}, nil
	}
}
