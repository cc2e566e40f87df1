package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"hivewatch/internal/types"
)

// GenericEventType is the event_type of every generic alert payload.
const GenericEventType = "hive.alerts"

// GenericFormatter posts a stable JSON envelope for endpoints that are not a
// known chat platform.
type GenericFormatter struct{}

// Platform returns the platform identifier.
func (f *GenericFormatter) Platform() Platform {
	return PlatformGeneric
}

// GenericPayload is the webhook envelope for generic endpoints.
type GenericPayload struct {
	EventType    string        `json:"event_type"`
	MessageID    string        `json:"message_id"`
	AccountID    string        `json:"account_id"`
	HiveID       string        `json:"hive_id"`
	HiveName     string        `json:"hive_name"`
	AssessmentID string        `json:"assessment_id"`
	Level        string        `json:"level"`
	Alerts       []types.Alert `json:"alerts"`
	AssessedAt   time.Time     `json:"assessed_at"`
}

// Format transforms an AlertMessage into generic JSON.
func (f *GenericFormatter) Format(msg *types.AlertMessage) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("generic formatter: message is nil")
	}

	return json.Marshal(GenericPayload{
		EventType:    GenericEventType,
		MessageID:    msg.MessageID,
		AccountID:    msg.AccountID,
		HiveID:       msg.HiveID,
		HiveName:     msg.HiveName,
		AssessmentID: msg.AssessmentID,
		Level:        string(highestLevel(msg.Alerts)),
		Alerts:       msg.Alerts,
		AssessedAt:   msg.AssessedAt,
	})
}

// ValidateResponse only checks the status code.
func (f *GenericFormatter) ValidateResponse(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	return fmt.Errorf("generic webhook: unexpected status %d: %s", statusCode, truncateBody(body))
}
