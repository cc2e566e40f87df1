package webhook

import (
	"encoding/json"
	"fmt"

	"hivewatch/internal/types"
)

// Discord embed colors.
const (
	colorWarning  = 0xFF9800
	colorCritical = 0xF44336
)

// Discord rejects more than 25 fields per embed.
const maxDiscordFields = 25

// DiscordFormatter formats alerts as a Discord webhook message with one embed.
type DiscordFormatter struct{}

// Platform returns the platform identifier.
func (f *DiscordFormatter) Platform() Platform {
	return PlatformDiscord
}

// Format transforms an AlertMessage into Discord webhook JSON.
func (f *DiscordFormatter) Format(msg *types.AlertMessage) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("discord formatter: message is nil")
	}

	color := colorWarning
	if highestLevel(msg.Alerts) == types.AlertCritical {
		color = colorCritical
	}

	fields := make([]DiscordField, 0, min(len(msg.Alerts), maxDiscordFields))
	for i, a := range msg.Alerts {
		if i == maxDiscordFields {
			break
		}
		fields = append(fields, DiscordField{
			Name:  fmt.Sprintf("%s (%s)", a.Title, a.Level),
			Value: fmt.Sprintf("%s\nTimeline: %s", a.Message, a.Timeline),
		})
	}

	return json.Marshal(DiscordPayload{
		Username: "HiveWatch",
		Content:  fallbackText(msg),
		Embeds: []DiscordEmbed{{
			Title:       formatTitle(msg),
			Description: fmt.Sprintf("Assessment %s", msg.AssessmentID),
			Color:       color,
			Fields:      fields,
			Footer:      &DiscordFooter{Text: "HiveWatch Alerts"},
		}},
	})
}

// ValidateResponse checks the Discord webhook response. Discord returns 204
// No Content on success.
func (f *DiscordFormatter) ValidateResponse(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.Message != "" {
		return fmt.Errorf("discord: API error: %s", resp.Message)
	}
	return fmt.Errorf("discord: unexpected status %d: %s", statusCode, truncateBody(body))
}
