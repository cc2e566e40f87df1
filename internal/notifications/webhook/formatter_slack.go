package webhook

import (
	"encoding/json"
	"fmt"
	"strings"

	"hivewatch/internal/types"
)

// maxSlackAlerts caps the alert sections in one message; the rest are
// summarized in a footer.
const maxSlackAlerts = 5

// SlackFormatter formats alerts as Slack Block Kit JSON.
type SlackFormatter struct{}

// Platform returns the platform identifier.
func (f *SlackFormatter) Platform() Platform {
	return PlatformSlack
}

// Format transforms an AlertMessage into Slack Block Kit JSON.
func (f *SlackFormatter) Format(msg *types.AlertMessage) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("slack formatter: message is nil")
	}

	payload := SlackPayload{
		Text: fallbackText(msg),
		Blocks: []SlackBlock{{
			Type: "header",
			Text: &SlackText{Type: "plain_text", Text: formatTitle(msg)},
		}},
	}

	alerts := msg.Alerts
	if len(alerts) > maxSlackAlerts {
		alerts = alerts[:maxSlackAlerts]
	}
	for _, a := range alerts {
		payload.Blocks = append(payload.Blocks, SlackBlock{
			Type: "section",
			Text: &SlackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("*%s* (%s)\n%s", a.Title, a.Level, a.Message),
			},
			Fields: []*SlackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Timeline*\n%s", a.Timeline)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Action required*\n%s", yesNo(a.ActionRequired))},
			},
		})
	}
	if extra := len(msg.Alerts) - len(alerts); extra > 0 {
		payload.Blocks = append(payload.Blocks, SlackBlock{
			Type:     "context",
			Elements: []*SlackText{{Type: "mrkdwn", Text: fmt.Sprintf("...and %d more alerts.", extra)}},
		})
	}

	payload.Blocks = append(payload.Blocks, SlackBlock{
		Type: "context",
		Elements: []*SlackText{{
			Type: "mrkdwn",
			Text: fmt.Sprintf("*Assessed*: %s | HiveWatch Alerts", msg.AssessedAt.UTC().Format("2006-01-02 15:04 MST")),
		}},
	})

	return json.Marshal(payload)
}

// ValidateResponse checks for Slack's soft failures: HTTP 200 with a plain
// text error code or a JSON body carrying "ok": false.
func (f *SlackFormatter) ValidateResponse(statusCode int, body []byte) error {
	if statusCode < 200 || statusCode >= 300 {
		return fmt.Errorf("slack: unexpected status %d", statusCode)
	}

	bodyStr := strings.TrimSpace(string(body))
	if bodyStr == "" || bodyStr == "ok" {
		return nil
	}

	var resp struct {
		OK    *bool  `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err == nil {
		if resp.OK != nil && !*resp.OK {
			if resp.Error == "" {
				resp.Error = "unknown error"
			}
			return fmt.Errorf("slack: API error: %s", resp.Error)
		}
		return nil
	}

	switch bodyStr {
	case "no_text", "channel_not_found", "channel_is_archived", "invalid_payload", "too_many_attachments":
		return fmt.Errorf("slack: API error: %s", bodyStr)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
