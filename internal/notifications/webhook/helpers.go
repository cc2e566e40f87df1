package webhook

import (
	"fmt"
	"strings"

	"hivewatch/internal/types"
)

const maxErrorBodyLen = 200

// highestLevel returns critical if any alert is critical, else warning.
func highestLevel(alerts []types.Alert) types.AlertLevel {
	for _, a := range alerts {
		if a.Level == types.AlertCritical {
			return types.AlertCritical
		}
	}
	return types.AlertWarning
}

// formatTitle builds the one-line headline shared by chat formatters.
func formatTitle(msg *types.AlertMessage) string {
	name := msg.HiveName
	if name == "" {
		name = msg.HiveID
	}
	switch len(msg.Alerts) {
	case 0:
		return fmt.Sprintf("Hive %s: no alerts", name)
	case 1:
		return fmt.Sprintf("Hive %s: %s", name, msg.Alerts[0].Title)
	default:
		return fmt.Sprintf("Hive %s: %d alerts", name, len(msg.Alerts))
	}
}

// fallbackText prefixes the title with the severity, for notification previews.
func fallbackText(msg *types.AlertMessage) string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(highestLevel(msg.Alerts))), formatTitle(msg))
}

func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBodyLen {
		return s[:maxErrorBodyLen] + "..."
	}
	return s
}
