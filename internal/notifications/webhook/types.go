package webhook

import (
	"time"

	"hivewatch/internal/types"
)

// Platform identifies a webhook destination platform.
type Platform string

const (
	// PlatformGeneric posts the AlertMessage as plain JSON.
	PlatformGeneric Platform = "generic"

	// PlatformSlack represents Slack incoming webhooks.
	PlatformSlack Platform = "slack"

	// PlatformDiscord represents Discord webhook endpoints.
	PlatformDiscord Platform = "discord"
)

// PlatformFormatter transforms an AlertMessage into platform-specific JSON.
type PlatformFormatter interface {
	Format(msg *types.AlertMessage) ([]byte, error)

	// Platform returns the enum identifier for logs.
	Platform() Platform

	// ValidateResponse catches "soft failures" such as Slack answering
	// HTTP 200 with "ok": false.
	ValidateResponse(statusCode int, body []byte) error
}

// DeliveryStatus is the outcome of one delivery attempt.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// DeliveryResult describes a delivery outcome. Retryable failures should be
// re-queued; others are dropped.
type DeliveryResult struct {
	Status        DeliveryStatus
	StatusCode    int
	FailureReason string
	Retryable     bool
	RetryAfter    time.Duration
}

// --- Slack Payload Types (Block Kit) ---

// SlackPayload is the top-level structure for Slack Block Kit messages.
type SlackPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock represents a single block in a Slack Block Kit message.
type SlackBlock struct {
	Type     string       `json:"type"`
	Text     *SlackText   `json:"text,omitempty"`
	Fields   []*SlackText `json:"fields,omitempty"`
	Elements []*SlackText `json:"elements,omitempty"`
}

// SlackText is a text composition object for Slack Block Kit.
type SlackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// --- Discord Payload Types (Embeds) ---

// DiscordPayload is the top-level structure for Discord webhook messages.
type DiscordPayload struct {
	Username string         `json:"username"`
	Content  string         `json:"content"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed represents an embed in a Discord webhook message.
type DiscordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []DiscordField `json:"fields"`
	Footer      *DiscordFooter `json:"footer,omitempty"`
}

// DiscordField is a field within a Discord embed.
type DiscordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// DiscordFooter is the footer of a Discord embed.
type DiscordFooter struct {
	Text string `json:"text"`
}
