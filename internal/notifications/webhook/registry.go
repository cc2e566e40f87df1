package webhook

import (
	"strings"
)

// PlatformRegistry maps webhook URLs to platform-specific formatters.
type PlatformRegistry struct {
	formatters map[Platform]PlatformFormatter
}

// NewPlatformRegistry creates a PlatformRegistry with all built-in formatters.
func NewPlatformRegistry() *PlatformRegistry {
	return &PlatformRegistry{
		formatters: map[Platform]PlatformFormatter{
			PlatformSlack:   &SlackFormatter{},
			PlatformDiscord: &DiscordFormatter{},
			PlatformGeneric: &GenericFormatter{},
		},
	}
}

// Detect picks the platform for url. A registered override wins; otherwise
// "hooks.slack.com" means Slack, "discord.com/api/webhooks" (or the legacy
// discordapp.com host) means Discord, and anything else is generic.
func (r *PlatformRegistry) Detect(url, override string) Platform {
	if override != "" {
		if _, ok := r.formatters[Platform(override)]; ok {
			return Platform(override)
		}
	}

	lowerURL := strings.ToLower(url)
	switch {
	case strings.Contains(lowerURL, "hooks.slack.com"):
		return PlatformSlack
	case strings.Contains(lowerURL, "discord.com/api/webhooks"),
		strings.Contains(lowerURL, "discordapp.com/api/webhooks"):
		return PlatformDiscord
	default:
		return PlatformGeneric
	}
}

// Get returns the formatter for p, or the generic one.
func (r *PlatformRegistry) Get(p Platform) PlatformFormatter {
	if f, ok := r.formatters[p]; ok {
		return f
	}
	return r.formatters[PlatformGeneric]
}
