package notify

import (
	"github.com/thesisgrey/greylit/internal/config"
)

// FromConfig builds the notifiers enabled in cfg. Unset targets are
// skipped; an empty config yields an empty slice.
func FromConfig(cfg config.NotifyConfig) ([]Notifier, error) {
	var notifiers []Notifier

	if cfg.SlackWebhookURL != "" {
		s, err := NewSlack(SlackOpts{WebhookURL: cfg.SlackWebhookURL})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, s)
	}
	if cfg.DiscordToken != "" {
		d, err := NewDiscord(DiscordOpts{BotToken: cfg.DiscordToken, ChannelID: cfg.DiscordChannelID})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, d)
	}
	if cfg.Command != "" {
		c, err := NewCommand(cfg.Command)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, c)
	}

	return notifiers, nil
}
