package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// discordSession abstracts the discordgo.Session methods we use, enabling
// test mocks.
type discordSession interface {
	Open() error
	Close() error
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier delivers events to a Discord channel as embeds.
type DiscordNotifier struct {
	sess      discordSession
	channelID string
	opened    bool
}

// DiscordOpts holds parameters for creating a DiscordNotifier.
type DiscordOpts struct {
	BotToken  string
	ChannelID string
	// For testing: inject a mock session instead of the real Discord API.
	Session discordSession
}

// NewDiscord creates a Discord notifier. The gateway connection is opened
// lazily on first Send.
func NewDiscord(opts DiscordOpts) (*DiscordNotifier, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel id is required")
	}
	d := &DiscordNotifier{sess: opts.Session, channelID: opts.ChannelID}
	if d.sess == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("discord: bot token is required")
		}
		sess, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		d.sess = sess
	}
	return d, nil
}

func (d *DiscordNotifier) Name() string { return "discord" }

// Send posts the event as an embed to the configured channel.
func (d *DiscordNotifier) Send(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.opened {
		if err := d.sess.Open(); err != nil {
			return fmt.Errorf("discord: open session: %w", err)
		}
		d.opened = true
	}

	fields := make([]*discordgo.MessageEmbedField, len(evt.Fields))
	for i, f := range evt.Fields {
		fields[i] = &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: true}
	}

	embed := &discordgo.MessageEmbed{
		Title:       evt.Title,
		Description: evt.Body,
		Color:       colorInt(severityColor(evt.Severity)),
		Fields:      fields,
	}
	if _, err := d.sess.ChannelMessageSendEmbed(d.channelID, embed); err != nil {
		return fmt.Errorf("discord: send embed: %w", err)
	}
	return nil
}

// Close shuts down the gateway connection if it was opened.
func (d *DiscordNotifier) Close() error {
	if !d.opened {
		return nil
	}
	d.opened = false
	return d.sess.Close()
}

// colorInt converts a "#rrggbb" color hint to the integer Discord expects.
func colorInt(hex string) int {
	n, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(n)
}
