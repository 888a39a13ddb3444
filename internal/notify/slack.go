package notify

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
)

// webhookPoster abstracts the Slack webhook call, enabling test mocks.
type webhookPoster func(ctx context.Context, url string, msg *slackapi.WebhookMessage) error

// SlackNotifier delivers events to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	post       webhookPoster
}

// SlackOpts holds parameters for creating a SlackNotifier.
type SlackOpts struct {
	WebhookURL string
	// For testing: inject a mock poster instead of the real webhook call.
	Post webhookPoster
}

// NewSlack creates a Slack webhook notifier.
func NewSlack(opts SlackOpts) (*SlackNotifier, error) {
	if opts.WebhookURL == "" {
		return nil, fmt.Errorf("slack: webhook url is required")
	}
	post := opts.Post
	if post == nil {
		post = slackapi.PostWebhookContext
	}
	return &SlackNotifier{webhookURL: opts.WebhookURL, post: post}, nil
}

func (s *SlackNotifier) Name() string { return "slack" }

// Send posts the event as a single webhook attachment.
func (s *SlackNotifier) Send(ctx context.Context, evt Event) error {
	fields := make([]slackapi.AttachmentField, len(evt.Fields))
	for i, f := range evt.Fields {
		fields[i] = slackapi.AttachmentField{Title: f.Name, Value: f.Value, Short: true}
	}

	msg := &slackapi.WebhookMessage{
		Attachments: []slackapi.Attachment{{
			Color:  severityColor(evt.Severity),
			Title:  evt.Title,
			Text:   evt.Body,
			Fields: fields,
		}},
	}
	if err := s.post(ctx, s.webhookURL, msg); err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	return nil
}
