package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandNotifier runs a shell command template for each event, e.g.
// "notify-send 'Grey' '{{.Title}}'".
type CommandNotifier struct {
	command string
}

// NewCommand creates a shell-command notifier.
func NewCommand(command string) (*CommandNotifier, error) {
	if command == "" {
		return nil, fmt.Errorf("command: template is required")
	}
	return &CommandNotifier{command: command}, nil
}

func (c *CommandNotifier) Name() string { return "command" }

// Send runs the templated command.
func (c *CommandNotifier) Send(ctx context.Context, evt Event) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", templateEvent(c.command, evt))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("command: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// templateEvent replaces placeholders in the command template with event
// values. Single quotes are stripped from values to keep the template's
// own quoting intact.
func templateEvent(command string, evt Event) string {
	sanitize := func(s string) string {
		return strings.ReplaceAll(s, "'", "")
	}
	r := strings.NewReplacer(
		"{{.Title}}", sanitize(evt.Title),
		"{{.Body}}", sanitize(evt.Body),
		"{{.Severity}}", sanitize(evt.Severity),
	)
	return r.Replace(command)
}
