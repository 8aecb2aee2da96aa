// Package slack posts detection alerts to the configured channel.
package slack

import (
	"fmt"

	"github.com/slack-go/slack"

	"pixelwatch/internal/domain"
)

type Notifier struct {
	api     *slack.Client
	channel string
}

func NewNotifier(botToken, channelID string) *Notifier {
	return &Notifier{
		api:     slack.New(botToken),
		channel: channelID,
	}
}

// NotifyDetection posts one message per detected ticket. Alerting is
// best-effort: the caller logs the error and keeps processing.
func (n *Notifier) NotifyDetection(ticket domain.Ticket, result domain.DetectionResult) error {
	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType,
				fmt.Sprintf("Pixel ticket detected: %s", ticket.Key), false, false),
		),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("*%s*\n%s", ticket.Summary, detailLine(result)), false, false),
			nil, nil,
		),
	}

	_, _, err := n.api.PostMessage(n.channel, slack.MsgOptionBlocks(blocks...))
	if err != nil {
		return fmt.Errorf("posting detection alert: %w", err)
	}
	return nil
}

func detailLine(result domain.DetectionResult) string {
	line := fmt.Sprintf("Reason: `%s` | Confidence: %.2f | Method: %s",
		result.Reason, result.Confidence, result.Method)
	if result.Category != "" {
		line += fmt.Sprintf(" | Category: %s (%s priority)", result.Category, result.Priority)
	}
	return line
}
