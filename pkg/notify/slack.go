package notify

import (
	"context"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/brightsteps/clinic-scheduling-api/pkg/config"
)

// Notifier is a fire-and-forget outbound message sink. Implementations must
// never let delivery problems leak into the caller's control flow; Send
// returns an error for logging only.
type Notifier interface {
	Send(ctx context.Context, text string) error
	Enabled() bool
}

// SlackNotifier posts messages to a Slack channel. When disabled or missing
// credentials it silently skips, matching the sink's best-effort contract.
type SlackNotifier struct {
	client  *slack.Client
	channel string
	enabled bool
	logger  *zap.Logger
}

// NewSlack builds a notifier from config. A disabled or unconfigured sink is
// still a valid Notifier; it just skips every send.
func NewSlack(cfg config.SlackConfig, logger *zap.Logger) *SlackNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &SlackNotifier{channel: cfg.ChannelID, logger: logger}
	if !cfg.Enabled || cfg.Token == "" || cfg.ChannelID == "" {
		return n
	}
	n.client = slack.New(cfg.Token)
	n.enabled = true
	return n
}

// Enabled reports whether sends will actually reach Slack.
func (n *SlackNotifier) Enabled() bool {
	return n.enabled
}

// Send posts text to the configured channel. Skips silently when disabled.
func (n *SlackNotifier) Send(ctx context.Context, text string) error {
	if !n.enabled {
		n.logger.Debug("slack notification skipped", zap.String("reason", "disabled"))
		return nil
	}
	_, _, err := n.client.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false))
	if err != nil {
		n.logger.Warn("slack notification failed", zap.Error(err))
		return err
	}
	return nil
}
