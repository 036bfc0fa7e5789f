// Package slack posts pipeline notifications to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stagegate-io/stagegate/internal/core/domain"
	"github.com/stagegate-io/stagegate/internal/core/ports"
)

const channelName = "slack"

// Channel delivers notifications to a Slack incoming webhook URL.
type Channel struct {
	webhookURL string
	httpClient *http.Client
}

var _ ports.Channel = (*Channel)(nil)

// Option configures the channel.
type Option func(*Channel)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Channel) {
		c.httpClient = client
	}
}

// New creates a Slack channel for the given webhook URL.
func New(webhookURL string, opts ...Option) (*Channel, error) {
	if webhookURL == "" {
		return nil, domain.NewConfigurationError("notifications.slack_webhook_url", "webhook URL is required")
	}

	c := &Channel{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Name returns the channel identifier used in notification outcomes.
func (c *Channel) Name() string {
	return channelName
}

// message is the Slack webhook payload.
type message struct {
	Text   string  `json:"text"`
	Blocks []block `json:"blocks,omitempty"`
}

type block struct {
	Type string     `json:"type"`
	Text *blockText `json:"text,omitempty"`
}

type blockText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Send posts the notification as a single mrkdwn section block.
func (c *Channel) Send(ctx context.Context, n *domain.Notification) error {
	payload := buildMessage(n)

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.NewChannelError(channelName, fmt.Errorf("marshal message: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return domain.NewChannelError(channelName, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewChannelError(channelName, fmt.Errorf("send message: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.NewChannelError(channelName,
			fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	return nil
}

func buildMessage(n *domain.Notification) message {
	lines := make([]string, 0, len(n.Fields))
	for _, f := range n.Fields {
		lines = append(lines, fmt.Sprintf("*%s*: %s", f.Label, f.Value))
	}

	m := message{Text: n.Title}
	if len(lines) > 0 {
		m.Blocks = []block{
			{
				Type: "section",
				Text: &blockText{
					Type: "mrkdwn",
					Text: strings.Join(lines, "\n"),
				},
			},
		}
	}

	return m
}
