// Package pagerduty triggers incidents through the PagerDuty Events API v2.
package pagerduty

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

const (
	channelName      = "pagerduty"
	defaultEventsURL = "https://events.pagerduty.com/v2/enqueue"
	defaultSource    = "stagegate-pipeline"
)

// Channel pages on-call engineers via a PagerDuty integration key.
type Channel struct {
	routingKey string
	eventsURL  string
	source     string
	httpClient *http.Client
}

var _ ports.Channel = (*Channel)(nil)

// Option configures the channel.
type Option func(*Channel)

// WithEventsURL overrides the Events API endpoint.
func WithEventsURL(eventsURL string) Option {
	return func(c *Channel) {
		c.eventsURL = strings.TrimSuffix(eventsURL, "/")
	}
}

// WithSource sets the source name attached to triggered events.
func WithSource(source string) Option {
	return func(c *Channel) {
		c.source = source
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Channel) {
		c.httpClient = client
	}
}

// New creates a PagerDuty channel for the given integration routing key.
func New(routingKey string, opts ...Option) (*Channel, error) {
	if routingKey == "" {
		return nil, domain.NewConfigurationError("notifications.pagerduty_integration_key", "integration key is required")
	}

	c := &Channel{
		routingKey: routingKey,
		eventsURL:  defaultEventsURL,
		source:     defaultSource,
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

// event is the Events API v2 trigger payload.
type event struct {
	RoutingKey  string       `json:"routing_key"`
	EventAction string       `json:"event_action"`
	Payload     eventPayload `json:"payload"`
}

type eventPayload struct {
	Summary       string         `json:"summary"`
	Source        string         `json:"source"`
	Severity      string         `json:"severity"`
	CustomDetails map[string]any `json:"custom_details,omitempty"`
}

// Send triggers an incident for the notification. The Events API answers
// 202 on acceptance; any other 2xx is treated as delivered too.
func (c *Channel) Send(ctx context.Context, n *domain.Notification) error {
	body, err := json.Marshal(c.buildEvent(n))
	if err != nil {
		return domain.NewChannelError(channelName, fmt.Errorf("marshal event: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.eventsURL, bytes.NewReader(body))
	if err != nil {
		return domain.NewChannelError(channelName, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewChannelError(channelName, fmt.Errorf("send event: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.NewChannelError(channelName,
			fmt.Errorf("events API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	return nil
}

func (c *Channel) buildEvent(n *domain.Notification) event {
	severity := string(n.Severity)
	if severity == "" {
		severity = string(domain.SeverityCritical)
	}

	return event{
		RoutingKey:  c.routingKey,
		EventAction: "trigger",
		Payload: eventPayload{
			Summary:       n.Title,
			Source:        c.source,
			Severity:      severity,
			CustomDetails: n.Details,
		},
	}
}
