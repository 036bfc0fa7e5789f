// Package webhook implements the generic JSON-over-HTTP pipeline stage.
//
// The stage posts its declared input keys as a JSON object and expects a JSON
// object of output values back. It is the extension point for pipelines that
// need a step this module does not ship: the webhook owner implements the
// stage contract over HTTP.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stagegate-io/stagegate/internal/core/domain"
	"github.com/stagegate-io/stagegate/internal/core/ports"
)

const defaultTimeout = 30 * time.Second

// OnError selects what a webhook failure does to the run.
type OnError string

const (
	// OnErrorFail halts the run with a stage error. The default.
	OnErrorFail OnError = "fail"
	// OnErrorContinue logs the failure and emits the declared outputs as
	// nulls, letting the run proceed without the webhook's contribution.
	OnErrorContinue OnError = "continue"
)

// ParseOnError validates an on_error config value.
func ParseOnError(s string) (OnError, error) {
	switch s {
	case "", string(OnErrorFail):
		return OnErrorFail, nil
	case string(OnErrorContinue):
		return OnErrorContinue, nil
	default:
		return "", domain.NewConfigurationError("pipeline.stages", "invalid on_error %q (must be fail or continue)", s)
	}
}

// Stage calls an external HTTP endpoint as a pipeline step.
type Stage struct {
	name    string
	url     string
	onError OnError
	retries int
	headers map[string]string
	inputs  []string
	outputs []string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.Stage = (*Stage)(nil)

// Config configures a webhook stage.
type Config struct {
	Name    string
	URL     string
	Timeout time.Duration
	OnError OnError
	Retries int
	Headers map[string]string
	Inputs  []string
	Outputs []string
}

// Option configures the stage.
type Option func(*Stage)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Stage) {
		s.client = client
	}
}

// WithLogger sets the logger for fail-open reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stage) {
		s.logger = logger
	}
}

// New creates a webhook stage from configuration.
func New(cfg Config, opts ...Option) (*Stage, error) {
	if cfg.Name == "" {
		return nil, domain.NewConfigurationError("pipeline.stages", "webhook stage has no name")
	}
	if cfg.URL == "" {
		return nil, domain.NewConfigurationError("pipeline.stages", "webhook stage %q has no endpoint", cfg.Name)
	}

	onError := cfg.OnError
	if onError == "" {
		onError = OnErrorFail
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	s := &Stage{
		name:    cfg.Name,
		url:     cfg.URL,
		onError: onError,
		retries: cfg.Retries,
		headers: cfg.Headers,
		inputs:  cfg.Inputs,
		outputs: cfg.Outputs,
		client:  &http.Client{Timeout: timeout},
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Name returns the stage identifier.
func (s *Stage) Name() string { return s.name }

// InputKeys returns the context keys the stage reads.
func (s *Stage) InputKeys() []string { return s.inputs }

// OutputKeys returns the context keys the stage writes.
func (s *Stage) OutputKeys() []string { return s.outputs }

// Run executes the webhook call with bounded retry.
func (s *Stage) Run(ctx context.Context, in domain.ExecutionContext) (domain.ExecutionContext, error) {
	var lastErr error

	attempts := s.retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		out, err := s.doRequest(ctx, in)
		if err == nil {
			return out, nil
		}
		lastErr = err

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			break
		}
	}

	if s.onError == OnErrorContinue {
		s.logger.Warn("Webhook stage failed, continuing without its outputs",
			"stage", s.name,
			"url", s.url,
			"error", lastErr)
		out := domain.ExecutionContext{}
		for _, k := range s.outputs {
			out[k] = nil
		}
		return out, nil
	}

	return nil, lastErr
}

func (s *Stage) doRequest(ctx context.Context, in domain.ExecutionContext) (domain.ExecutionContext, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, domain.NewStageError(s.name, domain.ErrorKindInternal, fmt.Errorf("marshal stage input: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewStageError(s.name, domain.ErrorKindInternal, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domain.NewStageError(s.name, domain.ErrorKindUnavailable, fmt.Errorf("webhook request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewStageError(s.name, domain.ErrorKindUnavailable, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewStageError(s.name, kindForStatus(resp.StatusCode),
			fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))))
	}

	var out domain.ExecutionContext
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, domain.NewStageError(s.name, domain.ErrorKindInvalidResponse, fmt.Errorf("unmarshal stage output: %w", err))
	}

	return out, nil
}

func kindForStatus(status int) domain.ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.ErrorKindAuthentication
	case status >= 500:
		return domain.ErrorKindUnavailable
	default:
		return domain.ErrorKindInvalidResponse
	}
}
