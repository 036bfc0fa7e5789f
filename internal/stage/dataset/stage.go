// Package dataset implements the authenticated dataset fetch stage.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stagegate-io/stagegate/internal/core/domain"
	"github.com/stagegate-io/stagegate/internal/core/ports"
)

const defaultTimeout = 30 * time.Second

// Stage fetches a dataset from the enterprise data API. It reads dataset_id
// and compliance_level from the context and produces api_data (the decoded
// response) and records_processed (the record count the API reported).
type Stage struct {
	name       string
	endpoint   string
	token      string
	inputs     []string
	outputs    []string
	httpClient *http.Client
}

var _ ports.Stage = (*Stage)(nil)

// Config configures a dataset stage.
type Config struct {
	Name     string
	Endpoint string
	Token    string
	Timeout  time.Duration
	Inputs   []string
	Outputs  []string
}

// Option configures the stage.
type Option func(*Stage)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Stage) {
		s.httpClient = client
	}
}

// New creates a dataset stage from configuration.
func New(cfg Config, opts ...Option) (*Stage, error) {
	if cfg.Endpoint == "" {
		return nil, domain.NewConfigurationError("pipeline.stages", "dataset stage %q has no endpoint", cfg.Name)
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, domain.NewConfigurationError("pipeline.stages", "dataset stage %q endpoint: %v", cfg.Name, err)
	}

	s := &Stage{
		name:     cfg.Name,
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		token:    cfg.Token,
		inputs:   cfg.Inputs,
		outputs:  cfg.Outputs,
	}
	if s.name == "" {
		s.name = "dataset_fetch"
	}
	if len(s.inputs) == 0 {
		s.inputs = []string{"dataset_id", "compliance_level"}
	}
	if len(s.outputs) == 0 {
		s.outputs = []string{"api_data", "records_processed"}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	s.httpClient = &http.Client{Timeout: timeout}

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

// Run fetches the dataset. The upstream rejecting the token surfaces as an
// authentication stage error, which escalates the run to critical severity.
func (s *Stage) Run(ctx context.Context, in domain.ExecutionContext) (domain.ExecutionContext, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, domain.NewStageError(s.name, domain.ErrorKindInternal, fmt.Errorf("parse endpoint: %w", err))
	}
	q := u.Query()
	q.Set("dataset_id", in.GetString("dataset_id"))
	q.Set("compliance_level", in.GetString("compliance_level"))
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, domain.NewStageError(s.name, domain.ErrorKindInternal, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Enterprise-Client", "stagegate/1.0")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		kind := domain.ErrorKindUnavailable
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			kind = domain.ErrorKindTimeout
		}
		return nil, domain.NewStageError(s.name, kind, fmt.Errorf("dataset API request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, domain.NewStageError(s.name, kindForStatus(resp.StatusCode),
			fmt.Errorf("dataset API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.NewStageError(s.name, domain.ErrorKindInvalidResponse, fmt.Errorf("decode dataset response: %w", err))
	}

	return domain.ExecutionContext{
		"api_data":          body,
		"records_processed": recordCount(body),
	}, nil
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

// recordCount derives the processed-record count from the API response:
// an explicit record_count wins, otherwise the length of the records array,
// otherwise zero.
func recordCount(body map[string]any) int {
	if n, ok := body["record_count"].(float64); ok {
		return int(n)
	}
	if records, ok := body["records"].([]any); ok {
		return len(records)
	}
	return 0
}
