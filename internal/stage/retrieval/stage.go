// Package retrieval implements the vector index knowledge retrieval stage.
package retrieval

import (
	"bytes"
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

const (
	defaultTimeout        = 30 * time.Second
	defaultIndex          = "enterprise-knowledge-base"
	defaultTopK           = 5
	defaultScoreThreshold = 0.8
)

// Stage queries a vector index for documents relevant to the requested
// analysis and produces context_docs for the analysis stage.
type Stage struct {
	name           string
	endpoint       string
	token          string
	index          string
	topK           int
	scoreThreshold float64
	inputs         []string
	outputs        []string
	httpClient     *http.Client
}

var _ ports.Stage = (*Stage)(nil)

// Config configures a retrieval stage.
type Config struct {
	Name           string
	Endpoint       string
	Token          string
	Index          string
	TopK           int
	ScoreThreshold float64
	Timeout        time.Duration
	Inputs         []string
	Outputs        []string
}

// Option configures the stage.
type Option func(*Stage)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Stage) {
		s.httpClient = client
	}
}

// New creates a retrieval stage from configuration.
func New(cfg Config, opts ...Option) (*Stage, error) {
	if cfg.Endpoint == "" {
		return nil, domain.NewConfigurationError("pipeline.stages", "retrieval stage %q has no endpoint", cfg.Name)
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, domain.NewConfigurationError("pipeline.stages", "retrieval stage %q endpoint: %v", cfg.Name, err)
	}

	s := &Stage{
		name:           cfg.Name,
		endpoint:       strings.TrimSuffix(cfg.Endpoint, "/"),
		token:          cfg.Token,
		index:          cfg.Index,
		topK:           cfg.TopK,
		scoreThreshold: cfg.ScoreThreshold,
		inputs:         cfg.Inputs,
		outputs:        cfg.Outputs,
	}
	if s.name == "" {
		s.name = "knowledge_retrieval"
	}
	if s.index == "" {
		s.index = defaultIndex
	}
	if s.topK <= 0 {
		s.topK = defaultTopK
	}
	if s.scoreThreshold <= 0 {
		s.scoreThreshold = defaultScoreThreshold
	}
	if len(s.inputs) == 0 {
		s.inputs = []string{"api_data", "analysis_type"}
	}
	if len(s.outputs) == 0 {
		s.outputs = []string{"context_docs"}
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

// query is the similarity search request.
type query struct {
	Query          string  `json:"query"`
	Index          string  `json:"index"`
	TopK           int     `json:"top_k"`
	ScoreThreshold float64 `json:"score_threshold"`
	SearchType     string  `json:"search_type"`
}

// Run performs the similarity search and returns the matched documents.
func (s *Stage) Run(ctx context.Context, in domain.ExecutionContext) (domain.ExecutionContext, error) {
	q := query{
		Query:          searchQuery(in.GetString("analysis_type")),
		Index:          s.index,
		TopK:           s.topK,
		ScoreThreshold: s.scoreThreshold,
		SearchType:     "similarity",
	}

	body, err := json.Marshal(q)
	if err != nil {
		return nil, domain.NewStageError(s.name, domain.ErrorKindInternal, fmt.Errorf("marshal query: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewStageError(s.name, domain.ErrorKindInternal, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Api-Key", s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		kind := domain.ErrorKindUnavailable
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			kind = domain.ErrorKindTimeout
		}
		return nil, domain.NewStageError(s.name, kind, fmt.Errorf("vector search request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, domain.NewStageError(s.name, kindForStatus(resp.StatusCode),
			fmt.Errorf("vector search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	var result struct {
		Matches []any `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, domain.NewStageError(s.name, domain.ErrorKindInvalidResponse, fmt.Errorf("decode search response: %w", err))
	}
	if result.Matches == nil {
		return nil, domain.NewStageError(s.name, domain.ErrorKindInvalidResponse,
			errors.New("search response carries no matches field"))
	}

	return domain.ExecutionContext{"context_docs": result.Matches}, nil
}

// searchQuery derives the similarity query from the requested analysis type.
func searchQuery(analysisType string) string {
	if analysisType == "" {
		analysisType = "business_intelligence"
	}
	return fmt.Sprintf("%s analysis context", strings.ReplaceAll(analysisType, "_", " "))
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
