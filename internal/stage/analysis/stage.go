// Package analysis implements the LLM business analysis stage.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stagegate-io/stagegate/internal/core/domain"
	"github.com/stagegate-io/stagegate/internal/core/ports"
	"github.com/stagegate-io/stagegate/internal/tokens"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultModel       = "gpt-4"
	defaultTemperature = 0.1
	defaultMaxTokens   = 2000

	systemPrompt = "You are an enterprise AI assistant processing business-critical data."
)

// Stage sends the gathered data and context documents to a chat completion
// model and produces llm_analysis plus token_usage. Usage comes from the API
// response when present; otherwise it is estimated with the tokenizer.
type Stage struct {
	name        string
	model       string
	temperature float64
	maxTokens   int
	inputs      []string
	outputs     []string
	httpClient  *http.Client
	client      *Client
	registry    *tokens.Registry
}

var _ ports.Stage = (*Stage)(nil)

// Config configures an analysis stage.
type Config struct {
	Name        string
	Endpoint    string
	Token       string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Inputs      []string
	Outputs     []string
}

// Option configures the stage.
type Option func(*Stage)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Stage) {
		s.httpClient = client
	}
}

// WithTokenRegistry overrides the token counting registry.
func WithTokenRegistry(registry *tokens.Registry) Option {
	return func(s *Stage) {
		s.registry = registry
	}
}

// New creates an analysis stage from configuration.
func New(cfg Config, opts ...Option) (*Stage, error) {
	if cfg.Token == "" {
		return nil, domain.NewConfigurationError("pipeline.stages", "analysis stage %q has no API token", cfg.Name)
	}

	s := &Stage{
		name:        cfg.Name,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		inputs:      cfg.Inputs,
		outputs:     cfg.Outputs,
	}
	if s.name == "" {
		s.name = "llm_analysis"
	}
	if s.model == "" {
		s.model = defaultModel
	}
	if s.temperature == 0 {
		s.temperature = defaultTemperature
	}
	if s.maxTokens <= 0 {
		s.maxTokens = defaultMaxTokens
	}
	if len(s.inputs) == 0 {
		s.inputs = []string{"api_data", "context_docs", "compliance_level", "analysis_type"}
	}
	if len(s.outputs) == 0 {
		s.outputs = []string{"llm_analysis", "token_usage"}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	s.httpClient = &http.Client{Timeout: timeout}

	for _, opt := range opts {
		opt(s)
	}

	s.client = NewClient(cfg.Token, cfg.Endpoint, s.httpClient)
	if s.registry == nil {
		s.registry = tokens.NewRegistry()
		s.registry.Register(tokens.NewOpenAICounter())
	}

	return s, nil
}

// Name returns the stage identifier.
func (s *Stage) Name() string { return s.name }

// InputKeys returns the context keys the stage reads.
func (s *Stage) InputKeys() []string { return s.inputs }

// OutputKeys returns the context keys the stage writes.
func (s *Stage) OutputKeys() []string { return s.outputs }

// Run assembles the analysis prompt, calls the model, and returns the
// generated analysis with its token accounting.
func (s *Stage) Run(ctx context.Context, in domain.ExecutionContext) (domain.ExecutionContext, error) {
	prompt := buildPrompt(in)

	resp, err := s.client.CreateChatCompletion(ctx, &ChatCompletionRequest{
		Model: s.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return nil, domain.NewStageError(s.name, kindForError(err), err)
	}

	if len(resp.Choices) == 0 {
		return nil, domain.NewStageError(s.name, domain.ErrorKindInvalidResponse,
			errors.New("completion carries no choices"))
	}
	analysisText := resp.Choices[0].Message.Content

	var usage domain.TokenUsage
	if resp.Usage != nil {
		usage = domain.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	} else {
		usage = s.registry.EstimateUsage(s.model, prompt, analysisText)
	}

	return domain.ExecutionContext{
		"llm_analysis": analysisText,
		"token_usage":  usage,
	}, nil
}

func kindForError(err error) domain.ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return domain.ErrorKindAuthentication
		case apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500:
			return domain.ErrorKindUnavailable
		default:
			return domain.ErrorKindInvalidResponse
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return domain.ErrorKindTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrorKindTimeout
	}

	return domain.ErrorKindUnavailable
}

// buildPrompt renders the analysis request: the enterprise data, the
// retrieved context documents, and the compliance requirements, followed by
// the task statement and the required response structure.
func buildPrompt(in domain.ExecutionContext) string {
	analysisType := in.GetString("analysis_type")
	if analysisType == "" {
		analysisType = "business_intelligence"
	}
	complianceLevel := in.GetString("compliance_level")
	if complianceLevel == "" {
		complianceLevel = "all"
	}

	var b strings.Builder

	b.WriteString("Analysis Type:\n")
	b.WriteString(strings.ReplaceAll(analysisType, "_", " "))
	b.WriteString("\n\nEnterprise Data:\n")
	b.WriteString(renderJSON(in["api_data"]))
	b.WriteString("\n\nContext Documents:\n")
	b.WriteString(renderDocuments(in["context_docs"]))
	b.WriteString("\n\nCompliance Requirements:\n")
	b.WriteString(complianceLevel)
	b.WriteString("\n\nTask: Analyze the enterprise data considering the context documents and ensuring " +
		"full compliance with the specified requirements. Generate actionable business " +
		"insights while maintaining data privacy and security standards.\n\n" +
		"Your response must include:\n" +
		"1. Executive summary of key findings\n" +
		"2. Detailed analysis with supporting evidence\n" +
		"3. Compliance validation statement\n" +
		"4. Recommended actions with risk assessment\n" +
		"5. Audit trail information\n\n" +
		"Ensure all outputs are enterprise-grade and suitable for C-level executive review.")

	return b.String()
}

func renderJSON(v any) string {
	if v == nil {
		return "(none)"
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}

// renderDocuments formats retrieved documents as a bullet list, preferring
// each document's text field.
func renderDocuments(v any) string {
	docs, ok := v.([]any)
	if !ok || len(docs) == 0 {
		return "(none)"
	}

	lines := make([]string, 0, len(docs))
	for _, doc := range docs {
		if m, ok := doc.(map[string]any); ok {
			if text, ok := m["text"].(string); ok && text != "" {
				lines = append(lines, "- "+text)
				continue
			}
		}
		lines = append(lines, "- "+renderJSON(doc))
	}
	return strings.Join(lines, "\n")
}
