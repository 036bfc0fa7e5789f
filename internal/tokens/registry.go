// Package tokens provides token counting for LLM prompt and completion text.
package tokens

import (
	"strings"

	"github.com/stagegate-io/stagegate/internal/core/domain"
)

// Counter counts tokens in plain text for a model.
type Counter interface {
	SupportsModel(model string) bool
	CountText(model, text string) (int, error)
}

// Registry selects the counter for a model. Registered counters are consulted
// in order; models no counter claims fall through to the estimator.
type Registry struct {
	counters []Counter
	fallback Counter
}

// NewRegistry creates a registry with the estimator as fallback.
func NewRegistry() *Registry {
	return &Registry{
		fallback: NewEstimator(),
	}
}

// Register adds a counter to the registry.
func (r *Registry) Register(counter Counter) {
	r.counters = append(r.counters, counter)
}

// SetFallback replaces the fallback counter for unclaimed models.
func (r *Registry) SetFallback(counter Counter) {
	r.fallback = counter
}

// CounterFor returns the counter responsible for the model.
func (r *Registry) CounterFor(model string) Counter {
	for _, counter := range r.counters {
		if counter.SupportsModel(model) {
			return counter
		}
	}
	return r.fallback
}

// CountText counts tokens in text using the counter for the model. A counter
// failure degrades to the estimator rather than surfacing an error; token
// accounting is advisory and must never fail a pipeline run.
func (r *Registry) CountText(model, text string) int {
	if counter := r.CounterFor(model); counter != nil {
		if n, err := counter.CountText(model, text); err == nil {
			return n
		}
	}
	if r.fallback == nil {
		return 0
	}
	n, _ := r.fallback.CountText(model, text)
	return n
}

// EstimateUsage builds the usage record for a prompt and completion pair.
// Used when the upstream API response carries no usage block of its own.
func (r *Registry) EstimateUsage(model, prompt, completion string) domain.TokenUsage {
	promptTokens := r.CountText(model, prompt)
	completionTokens := r.CountText(model, completion)
	return domain.TokenUsage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

// Estimator approximates token counts from character length. It is the
// fallback for models without a native tokenizer.
type Estimator struct {
	// CharsPerToken is the average characters per token (default: 4)
	CharsPerToken float64
}

// NewEstimator creates a new token estimator.
func NewEstimator() *Estimator {
	return &Estimator{
		CharsPerToken: 4.0,
	}
}

// CountText estimates the token count of text.
func (e *Estimator) CountText(model, text string) (int, error) {
	return int(float64(len(text)) / e.CharsPerToken), nil
}

// SupportsModel returns true - the estimator covers every model.
func (e *Estimator) SupportsModel(model string) bool {
	return true
}

// ModelMatcher matches model names to provider patterns.
type ModelMatcher struct {
	prefixes []string
	exact    []string
}

// NewModelMatcher creates a new model matcher.
func NewModelMatcher(prefixes, exact []string) *ModelMatcher {
	return &ModelMatcher{
		prefixes: prefixes,
		exact:    exact,
	}
}

// Matches returns true if the model matches any pattern.
func (m *ModelMatcher) Matches(model string) bool {
	for _, e := range m.exact {
		if model == e {
			return true
		}
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}
