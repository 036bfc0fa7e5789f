package tokens

import "testing"

func TestEstimator_CountText(t *testing.T) {
	e := NewEstimator()

	tests := []struct {
		name      string
		text      string
		minTokens int
		maxTokens int
	}{
		{
			name:      "short sentence",
			text:      "Hello, how are you?",
			minTokens: 3,
			maxTokens: 8,
		},
		{
			name:      "longer paragraph",
			text:      "Quarterly revenue grew 14 percent driven by enterprise subscriptions and improved retention across all regions.",
			minTokens: 20,
			maxTokens: 35,
		},
		{
			name:      "empty text",
			text:      "",
			minTokens: 0,
			maxTokens: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := e.CountText("any-model", tt.text)
			if err != nil {
				t.Fatalf("CountText() error = %v", err)
			}
			if n < tt.minTokens || n > tt.maxTokens {
				t.Errorf("CountText() = %d, want between %d and %d", n, tt.minTokens, tt.maxTokens)
			}
		})
	}
}

func TestEstimator_SupportsModel(t *testing.T) {
	e := NewEstimator()

	// Estimator should support all models as a fallback
	models := []string{"gpt-4", "claude-3", "unknown-model", ""}
	for _, model := range models {
		if !e.SupportsModel(model) {
			t.Errorf("SupportsModel(%q) = false, want true", model)
		}
	}
}

func TestOpenAICounter_SupportsModel(t *testing.T) {
	c := NewOpenAICounter()

	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-4", true},
		{"gpt-4o-mini", true},
		{"gpt-3.5-turbo", true},
		{"o1-preview", true},
		{"claude-3-opus", false},
		{"llama-3", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := c.SupportsModel(tt.model); got != tt.want {
			t.Errorf("SupportsModel(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}

func TestOpenAICounter_CountText(t *testing.T) {
	c := NewOpenAICounter()

	tests := []struct {
		name      string
		model     string
		text      string
		minTokens int
		maxTokens int
	}{
		{
			name:      "gpt-4 short text",
			model:     "gpt-4",
			text:      "Hello, how are you?",
			minTokens: 3,
			maxTokens: 10,
		},
		{
			name:      "gpt-4 analysis prompt",
			model:     "gpt-4",
			text:      "Analyze the following business data and provide key insights with supporting evidence.",
			minTokens: 10,
			maxTokens: 25,
		},
		{
			name:      "unknown gpt variant falls back to encoding",
			model:     "gpt-9-experimental",
			text:      "Hello, how are you?",
			minTokens: 3,
			maxTokens: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := c.CountText(tt.model, tt.text)
			if err != nil {
				t.Fatalf("CountText() error = %v", err)
			}
			if n < tt.minTokens || n > tt.maxTokens {
				t.Errorf("CountText() = %d, want between %d and %d", n, tt.minTokens, tt.maxTokens)
			}
		})
	}
}

func TestRegistry_CounterFor(t *testing.T) {
	r := NewRegistry()
	openai := NewOpenAICounter()
	r.Register(openai)

	if got := r.CounterFor("gpt-4"); got != openai {
		t.Errorf("expected OpenAI counter for gpt-4, got %T", got)
	}
	if _, ok := r.CounterFor("claude-3-opus").(*Estimator); !ok {
		t.Errorf("expected estimator fallback for unclaimed model, got %T", r.CounterFor("claude-3-opus"))
	}
}

func TestRegistry_EstimateUsage(t *testing.T) {
	r := NewRegistry()
	r.Register(NewOpenAICounter())

	usage := r.EstimateUsage("gpt-4",
		"Analyze the following business data and provide key insights.",
		"Revenue grew 14 percent quarter over quarter.")

	if usage.PromptTokens <= 0 {
		t.Errorf("expected positive prompt tokens, got %d", usage.PromptTokens)
	}
	if usage.CompletionTokens <= 0 {
		t.Errorf("expected positive completion tokens, got %d", usage.CompletionTokens)
	}
	if usage.TotalTokens != usage.PromptTokens+usage.CompletionTokens {
		t.Errorf("total %d does not equal prompt %d + completion %d",
			usage.TotalTokens, usage.PromptTokens, usage.CompletionTokens)
	}
}

func TestRegistry_CountText_UnknownModelUsesEstimator(t *testing.T) {
	r := NewRegistry()

	text := "Some text nobody claims a tokenizer for."
	n := r.CountText("fictional-model-9000", text)
	want := len(text) / 4
	if n != want {
		t.Errorf("CountText() = %d, want estimator count %d", n, want)
	}
}

func TestModelMatcher(t *testing.T) {
	m := NewModelMatcher([]string{"gpt-"}, []string{"davinci"})

	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-4", true},
		{"gpt-3.5-turbo", true},
		{"davinci", true},
		{"davinci-002", false},
		{"claude-3", false},
	}

	for _, tt := range tests {
		if got := m.Matches(tt.model); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}
