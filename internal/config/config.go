// Package config loads the orchestrator configuration from YAML and the
// environment.
package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Pipeline      PipelineConfig      `koanf:"pipeline"`
	Compliance    ComplianceConfig    `koanf:"compliance"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Audit         AuditConfig         `koanf:"audit"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

// PipelineConfig declares the stage sequence and the key contract of a
// pipeline. Inputs are the keys callers must supply; Outputs are the keys the
// finished run exposes as pipeline_output; Metadata is merged into every
// run's seed context (governance posture fields live here).
type PipelineConfig struct {
	Name     string            `koanf:"name"`
	Inputs   []string          `koanf:"inputs"`
	Outputs  []string          `koanf:"outputs"`
	Metadata map[string]string `koanf:"metadata"`
	Stages   []StageConfig     `koanf:"stages"`
}

// StageConfig configures a single stage. Type selects the implementation;
// the transport fields apply to the HTTP-backed stage types.
type StageConfig struct {
	Name    string   `koanf:"name"`
	Type    string   `koanf:"type"` // dataset_api, vector_search, llm_analysis, webhook
	Order   int      `koanf:"order"`
	Inputs  []string `koanf:"inputs"`
	Outputs []string `koanf:"outputs"`

	Endpoint string            `koanf:"endpoint"`
	Token    string            `koanf:"token"`
	Timeout  string            `koanf:"timeout"`  // Duration string like "30s"
	Retries  int               `koanf:"retries"`  // webhook stages only
	OnError  string            `koanf:"on_error"` // webhook stages only: fail (default) or continue
	Headers  map[string]string `koanf:"headers"`  // webhook stages only

	// vector_search
	Index          string  `koanf:"index"`
	TopK           int     `koanf:"top_k"`
	ScoreThreshold float64 `koanf:"score_threshold"`

	// llm_analysis
	Model       string  `koanf:"model"`
	Temperature float64 `koanf:"temperature"`
	MaxTokens   int     `koanf:"max_tokens"`
}

type ComplianceConfig struct {
	Standards []string `koanf:"standards"`
}

type NotificationsConfig struct {
	SlackWebhookURL         string `koanf:"slack_webhook_url"`
	PagerDutyIntegrationKey string `koanf:"pagerduty_integration_key"`
	// Source names this deployment in paging payloads.
	Source string `koanf:"source"`
}

type AuditConfig struct {
	Driver string `koanf:"driver"` // memory, sqlite
	DSN    string `koanf:"dsn"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads the YAML file at path (missing file is fine, the environment and
// defaults still apply), overlays STAGEGATE_-prefixed environment variables
// (STAGEGATE_SERVER__PORT=9090 sets server.port), fills defaults, and
// substitutes ${VAR} references in secret-bearing fields.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = "config.yaml"
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("STAGEGATE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "STAGEGATE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.substituteSecrets()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Pipeline.Name == "" {
		c.Pipeline.Name = "enterprise-analysis"
	}
	if len(c.Pipeline.Inputs) == 0 {
		c.Pipeline.Inputs = []string{"dataset_id", "compliance_level", "analysis_type"}
	}
	if len(c.Pipeline.Outputs) == 0 {
		c.Pipeline.Outputs = []string{"api_data", "context_docs", "llm_analysis"}
	}
	if len(c.Pipeline.Metadata) == 0 {
		c.Pipeline.Metadata = DefaultMetadata()
	}
	if len(c.Pipeline.Stages) == 0 {
		c.Pipeline.Stages = DefaultStages()
	}
	if len(c.Compliance.Standards) == 0 {
		c.Compliance.Standards = []string{"SOX", "GDPR", "HIPAA", "PCI_DSS"}
	}
	if c.Notifications.Source == "" {
		c.Notifications.Source = "stagegate-pipeline"
	}
	// The channel secrets also honor the plain environment names used by
	// existing deployments.
	if c.Notifications.SlackWebhookURL == "" {
		c.Notifications.SlackWebhookURL = os.Getenv("SLACK_WEBHOOK_URL")
	}
	if c.Notifications.PagerDutyIntegrationKey == "" {
		c.Notifications.PagerDutyIntegrationKey = os.Getenv("PAGERDUTY_INTEGRATION_KEY")
	}
	if c.Audit.Driver == "" {
		c.Audit.Driver = "memory"
	}
	if c.Audit.Driver == "sqlite" && c.Audit.DSN == "" {
		c.Audit.DSN = "./data/stagegate.db"
	}
}

func (c *Config) substituteSecrets() {
	c.Notifications.SlackWebhookURL = substituteEnvVars(c.Notifications.SlackWebhookURL)
	c.Notifications.PagerDutyIntegrationKey = substituteEnvVars(c.Notifications.PagerDutyIntegrationKey)
	for i := range c.Pipeline.Stages {
		c.Pipeline.Stages[i].Token = substituteEnvVars(c.Pipeline.Stages[i].Token)
	}
}

// DefaultMetadata is the governance posture seeded into every run when the
// deployment does not declare its own.
func DefaultMetadata() map[string]string {
	return map[string]string{
		"data_classification":   "CONFIDENTIAL",
		"access_controls":       "RBAC_ENABLED",
		"audit_trail":           "REQUIRED",
		"consent_status":        "EXPLICIT_CONSENT",
		"data_purpose":          "BUSINESS_INTELLIGENCE",
		"retention_period":      "7_YEARS",
		"phi_classification":    "NON_PHI",
		"encryption_status":     "AES_256_ENCRYPTED",
		"cardholder_data_scope": "OUT_OF_SCOPE",
	}
}

// DefaultStages is the stock three-stage analysis pipeline: authenticated
// dataset fetch, vector-index retrieval, LLM analysis.
func DefaultStages() []StageConfig {
	return []StageConfig{
		{
			Name:     "dataset_fetch",
			Type:     "dataset_api",
			Order:    1,
			Inputs:   []string{"dataset_id", "compliance_level"},
			Outputs:  []string{"api_data", "records_processed"},
			Endpoint: "https://api.enterprise.com/v1/data",
			Token:    "${ENTERPRISE_API_TOKEN}",
		},
		{
			Name:           "knowledge_retrieval",
			Type:           "vector_search",
			Order:          2,
			Inputs:         []string{"api_data", "analysis_type"},
			Outputs:        []string{"context_docs"},
			Endpoint:       "https://vector.enterprise.com/v1/query",
			Index:          "enterprise-knowledge-base",
			TopK:           5,
			ScoreThreshold: 0.8,
		},
		{
			Name:        "llm_analysis",
			Type:        "llm_analysis",
			Order:       3,
			Inputs:      []string{"api_data", "context_docs", "compliance_level", "analysis_type"},
			Outputs:     []string{"llm_analysis", "token_usage"},
			Endpoint:    "https://api.openai.com/v1",
			Token:       "${OPENAI_API_KEY}",
			Model:       "gpt-4",
			Temperature: 0.1,
			MaxTokens:   2000,
		},
	}
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
