package pipeline

import (
	"time"

	"github.com/stagegate-io/stagegate/internal/config"
	"github.com/stagegate-io/stagegate/internal/core/domain"
	"github.com/stagegate-io/stagegate/internal/core/ports"
	"github.com/stagegate-io/stagegate/internal/stage/analysis"
	"github.com/stagegate-io/stagegate/internal/stage/dataset"
	"github.com/stagegate-io/stagegate/internal/stage/retrieval"
	"github.com/stagegate-io/stagegate/internal/stage/webhook"
)

// ExecutionIDKey is the context key carrying the run's execution ID. The
// runtime seeds it; stages never produce it.
const ExecutionIDKey = "execution_id"

// NewOrchestratorFromConfig builds an orchestrator from app configuration.
// The validated seed keys are the pipeline inputs, the governance metadata
// keys, and the execution ID the runtime injects into every run.
func NewOrchestratorFromConfig(cfg config.PipelineConfig, opts ...Option) (*Orchestrator, error) {
	stages := make([]StageConfig, 0, len(cfg.Stages))
	for _, stageCfg := range cfg.Stages {
		stage, err := newStageFromConfig(stageCfg)
		if err != nil {
			return nil, err
		}
		stages = append(stages, StageConfig{
			Name:  stageCfg.Name,
			Order: stageCfg.Order,
			Stage: stage,
		})
	}

	inputs := make([]string, 0, len(cfg.Inputs)+len(cfg.Metadata)+1)
	inputs = append(inputs, cfg.Inputs...)
	for k := range cfg.Metadata {
		inputs = append(inputs, k)
	}
	inputs = append(inputs, ExecutionIDKey)

	return NewOrchestrator(Config{
		Name:    cfg.Name,
		Inputs:  inputs,
		Outputs: cfg.Outputs,
		Stages:  stages,
	}, opts...)
}

func newStageFromConfig(cfg config.StageConfig) (ports.Stage, error) {
	timeout, err := parseTimeout(cfg.Timeout)
	if err != nil {
		return nil, domain.NewConfigurationError("pipeline.stages", "stage %q: invalid timeout %q", cfg.Name, cfg.Timeout)
	}

	switch cfg.Type {
	case "dataset_api":
		return dataset.New(dataset.Config{
			Name:     cfg.Name,
			Endpoint: cfg.Endpoint,
			Token:    cfg.Token,
			Timeout:  timeout,
			Inputs:   cfg.Inputs,
			Outputs:  cfg.Outputs,
		})
	case "vector_search":
		return retrieval.New(retrieval.Config{
			Name:           cfg.Name,
			Endpoint:       cfg.Endpoint,
			Token:          cfg.Token,
			Index:          cfg.Index,
			TopK:           cfg.TopK,
			ScoreThreshold: cfg.ScoreThreshold,
			Timeout:        timeout,
			Inputs:         cfg.Inputs,
			Outputs:        cfg.Outputs,
		})
	case "llm_analysis":
		return analysis.New(analysis.Config{
			Name:        cfg.Name,
			Endpoint:    cfg.Endpoint,
			Token:       cfg.Token,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     timeout,
			Inputs:      cfg.Inputs,
			Outputs:     cfg.Outputs,
		})
	case "webhook":
		onError, err := webhook.ParseOnError(cfg.OnError)
		if err != nil {
			return nil, err
		}
		return webhook.New(webhook.Config{
			Name:    cfg.Name,
			URL:     cfg.Endpoint,
			Timeout: timeout,
			OnError: onError,
			Retries: cfg.Retries,
			Headers: cfg.Headers,
			Inputs:  cfg.Inputs,
			Outputs: cfg.Outputs,
		})
	default:
		return nil, domain.NewConfigurationError("pipeline.stages", "stage %q has unknown type %q", cfg.Name, cfg.Type)
	}
}

// parseTimeout parses a stage timeout. Empty means the stage default.
func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
