package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/stagegate-io/stagegate/internal/core/domain"
	"github.com/stagegate-io/stagegate/internal/core/ports"
	"github.com/stagegate-io/stagegate/internal/metrics"
)

// Orchestrator executes pipeline stages sequentially over a shared execution
// context. Each stage sees only its declared input keys and contributes only
// its declared output keys; the first failing stage halts the run.
type Orchestrator struct {
	name    string
	stages  []ports.Stage
	outputs []string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Config configures an orchestrator from an ordered stage list.
type Config struct {
	// Name identifies the pipeline in logs.
	Name string
	// Inputs are the keys the seed context is guaranteed to carry.
	Inputs []string
	// Outputs are the keys projected into the final result.
	Outputs []string
	Stages  []StageConfig
}

// StageConfig is the configuration for a single stage.
type StageConfig struct {
	Name  string
	Order int
	Stage ports.Stage
}

// Option configures an orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for stage lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics sink for stage durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// NewOrchestrator creates an orchestrator from configuration. Stage wiring is
// validated up front: every input key a stage declares must be provided by the
// seed context or by an earlier stage, so a run can never stall on a missing
// key at execution time.
func NewOrchestrator(cfg Config, opts ...Option) (*Orchestrator, error) {
	ordered := make([]StageConfig, len(cfg.Stages))
	copy(ordered, cfg.Stages)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	if err := validateStages(cfg, ordered); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		name:    cfg.Name,
		stages:  make([]ports.Stage, len(ordered)),
		outputs: cfg.Outputs,
		logger:  slog.Default(),
	}
	for i, s := range ordered {
		o.stages[i] = s.Stage
	}

	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

var _ ports.Orchestrator = (*Orchestrator)(nil)

func validateStages(cfg Config, ordered []StageConfig) error {
	available := make(map[string]bool, len(cfg.Inputs))
	for _, k := range cfg.Inputs {
		available[k] = true
	}

	seen := make(map[string]bool, len(ordered))
	for _, s := range ordered {
		if s.Stage == nil {
			return domain.NewConfigurationError("pipeline.stages", "stage %q has no implementation", s.Name)
		}
		name := s.Stage.Name()
		if name == "" {
			return domain.NewConfigurationError("pipeline.stages", "stage with order %d has no name", s.Order)
		}
		if seen[name] {
			return domain.NewConfigurationError("pipeline.stages", "duplicate stage name %q", name)
		}
		seen[name] = true

		for _, k := range s.Stage.InputKeys() {
			if !available[k] {
				return domain.NewConfigurationError("pipeline.stages",
					"stage %q requires key %q which neither the pipeline inputs nor an earlier stage provides", name, k)
			}
		}
		for _, k := range s.Stage.OutputKeys() {
			available[k] = true
		}
	}

	for _, k := range cfg.Outputs {
		if !available[k] {
			return domain.NewConfigurationError("pipeline.outputs", "output key %q is never produced", k)
		}
	}

	return nil
}

// StageNames returns the stage names in execution order.
func (o *Orchestrator) StageNames() []string {
	names := make([]string, len(o.stages))
	for i, s := range o.stages {
		names[i] = s.Name()
	}
	return names
}

// Execute runs all stages in order against the seed context. On success the
// result carries the final context, the projected pipeline outputs, and
// per-stage timings. On failure the error is a StageError naming the stage
// that halted the run.
func (o *Orchestrator) Execute(ctx context.Context, initial domain.ExecutionContext) (*domain.PipelineResult, error) {
	start := time.Now()

	result := &domain.PipelineResult{
		ExecutionID: initial.GetString(ExecutionIDKey),
		StartedAt:   start,
		Context:     initial.Clone(),
		Timings:     make([]domain.StageTiming, 0, len(o.stages)),
	}

	for _, stage := range o.stages {
		if err := ctx.Err(); err != nil {
			kind := domain.ErrorKindInternal
			if errors.Is(err, context.DeadlineExceeded) {
				kind = domain.ErrorKindTimeout
			}
			return nil, domain.NewStageError(stage.Name(), kind, err)
		}

		stageStart := time.Now()
		out, err := stage.Run(ctx, result.Context.Project(stage.InputKeys()))
		elapsed := time.Since(stageStart)

		o.metrics.ObserveStageDuration(stage.Name(), elapsed)

		if err != nil {
			o.logger.Error("Pipeline stage failed",
				"pipeline", o.name,
				"stage", stage.Name(),
				"execution_id", result.ExecutionID,
				"error", err)
			if _, ok := domain.AsStageError(err); ok {
				return nil, err
			}
			return nil, domain.NewStageError(stage.Name(), domain.ErrorKindInternal, err)
		}

		for _, k := range stage.OutputKeys() {
			if !out.Has(k) {
				return nil, domain.NewStageError(stage.Name(), domain.ErrorKindInvalidResponse,
					fmt.Errorf("missing output key %q", k))
			}
		}

		result.Context.Merge(out.Project(stage.OutputKeys()))
		result.Timings = append(result.Timings, domain.StageTiming{
			Stage:   stage.Name(),
			Seconds: elapsed.Seconds(),
		})

		o.logger.Debug("Pipeline stage completed",
			"pipeline", o.name,
			"stage", stage.Name(),
			"execution_id", result.ExecutionID,
			"duration_seconds", elapsed.Seconds())
	}

	result.Duration = time.Since(start)
	result.Outputs = result.Context.Project(o.outputs)

	return result, nil
}
