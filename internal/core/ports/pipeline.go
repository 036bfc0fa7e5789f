// Package ports defines the core interfaces of the orchestrator.
// This file contains the stage interfaces for pipeline execution.
package ports

import (
	"context"

	"github.com/stagegate-io/stagegate/internal/core/domain"
)

// Stage is one named unit of pipeline work. Input and output keys are
// declared statically so the orchestrator can prove the key flow of a whole
// pipeline before any run starts, instead of discovering a missing key
// mid-run.
type Stage interface {
	// Name returns the unique identifier for this stage.
	Name() string
	// InputKeys lists the context keys the stage consumes.
	InputKeys() []string
	// OutputKeys lists the context keys the stage produces.
	OutputKeys() []string
	// Run executes the stage against the projected inputs and returns the
	// produced outputs. Outputs outside the declared key set are dropped by
	// the orchestrator.
	Run(ctx context.Context, inputs domain.ExecutionContext) (domain.ExecutionContext, error)
}

// Orchestrator drives the ordered execution of stages for one run.
type Orchestrator interface {
	// Execute runs every stage in declared order against a context seeded
	// from initial. It stops at the first stage failure.
	Execute(ctx context.Context, initial domain.ExecutionContext) (*domain.PipelineResult, error)
}
