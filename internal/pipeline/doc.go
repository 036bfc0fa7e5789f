// Package pipeline provides the sequential stage execution engine.
//
// A pipeline is an ordered list of stages sharing one execution context.
// Each stage declares the context keys it reads and the keys it writes; the
// orchestrator hands every stage a projection of just its declared inputs and
// merges back just its declared outputs, so data flow between stages is fully
// described by configuration and is validated before the first run.
//
// # Data Flow
//
// The seed context carries the pipeline input keys, the governance metadata,
// and the execution ID. Stages run strictly in configured order:
//
//	seed -> [stage 1] -> merge outputs -> [stage 2] -> ... -> final context
//
// A failing stage halts the run immediately. The error reaches the caller as
// a StageError naming the stage and classifying the failure; later stages do
// not run and no partial result is returned.
//
// # Stage Construction
//
// Stages are built from configuration by the factory in this package. Four
// stage types are built in: dataset_api, vector_search, llm_analysis, and
// webhook. Unknown types are rejected at load time.
package pipeline
