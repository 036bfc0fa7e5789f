package domain

import (
	"fmt"
	"time"
)

// RunState tracks a pipeline run through its lifecycle.
// Transitions: PENDING -> RUNNING -> SUCCEEDED | FAILED.
type RunState string

const (
	RunPending   RunState = "PENDING"
	RunRunning   RunState = "RUNNING"
	RunSucceeded RunState = "SUCCEEDED"
	RunFailed    RunState = "FAILED"
)

// StageTiming records the measured wall-clock duration of one stage.
type StageTiming struct {
	Stage   string  `json:"stage"`
	Seconds float64 `json:"seconds"`
}

// PipelineResult is the successful outcome of one orchestrated run.
type PipelineResult struct {
	ExecutionID string        `json:"execution_id"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"-"`
	// Context is the final execution context after the last stage merged.
	Context ExecutionContext `json:"-"`
	// Outputs holds only the pipeline's declared output keys.
	Outputs ExecutionContext `json:"outputs"`
	Timings []StageTiming    `json:"stage_timings"`
}

// TokenUsage is the token accounting reported by the analysis stage.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// PerformanceMetrics reports measured run characteristics. Only observed
// values appear here; nothing is estimated after the fact.
type PerformanceMetrics struct {
	TotalSeconds float64       `json:"total_seconds"`
	Stages       []StageTiming `json:"stages"`
	TokenUsage   *TokenUsage   `json:"token_usage,omitempty"`
}

// Report status tags for the top-level entry point.
const (
	ReportStatusSuccess = "SUCCESS"
	ReportStatusFailure = "FAILURE"
)

// RunRequest is the input accepted by the top-level entry point.
type RunRequest struct {
	DatasetID       string `json:"dataset_id"`
	ComplianceLevel string `json:"compliance_level"`
	AnalysisType    string `json:"analysis_type"`
}

// RunReport is the value returned for every run, successful or not. A failed
// run never escapes as a fault; it is captured here as ErrorDetails with
// compliance status UNKNOWN.
type RunReport struct {
	Status             string               `json:"status"`
	ExecutionID        string               `json:"execution_id,omitempty"`
	ProcessingTime     string               `json:"processing_time,omitempty"`
	RecordsProcessed   any                  `json:"records_processed,omitempty"`
	ComplianceStatus   ComplianceStatus     `json:"compliance_status"`
	PerformanceMetrics *PerformanceMetrics  `json:"performance_metrics,omitempty"`
	PipelineOutput     ExecutionContext     `json:"pipeline_output,omitempty"`
	ComplianceReport   *ComplianceReport    `json:"compliance_report,omitempty"`
	AuditTrailID       string               `json:"audit_trail_id,omitempty"`
	NotificationStatus *NotificationOutcome `json:"notification_status,omitempty"`
	ErrorDetails       *FailureDetail       `json:"error_details,omitempty"`
}

// FormatProcessingTime renders a duration the way reports display it.
func FormatProcessingTime(d time.Duration) string {
	return fmt.Sprintf("%.2f seconds", d.Seconds())
}
