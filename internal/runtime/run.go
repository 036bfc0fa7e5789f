package runtime

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stagegate-io/stagegate/internal/compliance"
	"github.com/stagegate-io/stagegate/internal/core/domain"
	"github.com/stagegate-io/stagegate/internal/notify"
	"github.com/stagegate-io/stagegate/internal/pipeline"
	"github.com/stagegate-io/stagegate/internal/telemetry"
)

// Defaults applied when a run request omits fields.
const (
	defaultDatasetID       = "enterprise_demo_dataset"
	defaultComplianceLevel = "all"
	defaultAnalysisType    = "business_intelligence"
)

// Run executes one pipeline run end to end: resolve standards, execute
// stages, validate compliance, append to the audit trail, and notify. Every
// outcome is a report; a failed run is captured as error details with
// compliance status UNKNOWN and never escapes as a fault.
func (s *Service) Run(ctx context.Context, req domain.RunRequest) *domain.RunReport {
	start := time.Now()
	executionID := domain.NewExecutionID(start)

	if req.DatasetID == "" {
		req.DatasetID = defaultDatasetID
	}
	if req.ComplianceLevel == "" {
		req.ComplianceLevel = defaultComplianceLevel
	}
	if req.AnalysisType == "" {
		req.AnalysisType = defaultAnalysisType
	}

	s.mu.RLock()
	cfg := s.cfg
	orch := s.orch
	s.mu.RUnlock()

	ctx, span := telemetry.Tracer().Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("execution_id", executionID),
		attribute.String("dataset_id", req.DatasetID),
		attribute.String("compliance_level", req.ComplianceLevel)))
	defer span.End()

	s.logger.Info("Starting pipeline run",
		slog.String("execution_id", executionID),
		slog.String("dataset_id", req.DatasetID),
		slog.String("compliance_level", req.ComplianceLevel),
		slog.String("analysis_type", req.AnalysisType))

	// Resolve the requested standards up front so a bad level never spends
	// pipeline work.
	stds, err := s.registry.ForLevel(req.ComplianceLevel, cfg.Compliance.Standards)
	if err != nil {
		return s.failRun(ctx, span, executionID, err)
	}

	seed := make(domain.ExecutionContext, len(cfg.Pipeline.Metadata)+4)
	for k, v := range cfg.Pipeline.Metadata {
		seed[k] = v
	}
	seed["dataset_id"] = req.DatasetID
	seed["compliance_level"] = req.ComplianceLevel
	seed["analysis_type"] = req.AnalysisType
	seed[pipeline.ExecutionIDKey] = executionID

	result, err := orch.Execute(ctx, seed)
	if err != nil {
		return s.failRun(ctx, span, executionID, err)
	}

	return s.completeRun(ctx, span, result, stds)
}

// failRun converts err into the structured failure report, pages when the
// classified severity demands it, and records the run as failed.
func (s *Service) failRun(ctx context.Context, span trace.Span, executionID string, err error) *domain.RunReport {
	detail := notify.NewFailureDetail(executionID, err)

	s.logger.Error("Pipeline run failed",
		slog.String("execution_id", executionID),
		slog.String("error_type", detail.ErrorType),
		slog.String("severity", string(detail.Severity)),
		slog.String("error", detail.ErrorMessage))

	span.RecordError(err)
	span.SetStatus(codes.Error, detail.ErrorType)

	outcome := s.dispatcher.NotifyFailure(ctx, detail)
	s.metrics.IncRun("failed")

	return &domain.RunReport{
		Status:             domain.ReportStatusFailure,
		ExecutionID:        executionID,
		ComplianceStatus:   domain.ComplianceUnknown,
		ErrorDetails:       detail,
		NotificationStatus: &outcome,
	}
}

// completeRun validates the finished pipeline context, appends the compliance
// report to the audit trail, and assembles the success report. A compliance
// violation marks compliance_status FAILED but the run itself stays SUCCESS;
// an audit append failure is logged and counted without failing the run.
func (s *Service) completeRun(ctx context.Context, span trace.Span, result *domain.PipelineResult, stds []compliance.Standard) *domain.RunReport {
	report := s.validator.Validate(stds, result.Context)
	for _, res := range report.Results {
		s.metrics.IncComplianceCheck(res.Standard, string(res.Status))
	}

	if err := s.audit.Append(ctx, report); err != nil {
		s.metrics.IncAuditAppendFailure()
		s.logger.Error("audit trail append failed",
			slog.String("audit_id", report.AuditID),
			slog.String("error", err.Error()))
	}

	perf := &domain.PerformanceMetrics{
		TotalSeconds: result.Duration.Seconds(),
		Stages:       result.Timings,
	}
	if usage, ok := result.Context["token_usage"].(domain.TokenUsage); ok {
		perf.TokenUsage = &usage
	}

	run := &domain.RunReport{
		Status:             domain.ReportStatusSuccess,
		ExecutionID:        result.ExecutionID,
		ProcessingTime:     domain.FormatProcessingTime(result.Duration),
		RecordsProcessed:   result.Context["records_processed"],
		ComplianceStatus:   report.Status,
		PerformanceMetrics: perf,
		PipelineOutput:     result.Outputs,
		ComplianceReport:   report,
		AuditTrailID:       report.AuditID,
	}

	outcome := s.dispatcher.NotifySuccess(ctx, run)
	run.NotificationStatus = &outcome

	span.SetAttributes(
		attribute.String("audit_id", report.AuditID),
		attribute.String("compliance_status", string(report.Status)))
	s.metrics.IncRun("succeeded")

	s.logger.Info("Pipeline run completed",
		slog.String("execution_id", result.ExecutionID),
		slog.String("audit_id", report.AuditID),
		slog.String("compliance_status", string(report.Status)),
		slog.String("processing_time", run.ProcessingTime))

	return run
}
