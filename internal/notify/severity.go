package notify

import (
	"strings"
	"time"

	"github.com/stagegate-io/stagegate/internal/core/domain"
)

// ClassifySeverity derives the escalation severity for a failed run. A typed
// stage error of kind authentication is critical. Untyped errors fall back to
// scanning the lowercase message for "authentication", keeping parity with
// stages that surface plain errors. Everything else is high.
func ClassifySeverity(err error) domain.Severity {
	if err == nil {
		return domain.SeverityHigh
	}
	if se, ok := domain.AsStageError(err); ok && se.Kind == domain.ErrorKindAuthentication {
		return domain.SeverityCritical
	}
	if strings.Contains(strings.ToLower(err.Error()), "authentication") {
		return domain.SeverityCritical
	}
	return domain.SeverityHigh
}

// NewFailureDetail classifies err and captures it as the structured record of
// a failed run.
func NewFailureDetail(executionID string, err error) *domain.FailureDetail {
	return &domain.FailureDetail{
		ErrorType:    errorType(err),
		ErrorMessage: err.Error(),
		ExecutionID:  executionID,
		Timestamp:    time.Now().UTC(),
		Severity:     ClassifySeverity(err),
	}
}

func errorType(err error) string {
	if se, ok := domain.AsStageError(err); ok {
		return "StageError:" + string(se.Kind)
	}
	if domain.IsConfigurationError(err) {
		return "ConfigurationError"
	}
	return "PipelineError"
}
