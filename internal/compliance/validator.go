package compliance

import (
	"fmt"
	"time"

	"github.com/stagegate-io/stagegate/internal/core/domain"
)

// Validator checks execution contexts against an ordered set of standards.
// Validate has no side effects; appending the report to the audit trail is
// the orchestration layer's responsibility.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate evaluates every standard independently and returns an immutable
// report. The report keeps the standards in the order given, carries one
// violation entry per failed standard, and derives its audit ID from the
// creation timestamp.
func (v *Validator) Validate(stds []Standard, ec domain.ExecutionContext) *domain.ComplianceReport {
	now := time.Now().UTC()
	report := &domain.ComplianceReport{
		AuditID:          domain.NewAuditID(now),
		Timestamp:        now,
		StandardsChecked: make([]string, 0, len(stds)),
		Results:          make([]domain.StandardResult, 0, len(stds)),
		Status:           domain.CompliancePassed,
		Violations:       []string{},
	}

	for _, std := range stds {
		report.StandardsChecked = append(report.StandardsChecked, std.Name)

		status := domain.StandardCompliant
		if !satisfied(std, ec) {
			status = domain.StandardViolation
			report.Status = domain.ComplianceFailed
			report.Violations = append(report.Violations, fmt.Sprintf("%s violation detected", std.Name))
		}
		report.Results = append(report.Results, domain.StandardResult{Standard: std.Name, Status: status})
	}

	return report
}

func satisfied(std Standard, ec domain.ExecutionContext) bool {
	for _, key := range std.RequiredKeys {
		if !ec.HasValue(key) {
			return false
		}
	}
	return true
}
