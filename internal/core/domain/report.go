package domain

import "time"

// ComplianceStatus is the overall outcome of a validation pass.
type ComplianceStatus string

const (
	CompliancePassed  ComplianceStatus = "PASSED"
	ComplianceFailed  ComplianceStatus = "FAILED"
	ComplianceUnknown ComplianceStatus = "UNKNOWN"
)

// StandardStatus is the outcome for a single standard within a report.
type StandardStatus string

const (
	StandardCompliant StandardStatus = "COMPLIANT"
	StandardViolation StandardStatus = "VIOLATION"
)

// StandardResult pairs a checked standard with its outcome. Results keep the
// configuration order of the standards for readability.
type StandardResult struct {
	Standard string         `json:"standard"`
	Status   StandardStatus `json:"status"`
}

// ComplianceReport is the immutable record produced by one validation call.
// It is created fully populated and never mutated afterwards; the audit trail
// relies on that.
type ComplianceReport struct {
	AuditID          string           `json:"audit_id"`
	Timestamp        time.Time        `json:"timestamp"`
	StandardsChecked []string         `json:"standards_checked"`
	Results          []StandardResult `json:"results"`
	Status           ComplianceStatus `json:"compliance_status"`
	Violations       []string         `json:"violations"`
}

// Failed reports whether at least one checked standard was violated.
// Violations is non-empty exactly when this returns true.
func (r *ComplianceReport) Failed() bool {
	return r.Status == ComplianceFailed
}

// ResultFor returns the outcome recorded for the named standard.
func (r *ComplianceReport) ResultFor(standard string) (StandardStatus, bool) {
	for _, res := range r.Results {
		if res.Standard == standard {
			return res.Status, true
		}
	}
	return "", false
}
