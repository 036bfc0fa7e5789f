package domain

import "time"

// Severity ranks how urgently a failure needs human attention. Only critical
// failures are escalated to the paging channel.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
)

// FailureDetail is the structured record of a failed run. It is what the
// dispatcher pages with and what the entry point returns as error_details.
type FailureDetail struct {
	ErrorType    string    `json:"error_type"`
	ErrorMessage string    `json:"error_message"`
	ExecutionID  string    `json:"execution_id"`
	Timestamp    time.Time `json:"timestamp"`
	Severity     Severity  `json:"severity"`
}

// AsMap renders the detail as the loosely typed payload paging channels carry
// in their custom_details field.
func (d *FailureDetail) AsMap() map[string]any {
	return map[string]any{
		"error_type":    d.ErrorType,
		"error_message": d.ErrorMessage,
		"execution_id":  d.ExecutionID,
		"timestamp":     d.Timestamp.UTC().Format(time.RFC3339),
		"severity":      string(d.Severity),
	}
}
