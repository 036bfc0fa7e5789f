package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Identifier time prefix, UTC, second precision. Kept human readable and
// sortable; the random suffix makes same-second identifiers distinct.
const idTimeLayout = "20060102_150405"

// NewExecutionID mints a run identifier derived from the run's start time.
func NewExecutionID(start time.Time) string {
	return suffixedID("exec", start)
}

// NewAuditID mints a report identifier derived from the report's creation time.
func NewAuditID(created time.Time) string {
	return suffixedID("audit", created)
}

func suffixedID(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s_%s", prefix, t.UTC().Format(idTimeLayout), uuid.New().String()[:8])
}
