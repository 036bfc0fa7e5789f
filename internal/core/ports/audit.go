package ports

import (
	"context"

	"github.com/stagegate-io/stagegate/internal/core/domain"
)

// AuditTrail is the append-only, insertion-ordered log of compliance reports.
// Append is the only mutator; reports are never removed or reordered.
// Implementations: in-memory (default), SQLite.
type AuditTrail interface {
	// Append records a report. Safe for concurrent use across runs.
	Append(ctx context.Context, report *domain.ComplianceReport) error
	// List returns a snapshot of all reports in insertion order.
	List(ctx context.Context) ([]*domain.ComplianceReport, error)
	// Get returns the report with the given audit ID, or
	// domain.ErrReportNotFound.
	Get(ctx context.Context, auditID string) (*domain.ComplianceReport, error)

	Close() error
}
