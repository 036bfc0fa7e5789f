// Package memory provides the in-memory audit trail.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/stagegate-io/stagegate/internal/core/domain"
	"github.com/stagegate-io/stagegate/internal/core/ports"
)

// Trail is the in-memory implementation of ports.AuditTrail. Reports are held
// in insertion order; List hands out a snapshot so callers can never reorder
// or truncate the trail itself.
type Trail struct {
	mu      sync.RWMutex
	reports []*domain.ComplianceReport
	byID    map[string]*domain.ComplianceReport
}

var _ ports.AuditTrail = (*Trail)(nil)

// New creates an empty trail.
func New() *Trail {
	return &Trail{byID: make(map[string]*domain.ComplianceReport)}
}

func (t *Trail) Append(ctx context.Context, report *domain.ComplianceReport) error {
	if report == nil {
		return fmt.Errorf("cannot append nil report")
	}
	if report.AuditID == "" {
		return fmt.Errorf("cannot append report without audit ID")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.byID[report.AuditID]; exists {
		return fmt.Errorf("report %s already appended", report.AuditID)
	}

	t.reports = append(t.reports, report)
	t.byID[report.AuditID] = report
	return nil
}

func (t *Trail) List(ctx context.Context) ([]*domain.ComplianceReport, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*domain.ComplianceReport, len(t.reports))
	copy(out, t.reports)
	return out, nil
}

func (t *Trail) Get(ctx context.Context, auditID string) (*domain.ComplianceReport, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	report, exists := t.byID[auditID]
	if !exists {
		return nil, domain.ErrReportNotFound
	}
	return report, nil
}

func (t *Trail) Close() error {
	return nil
}
