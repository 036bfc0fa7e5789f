package sqldb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stagegate-io/stagegate/internal/core/domain"
)

func sampleReport(auditID string) *domain.ComplianceReport {
	return &domain.ComplianceReport{
		AuditID:          auditID,
		Timestamp:        time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		StandardsChecked: []string{"SOX", "GDPR", "HIPAA"},
		Results: []domain.StandardResult{
			{Standard: "SOX", Status: domain.StandardCompliant},
			{Standard: "GDPR", Status: domain.StandardCompliant},
			{Standard: "HIPAA", Status: domain.StandardViolation},
		},
		Status:     domain.ComplianceFailed,
		Violations: []string{"HIPAA violation detected"},
	}
}

func TestStore_AppendAndGet(t *testing.T) {
	store, err := NewSQLite("file:auditdb1?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer store.Close()

	report := sampleReport("audit_20240301_103000_a1b2c3d4")
	if err := store.Append(context.Background(), report); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	retrieved, err := store.Get(context.Background(), report.AuditID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if retrieved.AuditID != report.AuditID {
		t.Errorf("AuditID = %v, want %v", retrieved.AuditID, report.AuditID)
	}
	if !retrieved.Timestamp.Equal(report.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", retrieved.Timestamp, report.Timestamp)
	}
	if retrieved.Status != domain.ComplianceFailed {
		t.Errorf("Status = %v, want %v", retrieved.Status, domain.ComplianceFailed)
	}
	if len(retrieved.Results) != 3 {
		t.Fatalf("Results count = %d, want 3", len(retrieved.Results))
	}
	if status, ok := retrieved.ResultFor("HIPAA"); !ok || status != domain.StandardViolation {
		t.Errorf("ResultFor(HIPAA) = %v, %v, want VIOLATION", status, ok)
	}
	if len(retrieved.Violations) != 1 || retrieved.Violations[0] != "HIPAA violation detected" {
		t.Errorf("Violations = %v, want [HIPAA violation detected]", retrieved.Violations)
	}
}

func TestStore_Get_NotFound(t *testing.T) {
	store, err := NewSQLite("file:auditdb2?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer store.Close()

	_, err = store.Get(context.Background(), "audit_does_not_exist")
	if !errors.Is(err, domain.ErrReportNotFound) {
		t.Errorf("Get() error = %v, want ErrReportNotFound", err)
	}
}

func TestStore_List_InsertionOrder(t *testing.T) {
	store, err := NewSQLite("file:auditdb3?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer store.Close()

	// Audit IDs deliberately out of lexical order; List must follow
	// insertion order, not ID order.
	ids := []string{"audit_c", "audit_a", "audit_b"}
	for _, id := range ids {
		if err := store.Append(context.Background(), sampleReport(id)); err != nil {
			t.Fatalf("Append(%s) error = %v", id, err)
		}
	}

	reports, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(reports) != 3 {
		t.Fatalf("Reports count = %d, want 3", len(reports))
	}
	for i, id := range ids {
		if reports[i].AuditID != id {
			t.Errorf("reports[%d].AuditID = %v, want %v", i, reports[i].AuditID, id)
		}
	}
}

func TestStore_Append_DuplicateAuditID(t *testing.T) {
	store, err := NewSQLite("file:auditdb4?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer store.Close()

	report := sampleReport("audit_duplicate")
	if err := store.Append(context.Background(), report); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := store.Append(context.Background(), report); err == nil {
		t.Error("Expected error appending duplicate audit ID")
	}
}

func TestStore_Append_Validation(t *testing.T) {
	store, err := NewSQLite("file:auditdb5?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer store.Close()

	if err := store.Append(context.Background(), nil); err == nil {
		t.Error("Expected error appending nil report")
	}

	if err := store.Append(context.Background(), &domain.ComplianceReport{}); err == nil {
		t.Error("Expected error appending report without audit ID")
	}
}

func TestStore_ReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	store, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}

	report := sampleReport("audit_persisted")
	if err := store.Append(context.Background(), report); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite() reopen error = %v", err)
	}
	defer reopened.Close()

	retrieved, err := reopened.Get(context.Background(), "audit_persisted")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if retrieved.Status != domain.ComplianceFailed {
		t.Errorf("Status = %v, want %v", retrieved.Status, domain.ComplianceFailed)
	}
}

func TestStore_DialectAccessor(t *testing.T) {
	store, err := NewSQLite("file:auditdb6?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer store.Close()

	if store.Dialect().Name() != "sqlite" {
		t.Errorf("Dialect name = %v, want sqlite", store.Dialect().Name())
	}
	if store.DB() == nil {
		t.Error("DB() returned nil")
	}
}

func TestNew_WithConfig(t *testing.T) {
	cfg := Config{
		Driver: "sqlite",
		DSN:    "file:auditdb7?mode=memory&cache=shared",
	}

	store, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer store.Close()

	if store.Dialect().Name() != "sqlite" {
		t.Errorf("Dialect name = %v, want sqlite", store.Dialect().Name())
	}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	cfg := Config{
		Driver: "unsupported",
		DSN:    "test",
	}

	if _, err := New(cfg); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}
