// Package sqldb provides the SQL-backed audit trail.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/stagegate-io/stagegate/internal/core/domain"
	"github.com/stagegate-io/stagegate/internal/core/ports"
	"github.com/stagegate-io/stagegate/internal/storage/dialect"
)

// Store is a SQL implementation of the audit trail that supports multiple
// database dialects. Reports are inserted once and never updated; a monotonic
// sequence column preserves insertion order independent of timestamps.
type Store struct {
	db      *sqlx.DB
	dialect dialect.Dialect
}

var _ ports.AuditTrail = (*Store)(nil)

// Config holds database connection configuration
type Config struct {
	Driver string // Driver name: sqlite, postgres, mysql
	DSN    string // Data source name / connection string
}

// New creates a new SQL store with the specified configuration.
func New(cfg Config) (*Store, error) {
	d, err := dialect.FromDriverName(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("unsupported database driver: %w", err)
	}

	db, err := sqlx.Open(d.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run dialect-specific initialization (e.g., PRAGMA for SQLite)
	for _, stmt := range d.PragmaStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma: %w", err)
		}
	}

	store := &Store{db: db, dialect: d}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewSQLite creates a new SQLite store (convenience function).
func NewSQLite(dbPath string) (*Store, error) {
	return New(Config{Driver: "sqlite", DSN: dbPath})
}

// DB returns the underlying sqlx.DB for advanced operations
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Dialect returns the dialect being used
func (s *Store) Dialect() dialect.Dialect {
	return s.dialect
}

func (s *Store) initSchema() error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS audit_reports (
	seq %s,
	audit_id TEXT NOT NULL UNIQUE,
	created_at %s NOT NULL,
	status TEXT NOT NULL,
	report %s NOT NULL
)`, s.dialect.AutoIncrementClause(), s.dialect.TimestampType(), s.dialect.TextType()),
		`CREATE INDEX IF NOT EXISTS idx_audit_reports_status ON audit_reports(status)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_reports_created ON audit_reports(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(s.dialect.Rebind(stmt)); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// Append inserts a report. The UNIQUE constraint on audit_id rejects
// duplicate appends at the database level.
func (s *Store) Append(ctx context.Context, report *domain.ComplianceReport) error {
	if report == nil {
		return fmt.Errorf("cannot append nil report")
	}
	if report.AuditID == "" {
		return fmt.Errorf("cannot append report without audit ID")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := s.dialect.Rebind(`INSERT INTO audit_reports (audit_id, created_at, status, report)
	          VALUES (?, ?, ?, ?)`)

	_, err = s.db.ExecContext(ctx, query,
		report.AuditID, report.Timestamp, string(report.Status), string(payload))

	if err != nil {
		return fmt.Errorf("failed to append report %s: %w", report.AuditID, err)
	}

	return nil
}

// List returns every stored report in insertion order.
func (s *Store) List(ctx context.Context) ([]*domain.ComplianceReport, error) {
	query := s.dialect.Rebind(`SELECT report FROM audit_reports ORDER BY seq ASC`)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []*domain.ComplianceReport
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report domain.ComplianceReport
		if err := json.Unmarshal([]byte(payload), &report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// Get returns the report with the given audit ID.
func (s *Store) Get(ctx context.Context, auditID string) (*domain.ComplianceReport, error) {
	query := s.dialect.Rebind(`SELECT report FROM audit_reports WHERE audit_id = ?`)

	var payload string
	err := s.db.QueryRowContext(ctx, query, auditID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", auditID, err)
	}

	var report domain.ComplianceReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %s: %w", auditID, err)
	}

	return &report, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
