// Package sqlite provides the SQLite audit trail adapter.
package sqlite

import (
	"github.com/stagegate-io/stagegate/internal/core/ports"
	"github.com/stagegate-io/stagegate/internal/storage/sqldb"
)

// Provider implements ports.AuditTrail using SQLite.
// It wraps the sqldb implementation.
type Provider struct {
	*sqldb.Store
}

// NewProvider creates a new SQLite audit trail provider.
func NewProvider(path string) (*Provider, error) {
	store, err := sqldb.NewSQLite(path)
	if err != nil {
		return nil, err
	}

	return &Provider{
		Store: store,
	}, nil
}

// Ensure Provider implements ports.AuditTrail at compile time.
var _ ports.AuditTrail = (*Provider)(nil)
