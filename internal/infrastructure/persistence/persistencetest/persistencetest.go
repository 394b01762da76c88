// Package persistencetest opens migrated in-memory databases for tests.
package persistencetest

import (
	"testing"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/config"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns an in-memory SQLite database with the full schema. It is
// closed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, persistence.AutoMigrate(db.DB))
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

// NewScope returns a transaction scope over a fresh in-memory database
func NewScope(t testing.TB) (*persistence.GormTransactionScope, *gorm.DB) {
	t.Helper()
	db := NewDB(t)
	return persistence.NewGormTransactionScope(db), db
}
