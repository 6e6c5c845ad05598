// Package databasetest opens throwaway databases for tests.
package databasetest

import (
	"testing"

	"paper-trader-go/internal/config"
	"paper-trader-go/internal/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewMemoryDB opens a fresh, migrated in-memory sqlite database.
// The pool is pinned to one connection because every new sqlite memory
// connection would otherwise see its own empty database.
func NewMemoryDB(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, config.Database{
		Driver:       "sqlite",
		DSN:          "file::memory:",
		MaxOpenConns: 1,
	})
}

// NewFileDB opens a migrated sqlite file in a temp dir with the same DSN
// options the server uses, so transactions take the write lock up front and
// concurrent writers wait instead of failing.
func NewFileDB(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, config.Database{
		Driver:       "sqlite",
		DSN:          "file:" + t.TempDir() + "/ledger.db?_busy_timeout=5000&_txlock=immediate",
		MaxOpenConns: 8,
	})
}

func open(t testing.TB, cfg config.Database) *gorm.DB {
	t.Helper()

	db, err := database.NewDatabase(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		if err := database.Close(db); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})
	return db
}
