// Package dbtest opens throwaway SQLite databases with the full schema
// applied, for tests of packages that talk to the store.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/iliyamo/cable-billing/internal/database"
)

// New returns a migrated database stored under t.TempDir.
func New(t testing.TB) *sql.DB {
	t.Helper()

	db, dialect, err := database.Open("sqlite://" + filepath.Join(t.TempDir(), "billing.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close test db: %v", err)
		}
	})
	if err := database.Migrate(context.Background(), db, dialect); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
