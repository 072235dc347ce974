// Package dbtest provides a migrated in-memory database for tests.
package dbtest

import (
	"testing"

	"github.com/isdelr/userchat-be/internal/database"
	"github.com/jmoiron/sqlx"
)

// New returns a fresh, migrated in-memory SQLite database closed at test cleanup.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := database.New("sqlite://:memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
