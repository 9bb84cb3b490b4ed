// Package testutil provides utilities for testing.
package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Simplici0/auditdays/internal/db"
	"github.com/Simplici0/auditdays/internal/migrations"
)

// NewDB opens a migrated in-memory SQLite database that is closed when the test ends.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(context.Background(), db.MemoryPath)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if _, err := migrations.Up(context.Background(), database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return database
}
