// Package testdb provides a shared test database helper for fast,
// realistic testing against a throwaway SQLite database.
package testdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/helixml/multimorph/internal/database"
)

// New creates a SQLite database in the test's temp dir and auto-migrates
// the given models. The database is automatically closed when the test
// finishes.
func New(t *testing.T, models ...any) database.Database {
	t.Helper()
	db := NewPlain(t)
	if len(models) == 0 {
		return db
	}
	if err := db.Session(context.Background()).AutoMigrate(models...); err != nil {
		t.Fatalf("testdb.New: auto migrate: %v", err)
	}
	return db
}

// NewPlain creates a SQLite database without any schema. A file is used
// rather than :memory: so every pooled connection sees the same data.
func NewPlain(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.NewDatabase(ctx, "sqlite:///"+path)
	if err != nil {
		t.Fatalf("testdb.NewPlain: open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// WithSchema creates a SQLite database and executes the given SQL
// statements to set up a custom schema.
func WithSchema(t *testing.T, statements ...string) database.Database {
	t.Helper()
	ctx := context.Background()
	db := NewPlain(t)
	for _, stmt := range statements {
		if err := db.Session(ctx).Exec(stmt).Error; err != nil {
			t.Fatalf("testdb.WithSchema: %v\nSQL: %s", err, stmt)
		}
	}
	return db
}
