// Package testutil provides shared test helpers for kiroku packages.
package testutil

import (
	"context"
	"testing"

	"github.com/ymatsuda/kiroku/internal/services"
	"github.com/ymatsuda/kiroku/internal/store"
	"go.uber.org/zap"
)

// Logger returns a development Zap logger for use in tests.
// Panics on construction failure (should never happen in tests).
func Logger() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic("testutil.Logger: " + err.Error())
	}
	return l
}

// NewStore creates an in-memory SQLiteStore for testing, without running any
// migrations. The store is automatically closed when the test completes.
func NewStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("testutil.NewStore: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// NewEntryRepo creates an in-memory, fully-migrated entry repository.
func NewEntryRepo(t *testing.T) services.EntryRepository {
	t.Helper()
	st := NewStore(t)
	if err := st.Migrate(context.Background(), services.EntryMigrations()); err != nil {
		t.Fatalf("testutil.NewEntryRepo: migrate: %v", err)
	}
	return services.NewSQLiteEntryRepository(st.DB())
}
