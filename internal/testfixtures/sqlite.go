package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/availability-coordinator/internal/application"
	"github.com/example/availability-coordinator/internal/persistence/sqlite"
)

// SQLiteHarness is a migrated SQLite store in a temporary directory.
type SQLiteHarness struct {
	Store        *sqlite.Store
	Repositories application.Repositories
}

// NewSQLiteHarness opens and migrates a fresh database. The store is closed
// when the test finishes.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "coordinator.db")
	store, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open store: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate store: %v", err)
	}

	return &SQLiteHarness{Store: store, Repositories: application.RepositoriesFrom(store)}
}

// SeedEvent writes fixture straight to the store and returns it.
func (h *SQLiteHarness) SeedEvent(tb testing.TB, fixture EventFixture) EventFixture {
	tb.Helper()
	if err := h.Store.CreateEvent(context.Background(), fixture.Persistence()); err != nil {
		tb.Fatalf("failed to seed event %s: %v", fixture.ID, err)
	}
	return fixture
}
