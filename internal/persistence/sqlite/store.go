// Package sqlite stores events, responses, slot documents and history in a
// SQLite database file.
package sqlite

import (
	"context"

	"github.com/example/availability-coordinator/internal/persistence"
)

// Store bundles the SQLite repositories over one connection pool.
type Store struct {
	*EventRepository
	*ResponseRepository
	*SlotRepository
	*HistoryRepository

	pool *ConnectionPool
}

var _ persistence.Store = (*Store)(nil)

// Open opens the database at path. Call Migrate before first use.
func Open(path string) (*Store, error) {
	pool, err := NewConnectionPool(path)
	if err != nil {
		return nil, err
	}
	return &Store{
		EventRepository:    NewEventRepository(pool),
		ResponseRepository: NewResponseRepository(pool),
		SlotRepository:     NewSlotRepository(pool),
		HistoryRepository:  NewHistoryRepository(pool),
		pool:               pool,
	}, nil
}

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	return s.pool.Migrate(ctx)
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.pool.Close()
}
