package subjectdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pehchaan-id/pehchaan-compliance/internal/datarights"
)

// Tombstone marks a ledger-backed category as erased for a principal.
// The ledger itself is append-only, so the tombstone is what downstream
// reads consult before serving chain data.
type Tombstone struct {
	UserID     string
	Category   datarights.Category
	RecordedAt time.Time
}

// TombstoneStore persists erasure tombstones.
type TombstoneStore interface {
	// Record stores a tombstone. Recording twice is a no-op.
	Record(ctx context.Context, tombstone Tombstone) error

	// Exists reports whether a tombstone covers the user and category.
	Exists(ctx context.Context, userID string, category datarights.Category) (bool, error)
}

// InMemoryTombstoneStore is an in-memory TombstoneStore for development and
// testing.
type InMemoryTombstoneStore struct {
	mu         sync.RWMutex
	tombstones map[string]Tombstone
}

// NewInMemoryTombstoneStore creates a new in-memory tombstone store.
func NewInMemoryTombstoneStore() *InMemoryTombstoneStore {
	return &InMemoryTombstoneStore{tombstones: make(map[string]Tombstone)}
}

func tombstoneKey(userID string, category datarights.Category) string {
	return userID + "|" + string(category)
}

// Record stores a tombstone.
func (s *InMemoryTombstoneStore) Record(_ context.Context, tombstone Tombstone) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tombstoneKey(tombstone.UserID, tombstone.Category)
	if _, ok := s.tombstones[key]; !ok {
		s.tombstones[key] = tombstone
	}
	return nil
}

// Exists reports whether a tombstone covers the user and category.
func (s *InMemoryTombstoneStore) Exists(_ context.Context, userID string, category datarights.Category) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.tombstones[tombstoneKey(userID, category)]
	return ok, nil
}

// PostgresTombstoneStore is a PostgreSQL implementation of TombstoneStore.
type PostgresTombstoneStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTombstoneStore creates a new PostgreSQL tombstone store.
func NewPostgresTombstoneStore(pool *pgxpool.Pool) *PostgresTombstoneStore {
	return &PostgresTombstoneStore{pool: pool}
}

// Record stores a tombstone.
func (s *PostgresTombstoneStore) Record(ctx context.Context, tombstone Tombstone) error {
	query := `
		INSERT INTO erasure_tombstones (user_id, category, recorded_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, category) DO NOTHING`

	_, err := s.pool.Exec(ctx, query, tombstone.UserID, string(tombstone.Category), tombstone.RecordedAt)
	if err != nil {
		return fmt.Errorf("recording tombstone: %w", err)
	}
	return nil
}

// Exists reports whether a tombstone covers the user and category.
func (s *PostgresTombstoneStore) Exists(ctx context.Context, userID string, category datarights.Category) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM erasure_tombstones
			WHERE user_id = $1 AND category = $2
		)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, userID, string(category)).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking tombstone: %w", err)
	}
	return exists, nil
}
