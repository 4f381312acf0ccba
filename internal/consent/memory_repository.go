package consent

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository for
// development and testing.
type InMemoryRepository struct {
	mu       sync.RWMutex
	consents map[string]*Consents
}

// NewInMemoryRepository creates a new in-memory consent repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		consents: make(map[string]*Consents),
	}
}

// Get retrieves the stored consents for a user.
func (r *InMemoryRepository) Get(_ context.Context, userID string) (*Consents, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	consents, ok := r.consents[userID]
	if !ok {
		return nil, ErrConsentsNotFound
	}
	cp := *consents
	return &cp, nil
}

// Upsert stores the consents, replacing any previous state.
func (r *InMemoryRepository) Upsert(_ context.Context, consents *Consents) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *consents
	r.consents[consents.UserID] = &cp
	return nil
}

// Delete removes the stored consents for a user.
func (r *InMemoryRepository) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.consents, userID)
	return nil
}
