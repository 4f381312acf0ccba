package auth

import (
	"context"
	"strings"
	"sync"
)

// InMemoryOfficerRepository is an in-memory implementation of
// OfficerRepository for development and testing.
type InMemoryOfficerRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*Officer
}

// NewInMemoryOfficerRepository creates a new in-memory officer repository.
func NewInMemoryOfficerRepository() *InMemoryOfficerRepository {
	return &InMemoryOfficerRepository{
		byEmail: make(map[string]*Officer),
	}
}

// GetByEmail retrieves an officer by email address.
func (r *InMemoryOfficerRepository) GetByEmail(_ context.Context, email string) (*Officer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	officer, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrOfficerNotFound
	}
	cp := *officer
	return &cp, nil
}

// Create stores a new officer account.
func (r *InMemoryOfficerRepository) Create(_ context.Context, officer *Officer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *officer
	r.byEmail[strings.ToLower(officer.Email)] = &cp
	return nil
}
