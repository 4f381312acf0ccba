package auth

import (
	"context"
	"errors"
)

// ErrOfficerNotFound is returned when no officer matches the lookup.
var ErrOfficerNotFound = errors.New("officer not found")

// OfficerRepository defines the interface for officer account storage.
type OfficerRepository interface {
	// GetByEmail retrieves an officer by email address.
	// Returns ErrOfficerNotFound if no officer exists with the email.
	GetByEmail(ctx context.Context, email string) (*Officer, error)

	// Create stores a new officer account.
	Create(ctx context.Context, officer *Officer) error
}
