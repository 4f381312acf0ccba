package consent

import (
	"context"
	"errors"
)

// ErrConsentsNotFound is returned when the principal has never stored
// consent preferences.
var ErrConsentsNotFound = errors.New("consents not found")

// Repository defines the interface for consent storage.
type Repository interface {
	// Get retrieves the stored consents for a user.
	// Returns ErrConsentsNotFound when nothing has been stored.
	Get(ctx context.Context, userID string) (*Consents, error)

	// Upsert stores the consents, replacing any previous state.
	Upsert(ctx context.Context, consents *Consents) error

	// Delete removes the stored consents for a user.
	Delete(ctx context.Context, userID string) error
}
