package consent

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL consent repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves the stored consents for a user.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (*Consents, error) {
	query := `
		SELECT user_id, analytics, marketing, verification_sharing, reputation_visibility, updated_at
		FROM consents
		WHERE user_id = $1`

	var consents Consents
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&consents.UserID,
		&consents.Analytics,
		&consents.Marketing,
		&consents.VerificationSharing,
		&consents.ReputationVisibility,
		&consents.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConsentsNotFound
		}
		return nil, fmt.Errorf("querying consents: %w", err)
	}

	return &consents, nil
}

// Upsert stores the consents, replacing any previous state.
func (r *PostgresRepository) Upsert(ctx context.Context, consents *Consents) error {
	query := `
		INSERT INTO consents (user_id, analytics, marketing, verification_sharing, reputation_visibility, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			analytics = EXCLUDED.analytics,
			marketing = EXCLUDED.marketing,
			verification_sharing = EXCLUDED.verification_sharing,
			reputation_visibility = EXCLUDED.reputation_visibility,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		consents.UserID,
		consents.Analytics,
		consents.Marketing,
		consents.VerificationSharing,
		consents.ReputationVisibility,
		consents.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting consents: %w", err)
	}

	return nil
}

// Delete removes the stored consents for a user.
func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM consents WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deleting consents: %w", err)
	}
	return nil
}
