package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresOfficerRepository is a PostgreSQL implementation of OfficerRepository.
type PostgresOfficerRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOfficerRepository creates a new PostgreSQL officer repository.
func NewPostgresOfficerRepository(pool *pgxpool.Pool) *PostgresOfficerRepository {
	return &PostgresOfficerRepository{pool: pool}
}

// GetByEmail retrieves an officer by email address.
func (r *PostgresOfficerRepository) GetByEmail(ctx context.Context, email string) (*Officer, error) {
	query := `
		SELECT id, email, password_hash, display_name, created_at, updated_at, disabled_at
		FROM officers
		WHERE lower(email) = lower($1)`

	var officer Officer
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&officer.ID,
		&officer.Email,
		&officer.PasswordHash,
		&officer.DisplayName,
		&officer.CreatedAt,
		&officer.UpdatedAt,
		&officer.DisabledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOfficerNotFound
		}
		return nil, fmt.Errorf("querying officer by email: %w", err)
	}

	return &officer, nil
}

// Create stores a new officer account.
func (r *PostgresOfficerRepository) Create(ctx context.Context, officer *Officer) error {
	query := `
		INSERT INTO officers (id, email, password_hash, display_name, created_at, updated_at, disabled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		officer.ID,
		officer.Email,
		officer.PasswordHash,
		officer.DisplayName,
		officer.CreatedAt,
		officer.UpdatedAt,
		officer.DisabledAt,
	)
	if err != nil {
		return fmt.Errorf("inserting officer: %w", err)
	}

	return nil
}
