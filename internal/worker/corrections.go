package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// correctableColumns maps the field names a correction request may carry to
// their user_profiles columns. Fields outside this map cannot be corrected
// through the workflow.
var correctableColumns = map[string]string{
	"displayName": "display_name",
	"email":       "email",
	"phone":       "phone",
	"locale":      "locale",
}

// PostgresCorrectionStore applies verified corrections to the
// user_profiles table.
type PostgresCorrectionStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCorrectionStore creates a correction store over the given pool.
func NewPostgresCorrectionStore(pool *pgxpool.Pool) *PostgresCorrectionStore {
	return &PostgresCorrectionStore{pool: pool}
}

// Apply updates the corrected fields in one statement.
func (s *PostgresCorrectionStore) Apply(ctx context.Context, userID string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	assignments := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	args = append(args, userID)

	for field, value := range fields {
		column, ok := correctableColumns[field]
		if !ok {
			return fmt.Errorf("field %q is not correctable", field)
		}
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	query := fmt.Sprintf(
		`UPDATE user_profiles SET %s, updated_at = now() WHERE user_id = $1`,
		strings.Join(assignments, ", "),
	)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("applying corrections: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no profile row for user %s", userID)
	}
	return nil
}
