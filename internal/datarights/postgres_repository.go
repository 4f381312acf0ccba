package datarights

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL request repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const requestColumns = `
	id, user_id, request_type, status, categories,
	erasure_scope, export_format, grievance_category, description,
	related_request_id, corrections, reason,
	submitted_at, deadline, completed_at, response_payload, metadata, updated_at
`

// Get retrieves a request by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM data_rights_requests WHERE id = $1`
	return r.scanRequest(r.pool.QueryRow(ctx, query, id))
}

// GetByUserAndID retrieves a request scoped to its owner.
func (r *PostgresRepository) GetByUserAndID(ctx context.Context, userID, id string) (*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM data_rights_requests WHERE id = $1 AND user_id = $2`
	return r.scanRequest(r.pool.QueryRow(ctx, query, id, userID))
}

func (r *PostgresRepository) scanRequest(row pgx.Row) (*Request, error) {
	var (
		req        Request
		categories []string
	)

	err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.Type,
		&req.Status,
		&categories,
		&req.Scope,
		&req.Format,
		&req.GrievanceCategory,
		&req.Description,
		&req.RelatedRequestID,
		&req.Corrections,
		&req.Reason,
		&req.SubmittedAt,
		&req.Deadline,
		&req.CompletedAt,
		&req.ResponsePayload,
		&req.Metadata,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	for _, c := range categories {
		req.Categories = append(req.Categories, Category(c))
	}
	return &req, nil
}

// Create persists a new request.
func (r *PostgresRepository) Create(ctx context.Context, req *Request) error {
	query := `
		INSERT INTO data_rights_requests (
			id, user_id, request_type, status, categories,
			erasure_scope, export_format, grievance_category, description,
			related_request_id, corrections, reason,
			submitted_at, deadline, completed_at, response_payload, metadata, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.pool.Exec(ctx, query,
		req.ID,
		req.UserID,
		req.Type,
		req.Status,
		categoryStrings(req.Categories),
		req.Scope,
		req.Format,
		req.GrievanceCategory,
		req.Description,
		req.RelatedRequestID,
		req.Corrections,
		req.Reason,
		req.SubmittedAt,
		req.Deadline,
		req.CompletedAt,
		req.ResponsePayload,
		req.Metadata,
		req.UpdatedAt,
	)
	return err
}

// Update persists changes to an existing request.
func (r *PostgresRepository) Update(ctx context.Context, req *Request) error {
	query := `
		UPDATE data_rights_requests SET
			status = $2,
			completed_at = $3,
			response_payload = $4,
			metadata = $5,
			updated_at = $6
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		req.ID,
		req.Status,
		req.CompletedAt,
		req.ResponsePayload,
		req.Metadata,
		req.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// ListByUser returns the owner's requests, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, opts ListOptions) (*ListResult, error) {
	return r.listWhere(ctx, "user_id = $1", []interface{}{userID}, opts)
}

// List returns requests across all users, newest first.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	return r.listWhere(ctx, "TRUE", nil, opts)
}

func (r *PostgresRepository) listWhere(ctx context.Context, where string, args []interface{}, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra to determine if there are more results.
	fetchLimit := limit + 1

	query := `SELECT ` + requestColumns + ` FROM data_rights_requests WHERE ` + where
	next := len(args) + 1

	if opts.Status != "" {
		query += ` AND status = $` + itoa(next)
		args = append(args, string(opts.Status))
		next++
	}
	if opts.Type != "" {
		query += ` AND request_type = $` + itoa(next)
		args = append(args, string(opts.Type))
		next++
	}
	if opts.Cursor != "" {
		// ULID IDs sort by creation time, so the cursor is a simple ID bound.
		query += ` AND id < $` + itoa(next)
		args = append(args, opts.Cursor)
		next++
	}

	query += ` ORDER BY id DESC LIMIT $` + itoa(next)
	args = append(args, fetchLimit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*Request
	for rows.Next() {
		req, err := r.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{Items: requests}
	if len(requests) > limit {
		result.Items = requests[:limit]
		result.NextCursor = requests[limit-1].ID
	}
	return result, nil
}

// HasOpenRequest reports whether the user has a non-terminal request of
// the given type.
func (r *PostgresRepository) HasOpenRequest(ctx context.Context, userID string, t RequestType) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM data_rights_requests
			WHERE user_id = $1 AND request_type = $2
			  AND status NOT IN ('COMPLETED', 'REJECTED', 'CANCELLED')
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, string(t)).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListOverdue returns non-terminal requests past their deadline.
func (r *PostgresRepository) ListOverdue(ctx context.Context, now time.Time) ([]*Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM data_rights_requests
		WHERE deadline < $1
		  AND status NOT IN ('COMPLETED', 'REJECTED', 'CANCELLED')
		ORDER BY deadline ASC
	`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overdue []*Request
	for rows.Next() {
		req, err := r.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		overdue = append(overdue, req)
	}
	return overdue, rows.Err()
}

// AppendAudit records a status transition.
func (r *PostgresRepository) AppendAudit(ctx context.Context, entry *StatusAudit) error {
	query := `
		INSERT INTO data_rights_status_audit (
			id, request_id, previous_status, new_status, actor, reason, at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.RequestID,
		entry.PreviousStatus,
		entry.NewStatus,
		entry.Actor,
		entry.Reason,
		entry.At,
	)
	return err
}

// AuditTrail returns the transitions for a request, oldest first.
func (r *PostgresRepository) AuditTrail(ctx context.Context, requestID string) ([]*StatusAudit, error) {
	query := `
		SELECT id, request_id, previous_status, new_status, actor, reason, at
		FROM data_rights_status_audit
		WHERE request_id = $1
		ORDER BY at ASC
	`

	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*StatusAudit
	for rows.Next() {
		var e StatusAudit
		err := rows.Scan(&e.ID, &e.RequestID, &e.PreviousStatus, &e.NewStatus, &e.Actor, &e.Reason, &e.At)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func categoryStrings(cats []Category) []string {
	if cats == nil {
		return nil
	}
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
