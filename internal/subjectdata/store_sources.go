package subjectdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pehchaan-id/pehchaan-compliance/internal/consent"
	"github.com/pehchaan-id/pehchaan-compliance/internal/datarights"
)

// RecordStore reads and deletes one table's worth of subject data.
type RecordStore interface {
	// Fetch returns the principal's rows as a flat field map.
	// Returns ErrNoData when there are none.
	Fetch(ctx context.Context, userID string) (map[string]any, error)

	// Delete removes the principal's rows.
	Delete(ctx context.Context, userID string) error
}

// StoreSource serves one off-chain category from a RecordStore. Erasure is
// a hard delete.
type StoreSource struct {
	category datarights.Category
	store    RecordStore
}

// NewStoreSource creates a source over the given store.
func NewStoreSource(category datarights.Category, store RecordStore) *StoreSource {
	return &StoreSource{category: category, store: store}
}

// Category names the data category this source covers.
func (s *StoreSource) Category() datarights.Category { return s.category }

// Collect returns the principal's data in this category.
func (s *StoreSource) Collect(ctx context.Context, userID string) (map[string]any, error) {
	return s.store.Fetch(ctx, userID)
}

// Erase deletes the principal's rows.
func (s *StoreSource) Erase(ctx context.Context, userID string) (ErasureResult, error) {
	if err := s.store.Delete(ctx, userID); err != nil {
		return ErasureResult{}, err
	}
	return ErasureResult{Category: s.category}, nil
}

// ProfileStore backs the profile category with the user_profiles table.
type ProfileStore struct {
	pool *pgxpool.Pool
}

// NewProfileStore creates a profile store over the given pool.
func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

// Fetch returns the profile row.
func (s *ProfileStore) Fetch(ctx context.Context, userID string) (map[string]any, error) {
	query := `
		SELECT display_name, email, phone, locale, created_at
		FROM user_profiles
		WHERE user_id = $1`

	var (
		displayName, email string
		phone, locale      *string
		createdAt          time.Time
	)
	err := s.pool.QueryRow(ctx, query, userID).Scan(&displayName, &email, &phone, &locale, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	fields := map[string]any{
		"displayName": displayName,
		"email":       email,
		"createdAt":   createdAt.UTC().Format(time.RFC3339),
	}
	if phone != nil {
		fields["phone"] = *phone
	}
	if locale != nil {
		fields["locale"] = *locale
	}
	return fields, nil
}

// Delete removes the profile row.
func (s *ProfileStore) Delete(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM user_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	return nil
}

// PIIStore backs the pii category with the pii_documents table, which holds
// the off-chain document references (hashes and masked numbers, never the
// documents themselves).
type PIIStore struct {
	pool *pgxpool.Pool
}

// NewPIIStore creates a PII store over the given pool.
func NewPIIStore(pool *pgxpool.Pool) *PIIStore {
	return &PIIStore{pool: pool}
}

// Fetch returns the stored document references.
func (s *PIIStore) Fetch(ctx context.Context, userID string) (map[string]any, error) {
	query := `
		SELECT document_type, masked_number, verified_at
		FROM pii_documents
		WHERE user_id = $1
		ORDER BY document_type`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying pii documents: %w", err)
	}
	defer rows.Close()

	documents := make([]map[string]any, 0)
	for rows.Next() {
		var (
			docType, maskedNumber string
			verifiedAt            *time.Time
		)
		if err := rows.Scan(&docType, &maskedNumber, &verifiedAt); err != nil {
			return nil, fmt.Errorf("scanning pii document: %w", err)
		}
		doc := map[string]any{
			"documentType": docType,
			"maskedNumber": maskedNumber,
		}
		if verifiedAt != nil {
			doc["verifiedAt"] = verifiedAt.UTC().Format(time.RFC3339)
		}
		documents = append(documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pii documents: %w", err)
	}
	if len(documents) == 0 {
		return nil, ErrNoData
	}

	return map[string]any{"documents": documents}, nil
}

// Delete removes the stored document references.
func (s *PIIStore) Delete(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM pii_documents WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deleting pii documents: %w", err)
	}
	return nil
}

// ActivityStore backs the activity category with the activity_log table.
type ActivityStore struct {
	pool *pgxpool.Pool
}

// NewActivityStore creates an activity store over the given pool.
func NewActivityStore(pool *pgxpool.Pool) *ActivityStore {
	return &ActivityStore{pool: pool}
}

// Fetch returns an aggregate of the principal's activity.
func (s *ActivityStore) Fetch(ctx context.Context, userID string) (map[string]any, error) {
	query := `
		SELECT count(*), min(occurred_at), max(occurred_at)
		FROM activity_log
		WHERE user_id = $1`

	var (
		count       int64
		first, last *time.Time
	)
	if err := s.pool.QueryRow(ctx, query, userID).Scan(&count, &first, &last); err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	if count == 0 {
		return nil, ErrNoData
	}

	return map[string]any{
		"eventCount": count,
		"firstEvent": first.UTC().Format(time.RFC3339),
		"lastEvent":  last.UTC().Format(time.RFC3339),
	}, nil
}

// Delete removes the activity rows.
func (s *ActivityStore) Delete(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM activity_log WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deleting activity: %w", err)
	}
	return nil
}

// ConsentSource serves the consents category from the consent service.
// Erasure resets the principal to the default consent state.
type ConsentSource struct {
	consents *consent.Service
}

// NewConsentSource creates the consents category source.
func NewConsentSource(consents *consent.Service) *ConsentSource {
	return &ConsentSource{consents: consents}
}

// Category names the data category this source covers.
func (s *ConsentSource) Category() datarights.Category {
	return datarights.CategoryConsents
}

// Collect returns the current consent flags.
func (s *ConsentSource) Collect(ctx context.Context, userID string) (map[string]any, error) {
	return s.consents.Snapshot(ctx, userID)
}

// Erase resets the consents to defaults.
func (s *ConsentSource) Erase(ctx context.Context, userID string) (ErasureResult, error) {
	if err := s.consents.Reset(ctx, userID); err != nil {
		return ErasureResult{}, err
	}
	return ErasureResult{Category: datarights.CategoryConsents}, nil
}
