package consent

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/pehchaan-id/pehchaan-compliance/internal/api/models"
)

// Service handles consent reads and updates.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a new consent service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "consent_service").Logger(),
		now:    time.Now,
	}
}

// Get returns the principal's consents, falling back to defaults when
// nothing has been stored yet.
func (s *Service) Get(ctx context.Context, userID string) (*models.Consents, error) {
	consents, err := s.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toAPIConsents(consents), nil
}

// Update applies the provided flags on top of the current state. Fields the
// client omitted are left unchanged.
func (s *Service) Update(ctx context.Context, userID string, input models.ConsentsInput) (*models.Consents, error) {
	consents, err := s.current(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Analytics != nil {
		consents.Analytics = *input.Analytics
	}
	if input.Marketing != nil {
		consents.Marketing = *input.Marketing
	}
	if input.VerificationSharing != nil {
		consents.VerificationSharing = *input.VerificationSharing
	}
	if input.ReputationVisibility != nil {
		consents.ReputationVisibility = *input.ReputationVisibility
	}
	consents.UpdatedAt = s.now()

	if err := s.repo.Upsert(ctx, consents); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Msg("consents updated")
	return toAPIConsents(consents), nil
}

// Reset drops the stored consents so the principal falls back to defaults.
// Erasure of the consents category routes here.
func (s *Service) Reset(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Msg("consents reset to defaults")
	return nil
}

// Snapshot returns the current consent flags as a flat field map for
// subject data exports.
func (s *Service) Snapshot(ctx context.Context, userID string) (map[string]any, error) {
	consents, err := s.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"analytics":            consents.Analytics,
		"marketing":            consents.Marketing,
		"verificationSharing":  consents.VerificationSharing,
		"reputationVisibility": consents.ReputationVisibility,
	}, nil
}

func (s *Service) current(ctx context.Context, userID string) (*Consents, error) {
	consents, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrConsentsNotFound) {
			return Defaults(userID), nil
		}
		return nil, err
	}
	return consents, nil
}

func toAPIConsents(consents *Consents) *models.Consents {
	return &models.Consents{
		Analytics:            consents.Analytics,
		Marketing:            consents.Marketing,
		VerificationSharing:  consents.VerificationSharing,
		ReputationVisibility: consents.ReputationVisibility,
		UpdatedAt:            models.Timestamp(consents.UpdatedAt),
	}
}
