package auth

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// ErrInvalidCredentials is returned when login fails. The same error covers
// unknown accounts, wrong passwords, and disabled accounts so the login
// endpoint cannot be used to probe for officer emails.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service handles officer login.
type Service struct {
	officers OfficerRepository
	hasher   *Hasher
	jwt      *JWTService
	logger   zerolog.Logger
}

// NewService creates a new auth service.
func NewService(officers OfficerRepository, hasher *Hasher, jwtService *JWTService, logger zerolog.Logger) *Service {
	return &Service{
		officers: officers,
		hasher:   hasher,
		jwt:      jwtService,
		logger:   logger.With().Str("component", "auth_service").Logger(),
	}
}

// Login verifies officer credentials and returns a signed access token with
// the compliance officer role.
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	officer, err := s.officers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrOfficerNotFound) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, err
	}

	if !officer.Active() || !s.hasher.Verify(officer.PasswordHash, password) {
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(officer.ID, RoleOfficer)
	if err != nil {
		return "", time.Time{}, err
	}

	s.logger.Info().Str("officer_id", officer.ID).Msg("officer logged in")
	return token, expiresAt, nil
}
