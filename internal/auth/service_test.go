package auth

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(t *testing.T) (*Service, *InMemoryOfficerRepository, *Hasher) {
	t.Helper()
	repo := NewInMemoryOfficerRepository()
	hasher := NewHasher(bcrypt.MinCost)
	svc := NewService(repo, hasher, newTestJWTService(), zerolog.Nop())
	return svc, repo, hasher
}

func seedOfficer(t *testing.T, repo *InMemoryOfficerRepository, hasher *Hasher, email, password string) *Officer {
	t.Helper()
	hash, err := hasher.Hash(password)
	require.NoError(t, err)

	officer := &Officer{
		ID:           "ofc_1",
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Priya",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), officer))
	return officer
}

func TestLogin_Success(t *testing.T) {
	svc, repo, hasher := newTestAuthService(t)
	seedOfficer(t, repo, hasher, "priya@pehchaan.id", "correct horse battery")

	token, expiresAt, err := svc.Login(context.Background(), "priya@pehchaan.id", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := newTestJWTService().ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ofc_1", claims.UserID)
	assert.Equal(t, RoleOfficer, claims.Role)
}

func TestLogin_EmailIsCaseInsensitive(t *testing.T) {
	svc, repo, hasher := newTestAuthService(t)
	seedOfficer(t, repo, hasher, "priya@pehchaan.id", "correct horse battery")

	_, _, err := svc.Login(context.Background(), "Priya@Pehchaan.id", "correct horse battery")
	assert.NoError(t, err)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, repo, hasher := newTestAuthService(t)
	seedOfficer(t, repo, hasher, "priya@pehchaan.id", "correct horse battery")

	_, _, err := svc.Login(context.Background(), "priya@pehchaan.id", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, _, err := svc.Login(context.Background(), "nobody@pehchaan.id", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_DisabledAccount(t *testing.T) {
	svc, repo, hasher := newTestAuthService(t)
	officer := seedOfficer(t, repo, hasher, "priya@pehchaan.id", "correct horse battery")

	now := time.Now()
	officer.DisabledAt = &now
	require.NoError(t, repo.Create(context.Background(), officer))

	_, _, err := svc.Login(context.Background(), "priya@pehchaan.id", "correct horse battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestHasher_RoundTrip(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, hasher.Verify(hash, "s3cret"))
	assert.False(t, hasher.Verify(hash, "other"))
}

func TestNewHasher_OutOfRangeCostFallsBack(t *testing.T) {
	hasher := NewHasher(99)

	hash, err := hasher.Hash("s3cret")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
