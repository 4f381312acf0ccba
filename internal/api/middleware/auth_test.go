package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pehchaan-id/pehchaan-compliance/internal/auth"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-signing-key-with-enough-entropy",
		Issuer:     "https://api.pehchaan.id",
		Audience:   "pehchaan-compliance",
	})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_ValidToken(t *testing.T) {
	jwtService := newTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("usr_1", auth.RoleDataPrincipal)
	require.NoError(t, err)

	var gotUserID, gotRole string
	handler := Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
		gotRole = GetRole(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/data-rights/requests", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "usr_1", gotUserID)
	assert.Equal(t, auth.RoleDataPrincipal, gotRole)
}

func TestAuth_MissingHeader(t *testing.T) {
	handler := Auth(newTestJWTService())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/data-rights/requests", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestAuth_MalformedHeader(t *testing.T) {
	handler := Auth(newTestJWTService())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/data-rights/requests", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	handler := Auth(newTestJWTService())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/data-rights/requests", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	jwtService := newTestJWTService()
	principalToken, _, err := jwtService.GenerateAccessToken("usr_1", auth.RoleDataPrincipal)
	require.NoError(t, err)
	officerToken, _, err := jwtService.GenerateAccessToken("ofc_1", auth.RoleOfficer)
	require.NoError(t, err)

	handler := Auth(jwtService)(RequireRole(auth.RoleOfficer)(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/data-rights/requests", nil)
	req.Header.Set("Authorization", "Bearer "+principalToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/data-rights/requests", nil)
	req.Header.Set("Authorization", "Bearer "+officerToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
