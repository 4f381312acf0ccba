package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pehchaan-id/pehchaan-compliance/internal/api/handler"
	"github.com/pehchaan-id/pehchaan-compliance/internal/api/models"
	"github.com/pehchaan-id/pehchaan-compliance/internal/auth"
	"github.com/pehchaan-id/pehchaan-compliance/internal/consent"
	"github.com/pehchaan-id/pehchaan-compliance/internal/datarights"
	"github.com/pehchaan-id/pehchaan-compliance/internal/health"
)

type routerFixture struct {
	router     http.Handler
	jwtService *auth.JWTService
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-signing-key-with-enough-entropy",
		Issuer:     "https://api.pehchaan.id",
		Audience:   "pehchaan-compliance",
	})

	hasher := auth.NewHasher(bcrypt.MinCost)
	officers := auth.NewInMemoryOfficerRepository()
	hash, err := hasher.Hash("officer-password")
	require.NoError(t, err)
	require.NoError(t, officers.Create(context.Background(), &auth.Officer{
		ID:           "ofc_1",
		Email:        "priya@pehchaan.id",
		PasswordHash: hash,
		DisplayName:  "Priya",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}))

	router := NewRouter(RouterConfig{
		Version:     "test",
		BuildTime:   "now",
		Logger:      zerolog.Nop(),
		JWTService:  jwtService,
		AuthService: auth.NewService(officers, hasher, jwtService, zerolog.Nop()),
		DataRightsService: datarights.NewService(datarights.ServiceConfig{
			Repository: datarights.NewInMemoryRepository(),
			Logger:     zerolog.Nop(),
		}),
		ConsentService: consent.NewService(consent.NewInMemoryRepository(), zerolog.Nop()),
		HealthRegistry: health.NewRegistry(),
		Providers:      map[string]handler.BreakerStater{},
	})

	return &routerFixture{router: router, jwtService: jwtService}
}

func (f *routerFixture) token(t *testing.T, subject, role string) string {
	t.Helper()
	token, _, err := f.jwtService.GenerateAccessToken(subject, role)
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_HealthIsPublic(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/ops/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRouter_ReadyIsPublic(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/ops/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_DataRightsRequireAuth(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/data-rights/requests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRouter_SubmitAndFetchErasureRequest(t *testing.T) {
	f := newRouterFixture(t)
	token := f.token(t, "usr_1", auth.RoleDataPrincipal)

	rec := f.do(t, http.MethodPost, "/v1/data-rights/erasure-requests", token, models.ErasureRequestCreate{
		Scope:      "partial",
		Categories: []string{"profile", "consents"},
		Reason:     "limit my stored data",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var created models.DataRightsRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "ERASURE", created.Type)
	assert.Equal(t, "PENDING", created.Status)
	assert.Equal(t, "/v1/data-rights/requests/"+created.ID, rec.Header().Get("Location"))

	rec = f.do(t, http.MethodGet, "/v1/data-rights/requests/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched models.DataRightsRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
}

func TestRouter_ValidationProblem(t *testing.T) {
	f := newRouterFixture(t)
	token := f.token(t, "usr_1", auth.RoleDataPrincipal)

	rec := f.do(t, http.MethodPost, "/v1/data-rights/erasure-requests", token, models.ErasureRequestCreate{
		Scope:  "partial",
		Reason: "x",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.NotEmpty(t, problem.Errors)
}

func TestRouter_RequestsAreOwnerScoped(t *testing.T) {
	f := newRouterFixture(t)
	owner := f.token(t, "usr_1", auth.RoleDataPrincipal)
	other := f.token(t, "usr_2", auth.RoleDataPrincipal)

	rec := f.do(t, http.MethodPost, "/v1/data-rights/access-requests", owner, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var created models.DataRightsRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = f.do(t, http.MethodGet, "/v1/data-rights/requests/"+created.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_DuplicateSubmissionConflicts(t *testing.T) {
	f := newRouterFixture(t)
	token := f.token(t, "usr_1", auth.RoleDataPrincipal)

	rec := f.do(t, http.MethodPost, "/v1/data-rights/access-requests", token, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/data-rights/access-requests", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_CancelRequest(t *testing.T) {
	f := newRouterFixture(t)
	token := f.token(t, "usr_1", auth.RoleDataPrincipal)

	rec := f.do(t, http.MethodPost, "/v1/data-rights/access-requests", token, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var created models.DataRightsRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = f.do(t, http.MethodPost, "/v1/data-rights/requests/"+created.ID+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cancelled models.DataRightsRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, "CANCELLED", cancelled.Status)
}

func TestRouter_ConsentsRoundTrip(t *testing.T) {
	f := newRouterFixture(t)
	token := f.token(t, "usr_1", auth.RoleDataPrincipal)

	enabled := true
	rec := f.do(t, http.MethodPut, "/v1/me/consents", token, models.ConsentsInput{Analytics: &enabled})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/me/consents", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var consents models.Consents
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &consents))
	assert.True(t, consents.Analytics)
	assert.True(t, consents.ReputationVisibility)
}

func TestRouter_AdminLoginAndReject(t *testing.T) {
	f := newRouterFixture(t)
	principal := f.token(t, "usr_1", auth.RoleDataPrincipal)

	rec := f.do(t, http.MethodPost, "/v1/data-rights/access-requests", principal, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var created models.DataRightsRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// Officer logs in with seeded credentials.
	rec = f.do(t, http.MethodPost, "/v1/admin/login", "", models.AdminLoginRequest{
		Email:    "priya@pehchaan.id",
		Password: "officer-password",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var login models.AdminLoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.AccessToken)

	rec = f.do(t, http.MethodPost, "/v1/admin/data-rights/requests/"+created.ID+"/reject", login.AccessToken, models.RejectRequestInput{
		Reason: "identity could not be confirmed",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var rejected models.DataRightsRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rejected))
	assert.Equal(t, "REJECTED", rejected.Status)
}

func TestRouter_AdminSurfaceNeedsOfficerRole(t *testing.T) {
	f := newRouterFixture(t)
	principal := f.token(t, "usr_1", auth.RoleDataPrincipal)

	rec := f.do(t, http.MethodGet, "/v1/admin/data-rights/requests", principal, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
