package apisetu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_SendsCredentialsAndDecodesVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/attributes/verify", r.URL.Path)
		assert.Equal(t, "client-1", r.Header.Get("X-APISETU-CLIENTID"))
		assert.Equal(t, "secret-1", r.Header.Get("X-APISETU-APIKEY"))

		var req VerificationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "usr_1", req.SubjectID)
		assert.Equal(t, "Asha Sharma", req.Fields["legalName"])

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(VerificationResult{Verified: true}))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, ClientID: "client-1", ClientSecret: "secret-1"}, zerolog.Nop())

	result, err := client.Verify(context.Background(), VerificationRequest{
		SubjectID: "usr_1",
		Fields:    map[string]string{"legalName": "Asha Sharma"},
	})
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Empty(t, result.Mismatches)
}

func TestVerify_ReportsMismatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(VerificationResult{ //nolint:errcheck // test server
			Verified:   false,
			Mismatches: []string{"dateOfBirth"},
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, zerolog.Nop())

	result, err := client.Verify(context.Background(), VerificationRequest{SubjectID: "usr_1"})
	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, []string{"dateOfBirth"}, result.Mismatches)
}

func TestVerify_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, zerolog.Nop())

	_, err := client.Verify(context.Background(), VerificationRequest{SubjectID: "usr_1"})
	assert.Error(t, err)
}
