// Package apisetu calls the API Setu document verification gateway.
// Correction requests are checked against the issuing authority's records
// before the corrected values are accepted.
package apisetu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pehchaan-id/pehchaan-compliance/internal/resilience"
)

// Config holds configuration for the API Setu client.
type Config struct {
	// BaseURL is the gateway root, e.g. https://apisetu.gov.in/api.
	BaseURL string

	// ClientID and ClientSecret authenticate this consumer with the gateway.
	ClientID     string
	ClientSecret string
}

// Client verifies subject attributes against authoritative records.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	http         *resilience.Client
	logger       zerolog.Logger
}

// NewClient creates an API Setu client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		http:         resilience.NewClient(resilience.ClientConfig{Name: "apisetu"}),
		logger:       logger.With().Str("component", "apisetu_client").Logger(),
	}
}

// State returns the gateway circuit breaker state for status reporting.
func (c *Client) State() string {
	return c.http.State().String()
}

// VerificationRequest asks the gateway to check proposed attribute values.
type VerificationRequest struct {
	SubjectID string            `json:"subjectId"`
	Fields    map[string]string `json:"fields"`
}

// VerificationResult is the gateway's verdict.
type VerificationResult struct {
	Verified   bool     `json:"verified"`
	Mismatches []string `json:"mismatches,omitempty"`
}

// Verify submits the proposed field values for verification.
func (c *Client) Verify(ctx context.Context, request VerificationRequest) (*VerificationResult, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshaling verification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/attributes/verify", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-APISETU-CLIENTID", c.clientID)
	req.Header.Set("X-APISETU-APIKEY", c.clientSecret)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("calling verification gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verification gateway returned status %d", resp.StatusCode)
	}

	var result VerificationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding verification response: %w", err)
	}

	c.logger.Debug().
		Str("subject_id", request.SubjectID).
		Bool("verified", result.Verified).
		Msg("attribute verification completed")

	return &result, nil
}
