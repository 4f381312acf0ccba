package chain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/pehchaan-id/pehchaan-compliance/internal/resilience"
)

// ErrAccountNotFound is returned when the ledger holds no account at the
// requested address.
var ErrAccountNotFound = errors.New("account not found on chain")

// Config holds configuration for the chain reader.
type Config struct {
	// RPCURL is the JSON-RPC endpoint of the ledger node.
	RPCURL string

	// Network names the cluster for logging and status output.
	Network string
}

// Client reads program accounts from the ledger over JSON-RPC.
type Client struct {
	rpcURL  string
	network string
	http    *resilience.Client
	logger  zerolog.Logger
	nextID  atomic.Uint64
}

// NewClient creates a chain reader.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	return &Client{
		rpcURL:  cfg.RPCURL,
		network: cfg.Network,
		http:    resilience.NewClient(resilience.ClientConfig{Name: "chain-rpc"}),
		logger:  logger.With().Str("component", "chain_client").Str("network", cfg.Network).Logger(),
	}
}

// Network returns the configured cluster name.
func (c *Client) Network() string {
	return c.network
}

// State returns the RPC circuit breaker state for status reporting.
func (c *Client) State() string {
	return c.http.State().String()
}

// GetIdentity fetches and decodes the identity account at the given address.
func (c *Client) GetIdentity(ctx context.Context, address string) (*IdentityRecord, error) {
	data, err := c.getAccountData(ctx, address)
	if err != nil {
		return nil, err
	}
	return decodeIdentity(data)
}

// GetReputation fetches and decodes the reputation account at the given
// address.
func (c *Client) GetReputation(ctx context.Context, address string) (*ReputationRecord, error) {
	data, err := c.getAccountData(ctx, address)
	if err != nil {
		return nil, err
	}
	return decodeReputation(data)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type accountInfoResult struct {
	Value *struct {
		// Data is [base64Payload, "base64"].
		Data  []string `json:"data"`
		Owner string   `json:"owner"`
	} `json:"value"`
}

type rpcResponse struct {
	Result accountInfoResult `json:"result"`
	Error  *rpcError         `json:"error"`
}

// getAccountData calls getAccountInfo and returns the raw account bytes.
func (c *Client) getAccountData(ctx context.Context, address string) ([]byte, error) {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  "getAccountInfo",
		Params: []any{
			address,
			map[string]string{"encoding": "base64"},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("calling chain rpc: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chain rpc returned status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("decoding rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("chain rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if rpcResp.Result.Value == nil {
		return nil, ErrAccountNotFound
	}
	if len(rpcResp.Result.Value.Data) == 0 {
		return nil, fmt.Errorf("%w: empty data field", ErrMalformedAccount)
	}

	data, err := base64.StdEncoding.DecodeString(rpcResp.Result.Value.Data[0])
	if err != nil {
		return nil, fmt.Errorf("decoding account data: %w", err)
	}
	return data, nil
}
