package subjectdata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pehchaan-id/pehchaan-compliance/internal/chain"
	"github.com/pehchaan-id/pehchaan-compliance/internal/datarights"
)

// ErrNoChainAccount is returned when the principal has no accounts on the
// registry ledger.
var ErrNoChainAccount = errors.New("no chain account for user")

// AddressResolver maps a user ID to the principal's on-chain account
// addresses.
type AddressResolver interface {
	// IdentityAddress returns the identity registry account address.
	// Returns ErrNoChainAccount when the principal never registered.
	IdentityAddress(ctx context.Context, userID string) (string, error)

	// ReputationAddress returns the reputation engine account address.
	// Returns ErrNoChainAccount when the principal never registered.
	ReputationAddress(ctx context.Context, userID string) (string, error)
}

// ledgerSource carries what every chain-backed category source shares: the
// tombstone guard on reads and the tombstone write on erasure.
type ledgerSource struct {
	category   datarights.Category
	client     *chain.Client
	resolver   AddressResolver
	tombstones TombstoneStore
	now        func() time.Time
}

func (s *ledgerSource) Category() datarights.Category { return s.category }

// Erase records a tombstone. The ledger itself keeps its history.
func (s *ledgerSource) Erase(ctx context.Context, userID string) (ErasureResult, error) {
	err := s.tombstones.Record(ctx, Tombstone{
		UserID:     userID,
		Category:   s.category,
		RecordedAt: s.now().UTC(),
	})
	if err != nil {
		return ErasureResult{}, err
	}
	return ErasureResult{Category: s.category, Tombstoned: true}, nil
}

// guard returns ErrNoData when a tombstone already covers the category.
func (s *ledgerSource) guard(ctx context.Context, userID string) error {
	tombstoned, err := s.tombstones.Exists(ctx, userID, s.category)
	if err != nil {
		return err
	}
	if tombstoned {
		return ErrNoData
	}
	return nil
}

func (s *ledgerSource) identity(ctx context.Context, userID string) (*chain.IdentityRecord, error) {
	if err := s.guard(ctx, userID); err != nil {
		return nil, err
	}
	address, err := s.resolver.IdentityAddress(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoChainAccount) {
			return nil, ErrNoData
		}
		return nil, err
	}
	record, err := s.client.GetIdentity(ctx, address)
	if err != nil {
		if errors.Is(err, chain.ErrAccountNotFound) {
			return nil, ErrNoData
		}
		return nil, err
	}
	return record, nil
}

func (s *ledgerSource) reputation(ctx context.Context, userID string) (*chain.ReputationRecord, error) {
	if err := s.guard(ctx, userID); err != nil {
		return nil, err
	}
	address, err := s.resolver.ReputationAddress(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoChainAccount) {
			return nil, ErrNoData
		}
		return nil, err
	}
	record, err := s.client.GetReputation(ctx, address)
	if err != nil {
		if errors.Is(err, chain.ErrAccountNotFound) {
			return nil, ErrNoData
		}
		return nil, err
	}
	return record, nil
}

func newLedgerSource(category datarights.Category, client *chain.Client, resolver AddressResolver, tombstones TombstoneStore) ledgerSource {
	return ledgerSource{
		category:   category,
		client:     client,
		resolver:   resolver,
		tombstones: tombstones,
		now:        time.Now,
	}
}

// IdentitySource serves the identity category from the identity registry
// account.
type IdentitySource struct {
	ledgerSource
}

// NewIdentitySource creates the identity category source.
func NewIdentitySource(client *chain.Client, resolver AddressResolver, tombstones TombstoneStore) *IdentitySource {
	return &IdentitySource{newLedgerSource(datarights.CategoryIdentity, client, resolver, tombstones)}
}

// Collect returns the DID and registration metadata.
func (s *IdentitySource) Collect(ctx context.Context, userID string) (map[string]any, error) {
	record, err := s.identity(ctx, userID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"did":         record.DID,
		"authority":   record.Authority,
		"metadataUri": record.MetadataURI,
		"createdAt":   record.CreatedAt.Format(time.RFC3339),
		"lastUpdated": record.LastUpdated.Format(time.RFC3339),
	}, nil
}

// VerificationsSource serves the verifications category from the identity
// account's verification bitmap.
type VerificationsSource struct {
	ledgerSource
}

// NewVerificationsSource creates the verifications category source.
func NewVerificationsSource(client *chain.Client, resolver AddressResolver, tombstones TombstoneStore) *VerificationsSource {
	return &VerificationsSource{newLedgerSource(datarights.CategoryVerifications, client, resolver, tombstones)}
}

// Collect returns the verified document list.
func (s *VerificationsSource) Collect(ctx context.Context, userID string) (map[string]any, error) {
	record, err := s.identity(ctx, userID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"verifiedDocuments": chain.VerifiedDocuments(record.VerificationBitmap),
		"bitmap":            record.VerificationBitmap,
	}, nil
}

// CredentialsSource serves the credentials category from the reputation
// account's credential counter.
type CredentialsSource struct {
	ledgerSource
}

// NewCredentialsSource creates the credentials category source.
func NewCredentialsSource(client *chain.Client, resolver AddressResolver, tombstones TombstoneStore) *CredentialsSource {
	return &CredentialsSource{newLedgerSource(datarights.CategoryCredentials, client, resolver, tombstones)}
}

// Collect returns credential issuance counts.
func (s *CredentialsSource) Collect(ctx context.Context, userID string) (map[string]any, error) {
	record, err := s.reputation(ctx, userID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"credentialCount": record.CredentialCount,
	}, nil
}

// ReputationSource serves the reputation category from the reputation
// engine account.
type ReputationSource struct {
	ledgerSource
}

// NewReputationSource creates the reputation category source.
func NewReputationSource(client *chain.Client, resolver AddressResolver, tombstones TombstoneStore) *ReputationSource {
	return &ReputationSource{newLedgerSource(datarights.CategoryReputation, client, resolver, tombstones)}
}

// Collect returns the score and its contributing counters.
func (s *ReputationSource) Collect(ctx context.Context, userID string) (map[string]any, error) {
	record, err := s.reputation(ctx, userID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"score":              record.Score,
		"verificationCount":  record.VerificationCount,
		"activityCount":      record.ActivityCount,
		"challengesReceived": record.ChallengesReceived,
		"challengesWon":      record.ChallengesWon,
		"lastUpdated":        record.LastUpdated.Format(time.RFC3339),
	}, nil
}

// StakingSource serves the staking category from the identity account's
// staked balance.
type StakingSource struct {
	ledgerSource
}

// NewStakingSource creates the staking category source.
func NewStakingSource(client *chain.Client, resolver AddressResolver, tombstones TombstoneStore) *StakingSource {
	return &StakingSource{newLedgerSource(datarights.CategoryStaking, client, resolver, tombstones)}
}

// Collect returns the staked amount.
func (s *StakingSource) Collect(ctx context.Context, userID string) (map[string]any, error) {
	record, err := s.identity(ctx, userID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"stakedAmount": record.StakedAmount,
	}, nil
}

// NewLedgerSources builds the five chain-backed category sources.
func NewLedgerSources(client *chain.Client, resolver AddressResolver, tombstones TombstoneStore) []Source {
	return []Source{
		NewIdentitySource(client, resolver, tombstones),
		NewVerificationsSource(client, resolver, tombstones),
		NewCredentialsSource(client, resolver, tombstones),
		NewReputationSource(client, resolver, tombstones),
		NewStakingSource(client, resolver, tombstones),
	}
}

// InMemoryAddressResolver is an in-memory AddressResolver for development
// and testing.
type InMemoryAddressResolver struct {
	mu        sync.RWMutex
	addresses map[string][2]string
}

// NewInMemoryAddressResolver creates a new in-memory resolver.
func NewInMemoryAddressResolver() *InMemoryAddressResolver {
	return &InMemoryAddressResolver{addresses: make(map[string][2]string)}
}

// Set registers the principal's account addresses.
func (r *InMemoryAddressResolver) Set(userID, identityAddress, reputationAddress string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addresses[userID] = [2]string{identityAddress, reputationAddress}
}

// IdentityAddress returns the identity registry account address.
func (r *InMemoryAddressResolver) IdentityAddress(_ context.Context, userID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pair, ok := r.addresses[userID]
	if !ok {
		return "", ErrNoChainAccount
	}
	return pair[0], nil
}

// ReputationAddress returns the reputation engine account address.
func (r *InMemoryAddressResolver) ReputationAddress(_ context.Context, userID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pair, ok := r.addresses[userID]
	if !ok {
		return "", ErrNoChainAccount
	}
	return pair[1], nil
}

// PostgresAddressResolver resolves account addresses from the
// chain_accounts table.
type PostgresAddressResolver struct {
	pool *pgxpool.Pool
}

// NewPostgresAddressResolver creates a new PostgreSQL resolver.
func NewPostgresAddressResolver(pool *pgxpool.Pool) *PostgresAddressResolver {
	return &PostgresAddressResolver{pool: pool}
}

func (r *PostgresAddressResolver) address(ctx context.Context, userID, column string) (string, error) {
	query := fmt.Sprintf(`SELECT %s FROM chain_accounts WHERE user_id = $1`, column)

	var address *string
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&address); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNoChainAccount
		}
		return "", fmt.Errorf("resolving chain account: %w", err)
	}
	if address == nil {
		return "", ErrNoChainAccount
	}
	return *address, nil
}

// IdentityAddress returns the identity registry account address.
func (r *PostgresAddressResolver) IdentityAddress(ctx context.Context, userID string) (string, error) {
	return r.address(ctx, userID, "identity_address")
}

// ReputationAddress returns the reputation engine account address.
func (r *PostgresAddressResolver) ReputationAddress(ctx context.Context, userID string) (string, error) {
	return r.address(ctx, userID, "reputation_address")
}
