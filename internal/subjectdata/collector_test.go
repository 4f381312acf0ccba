package subjectdata

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pehchaan-id/pehchaan-compliance/internal/chain"
	"github.com/pehchaan-id/pehchaan-compliance/internal/datarights"
)

type stubSource struct {
	category datarights.Category
	fields   map[string]any
	err      error

	erased     bool
	tombstoned bool
}

func (s *stubSource) Category() datarights.Category { return s.category }

func (s *stubSource) Collect(_ context.Context, _ string) (map[string]any, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.fields, nil
}

func (s *stubSource) Erase(_ context.Context, _ string) (ErasureResult, error) {
	if s.err != nil && !errors.Is(s.err, ErrNoData) {
		return ErasureResult{}, s.err
	}
	s.erased = true
	return ErasureResult{Category: s.category, Tombstoned: s.tombstoned}, nil
}

func TestCollect_AllCategoriesWhenUnscoped(t *testing.T) {
	profile := &stubSource{category: datarights.CategoryProfile, fields: map[string]any{"email": "asha@example.in"}}
	consents := &stubSource{category: datarights.CategoryConsents, fields: map[string]any{"analytics": false}}

	collector := NewCollector(zerolog.Nop(), profile, consents)

	bundle, err := collector.Collect(context.Background(), "usr_1", nil)
	require.NoError(t, err)

	assert.Equal(t, "usr_1", bundle.UserID)
	assert.Len(t, bundle.Categories, 2)
	assert.Equal(t, "asha@example.in", bundle.Categories[datarights.CategoryProfile]["email"])
}

func TestCollect_SkipsEmptyCategories(t *testing.T) {
	profile := &stubSource{category: datarights.CategoryProfile, fields: map[string]any{"email": "asha@example.in"}}
	staking := &stubSource{category: datarights.CategoryStaking, err: ErrNoData}

	collector := NewCollector(zerolog.Nop(), profile, staking)

	bundle, err := collector.Collect(context.Background(), "usr_1", nil)
	require.NoError(t, err)

	assert.Contains(t, bundle.Categories, datarights.CategoryProfile)
	assert.NotContains(t, bundle.Categories, datarights.CategoryStaking)
}

func TestCollect_UnknownCategory(t *testing.T) {
	collector := NewCollector(zerolog.Nop())

	_, err := collector.Collect(context.Background(), "usr_1", []datarights.Category{datarights.CategoryPII})
	assert.Error(t, err)
}

func TestCollect_SourceFailureAborts(t *testing.T) {
	broken := &stubSource{category: datarights.CategoryActivity, err: errors.New("table gone")}

	collector := NewCollector(zerolog.Nop(), broken)

	_, err := collector.Collect(context.Background(), "usr_1", nil)
	assert.Error(t, err)
}

func TestErase_ReportsTombstones(t *testing.T) {
	profile := &stubSource{category: datarights.CategoryProfile}
	identity := &stubSource{category: datarights.CategoryIdentity, tombstoned: true}

	collector := NewCollector(zerolog.Nop(), profile, identity)

	results, err := collector.Erase(context.Background(), "usr_1", []datarights.Category{
		datarights.CategoryProfile,
		datarights.CategoryIdentity,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, profile.erased)
	assert.False(t, results[0].Tombstoned)
	assert.True(t, results[1].Tombstoned)
}

func TestLedgerSource_EraseThenCollect(t *testing.T) {
	tombstones := NewInMemoryTombstoneStore()
	resolver := NewInMemoryAddressResolver()
	resolver.Set("usr_1", "IdAddr", "RepAddr")

	// The RPC endpoint is never reached: the tombstone guard short-circuits
	// the read.
	client := chain.NewClient(chain.Config{RPCURL: "http://127.0.0.1:0", Network: "devnet"}, zerolog.Nop())
	source := NewIdentitySource(client, resolver, tombstones)

	result, err := source.Erase(context.Background(), "usr_1")
	require.NoError(t, err)
	assert.True(t, result.Tombstoned)

	_, err = source.Collect(context.Background(), "usr_1")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestLedgerSource_NoChainAccount(t *testing.T) {
	tombstones := NewInMemoryTombstoneStore()
	resolver := NewInMemoryAddressResolver()

	client := chain.NewClient(chain.Config{RPCURL: "http://127.0.0.1:0", Network: "devnet"}, zerolog.Nop())
	source := NewStakingSource(client, resolver, tombstones)

	_, err := source.Collect(context.Background(), "usr_2")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestInMemoryTombstoneStore_Idempotent(t *testing.T) {
	store := NewInMemoryTombstoneStore()

	tombstone := Tombstone{UserID: "usr_1", Category: datarights.CategoryReputation}
	require.NoError(t, store.Record(context.Background(), tombstone))
	require.NoError(t, store.Record(context.Background(), tombstone))

	exists, err := store.Exists(context.Background(), "usr_1", datarights.CategoryReputation)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(context.Background(), "usr_1", datarights.CategoryStaking)
	require.NoError(t, err)
	assert.False(t, exists)
}
