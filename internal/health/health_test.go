package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                  { return s.name }
func (s stubChecker) Check(_ context.Context) error { return s.err }

func TestRegistry_AllHealthy(t *testing.T) {
	registry := NewRegistry(
		stubChecker{name: "postgres"},
		stubChecker{name: "redis"},
	)

	results := registry.Check(context.Background())
	require.Len(t, results, 2)
	assert.Equal(t, "postgres", results[0].Name)
	assert.Equal(t, "redis", results[1].Name)
	for _, r := range results {
		assert.True(t, r.Healthy())
	}

	assert.True(t, registry.Ready(context.Background()))
}

func TestRegistry_OneUnhealthy(t *testing.T) {
	registry := NewRegistry(
		stubChecker{name: "postgres"},
		stubChecker{name: "redis", err: errors.New("connection refused")},
	)

	results := registry.Check(context.Background())
	require.Len(t, results, 2)
	assert.True(t, results[0].Healthy())
	assert.False(t, results[1].Healthy())

	assert.False(t, registry.Ready(context.Background()))
}

func TestRegistry_Empty(t *testing.T) {
	registry := NewRegistry()

	assert.Empty(t, registry.Check(context.Background()))
	assert.True(t, registry.Ready(context.Background()))
}
