// Package subjectdata assembles and erases the personal data held about a
// data principal, one source per data category. Off-chain sources delete on
// erasure; ledger-backed sources cannot rewrite history and record a
// tombstone instead.
package subjectdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pehchaan-id/pehchaan-compliance/internal/datarights"
	"github.com/pehchaan-id/pehchaan-compliance/internal/export"
)

// ErrNoData is returned by a source when the principal has no data in its
// category. The collector skips the category rather than failing the
// request.
var ErrNoData = errors.New("no data in category")

// Source provides the data for one category.
type Source interface {
	// Category names the data category this source covers.
	Category() datarights.Category

	// Collect returns the principal's data in this category as a flat
	// field map. Returns ErrNoData when the principal has nothing here.
	Collect(ctx context.Context, userID string) (map[string]any, error)

	// Erase removes the principal's data in this category, or records a
	// tombstone when the backing store is append-only.
	Erase(ctx context.Context, userID string) (ErasureResult, error)
}

// ErasureResult reports how one category was erased.
type ErasureResult struct {
	Category datarights.Category

	// Tombstoned is true when the data lives on the ledger and a
	// tombstone was recorded instead of a deletion.
	Tombstoned bool
}

// Collector fans requests out over the registered sources.
type Collector struct {
	sources map[datarights.Category]Source
	logger  zerolog.Logger
	now     func() time.Time
}

// NewCollector creates a collector over the given sources.
func NewCollector(logger zerolog.Logger, sources ...Source) *Collector {
	byCategory := make(map[datarights.Category]Source, len(sources))
	for _, source := range sources {
		byCategory[source.Category()] = source
	}
	return &Collector{
		sources: byCategory,
		logger:  logger.With().Str("component", "subjectdata_collector").Logger(),
		now:     time.Now,
	}
}

// Categories returns the categories the collector can serve.
func (c *Collector) Categories() []datarights.Category {
	cats := make([]datarights.Category, 0, len(c.sources))
	for cat := range c.sources {
		cats = append(cats, cat)
	}
	return cats
}

// Collect gathers the principal's data for the given categories. An empty
// category list means every registered category. Categories where the
// principal has no data are omitted from the bundle.
func (c *Collector) Collect(ctx context.Context, userID string, categories []datarights.Category) (*export.Bundle, error) {
	if len(categories) == 0 {
		categories = c.Categories()
	}

	bundle := &export.Bundle{
		UserID:      userID,
		GeneratedAt: c.now().UTC(),
		Categories:  make(map[datarights.Category]map[string]any),
	}

	for _, category := range categories {
		source, ok := c.sources[category]
		if !ok {
			return nil, fmt.Errorf("no source registered for category %q", category)
		}

		fields, err := source.Collect(ctx, userID)
		if err != nil {
			if errors.Is(err, ErrNoData) {
				continue
			}
			return nil, fmt.Errorf("collecting category %q: %w", category, err)
		}
		bundle.Categories[category] = fields
	}

	return bundle, nil
}

// Erase removes the principal's data for the given categories. An empty
// category list means every registered category. Returns one result per
// category actually erased.
func (c *Collector) Erase(ctx context.Context, userID string, categories []datarights.Category) ([]ErasureResult, error) {
	if len(categories) == 0 {
		categories = c.Categories()
	}

	results := make([]ErasureResult, 0, len(categories))
	for _, category := range categories {
		source, ok := c.sources[category]
		if !ok {
			return nil, fmt.Errorf("no source registered for category %q", category)
		}

		result, err := source.Erase(ctx, userID)
		if err != nil {
			if errors.Is(err, ErrNoData) {
				continue
			}
			return nil, fmt.Errorf("erasing category %q: %w", category, err)
		}

		c.logger.Info().
			Str("user_id", userID).
			Str("category", string(category)).
			Bool("tombstoned", result.Tombstoned).
			Msg("category erased")
		results = append(results, result)
	}

	return results, nil
}
