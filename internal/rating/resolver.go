// Package rating resolves an item's effective rating by walking its
// ancestor chain (episode -> season -> show) and taking the highest
// explicit user rating found along the way. Ratings are account-invariant,
// so only the owner's connection is consulted regardless of which viewer
// triggered the lookup.
package rating

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/EINDEX/plex-cleaner/internal/domain"
)

// maxChainDepth bounds the ancestor walk. Real chains are at most three
// levels deep; anything past this means malformed metadata.
const maxChainDepth = 16

// Cache memoizes resolved ratings and fetched items for one run. It is
// append-only and never invalidated; its lifetime is the run's lifetime.
type Cache struct {
	ratings map[string]float64
	items   map[string]*domain.Item
}

// NewCache creates an empty run-scoped cache.
func NewCache() *Cache {
	return &Cache{
		ratings: make(map[string]float64),
		items:   make(map[string]*domain.Item),
	}
}

// Resolver computes effective ratings against the owner's connection.
type Resolver struct {
	fetcher domain.ItemFetcher
	cache   *Cache
	logger  *slog.Logger
}

// NewResolver creates a resolver that fetches through the given connection
// and memoizes into the given cache.
func NewResolver(fetcher domain.ItemFetcher, cache *Cache, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		fetcher: fetcher,
		cache:   cache,
		logger:  logger,
	}
}

// Resolve returns the maximum explicit user rating across the item and all
// of its ancestors. A key already resolved this run is answered from the
// cache without touching the server.
func (r *Resolver) Resolve(ctx context.Context, key string) (float64, error) {
	if rating, ok := r.cache.ratings[key]; ok {
		return rating, nil
	}

	var high float64
	seen := make(map[string]bool)

	current := key
	for depth := 0; current != ""; depth++ {
		if seen[current] || depth >= maxChainDepth {
			return 0, fmt.Errorf("resolving rating for %s: %w", key, domain.ErrAncestorCycle)
		}
		seen[current] = true

		item, err := r.fetchItem(ctx, current)
		if err != nil {
			return 0, fmt.Errorf("resolving rating for %s: %w", key, err)
		}

		high = domain.MergeRating(high, item.UserRating)
		current = item.ParentKey
	}

	r.cache.ratings[key] = high
	r.logger.Debug("resolved rating", "key", key, "rating", high)
	return high, nil
}

// fetchItem loads an item through the run cache; each key is fetched from
// the server at most once per run.
func (r *Resolver) fetchItem(ctx context.Context, key string) (*domain.Item, error) {
	if item, ok := r.cache.items[key]; ok {
		return item, nil
	}

	item, err := r.fetcher.FetchItem(ctx, key)
	if err != nil {
		return nil, err
	}

	r.cache.items[key] = item
	return item, nil
}
