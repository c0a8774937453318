// Package cleaner holds the retention core: the aggregator that folds
// per-viewer watch observations into shared watch records, the decision
// engine that turns a record into a delete/keep/defer verdict, and the
// runner that sequences one full pass.
package cleaner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/EINDEX/plex-cleaner/internal/domain"
	"github.com/EINDEX/plex-cleaner/internal/rating"
)

// Aggregator folds per-viewer library observations into watch records.
type Aggregator struct {
	resolver *rating.Resolver
	logger   *slog.Logger
}

// NewAggregator creates an aggregator resolving ratings through the given
// resolver.
func NewAggregator(resolver *rating.Resolver, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		resolver: resolver,
		logger:   logger,
	}
}

// Aggregate searches one viewer's connection for engaged items of the
// given raw type and folds each observation into the record table. The
// fold is commutative: the final table state depends only on the set of
// qualifying observations, not on viewer or item order.
func (a *Aggregator) Aggregate(ctx context.Context, browser domain.LibraryBrowser, rawType string, table map[string]*domain.WatchRecord) error {
	items, err := browser.SearchWatched(ctx, rawType)
	if err != nil {
		return fmt.Errorf("searching %s items: %w", rawType, err)
	}

	a.logger.Debug("aggregating items", "type", rawType, "count", len(items))

	for _, item := range items {
		kind := domain.KindForType(item.RawType)

		// The search already biases toward watched items; these checks
		// guard the kind-specific counting semantics.
		switch kind {
		case domain.KindMusic:
			if item.ViewCount == 0 {
				continue
			}
		case domain.KindVideo:
			if !item.Watched {
				continue
			}
		}

		rec, ok := table[item.Key]
		if !ok {
			rec = domain.NewWatchRecord(item.Key, item.RawType, item.Title)
			table[item.Key] = rec
		}

		if rec.Kind == domain.KindVideo {
			rec.Watch()
			rec.LastViewedAt = domain.MergeViewedAt(rec.LastViewedAt, item.LastViewedAt)
		}

		resolved, err := a.resolver.Resolve(ctx, item.Key)
		if err != nil {
			return fmt.Errorf("aggregating %s: %w", item.Key, err)
		}
		rec.HighRating = domain.MergeRating(rec.HighRating, resolved)
	}

	return nil
}
