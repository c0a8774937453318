package cleaner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/EINDEX/plex-cleaner/internal/domain"
	"github.com/EINDEX/plex-cleaner/internal/rating"
)

// Rules are the retention thresholds applied per record.
type Rules struct {
	MusicDeleteBelow float64 // music with 0 < rating < this is deleted
	VideoKeepAbove   float64 // video rated above this is always kept
	AnyWatchedDays   int     // retention window after any viewer watched
	AllWatchedDays   int     // retention window after all viewers watched
}

// DefaultRules returns the stock retention thresholds.
func DefaultRules() Rules {
	return Rules{
		MusicDeleteBelow: 3,
		VideoKeepAbove:   8,
		AnyWatchedDays:   15,
		AllWatchedDays:   7,
	}
}

// Engine evaluates the retention rule set for aggregated records.
type Engine struct {
	rules       Rules
	resolver    *rating.Resolver
	viewerCount int
	now         func() time.Time
	logger      *slog.Logger
}

// NewEngine creates a decision engine. viewerCount is the total number of
// authorized viewer connections the aggregation pass covered.
func NewEngine(rules Rules, resolver *rating.Resolver, viewerCount int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		rules:       rules,
		resolver:    resolver,
		viewerCount: viewerCount,
		now:         time.Now,
		logger:      logger,
	}
}

// Decide evaluates the retention rules for one record. The record's rating
// is re-confirmed through the resolver before the rules run; with a warm
// cache this costs no server round trip.
func (e *Engine) Decide(ctx context.Context, rec *domain.WatchRecord) (domain.Decision, error) {
	resolved, err := e.resolver.Resolve(ctx, rec.Key)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("confirming rating for %s: %w", rec.Key, err)
	}
	rec.HighRating = domain.MergeRating(rec.HighRating, resolved)

	if rec.Kind == domain.KindMusic {
		return e.decideMusic(rec), nil
	}
	return e.decideVideo(rec), nil
}

// decideMusic is a binary rule: low-but-rated tracks go, everything else
// stays. An unrated track (rating 0) is never deleted.
func (e *Engine) decideMusic(rec *domain.WatchRecord) domain.Decision {
	if rec.HighRating > 0 && rec.HighRating < e.rules.MusicDeleteBelow {
		return domain.Decision{
			Verdict: domain.VerdictDelete,
			Reason:  fmt.Sprintf("rating %.0f is below %.0f", rec.HighRating, e.rules.MusicDeleteBelow),
		}
	}
	return domain.Decision{
		Verdict: domain.VerdictKeep,
		Reason:  "music is unrated or rated high enough",
	}
}

// decideVideo applies the windowed video rules in priority order. The
// all-watched branches are kept below the any-watched ones to match the
// established rule set, even though any record reaching them with a
// nonzero watch count is already covered by the any-watched branches.
func (e *Engine) decideVideo(rec *domain.WatchRecord) domain.Decision {
	allWatched := rec.WatchedCount >= e.viewerCount
	anyWatched := rec.WatchedCount > 0
	daysSince := e.daysSinceViewed(rec)

	switch {
	case rec.HighRating > e.rules.VideoKeepAbove:
		return domain.Decision{
			Verdict: domain.VerdictKeep,
			Reason:  fmt.Sprintf("rating %.0f overrides watch activity", rec.HighRating),
		}

	case anyWatched && daysSince > e.rules.AnyWatchedDays:
		return domain.Decision{
			Verdict: domain.VerdictDelete,
			Reason: fmt.Sprintf("watched by some viewer, %d day retention window elapsed (last watched %s)",
				e.rules.AnyWatchedDays, rec.LastViewedAt.Format("2006-01-02")),
		}

	case anyWatched:
		return domain.Decision{
			Verdict: domain.VerdictDefer,
			Reason:  fmt.Sprintf("watched by some viewer, pending %d day retention window", e.rules.AnyWatchedDays),
			ETA:     e.windowCloses(rec, e.rules.AnyWatchedDays),
		}

	case allWatched && daysSince > e.rules.AllWatchedDays:
		return domain.Decision{
			Verdict: domain.VerdictDelete,
			Reason: fmt.Sprintf("watched by all viewers, %d day retention window elapsed (last watched %s)",
				e.rules.AllWatchedDays, rec.LastViewedAt.Format("2006-01-02")),
		}

	case allWatched:
		return domain.Decision{
			Verdict: domain.VerdictDefer,
			Reason:  fmt.Sprintf("watched by all viewers, pending %d day retention window", e.rules.AllWatchedDays),
			ETA:     e.windowCloses(rec, e.rules.AllWatchedDays),
		}

	default:
		// Aggregation only creates records for engaged items, so a zero
		// watch count here means something upstream misbehaved.
		e.logger.Warn("record in unexpected state", "key", rec.Key, "title", rec.Title)
		return domain.Decision{
			Verdict: domain.VerdictWarn,
			Reason:  "unexpected state: record has no watch activity",
		}
	}
}

// windowCloses returns the moment the retention window elapses. A record
// watched without a recorded timestamp anchors the window at now.
func (e *Engine) windowCloses(rec *domain.WatchRecord, days int) *time.Time {
	base := e.now()
	if rec.LastViewedAt != nil {
		base = *rec.LastViewedAt
	}
	eta := base.AddDate(0, 0, days)
	return &eta
}

// daysSinceViewed returns whole days since the record was last viewed,
// or 0 if it never was.
func (e *Engine) daysSinceViewed(rec *domain.WatchRecord) int {
	if rec.LastViewedAt == nil {
		return 0
	}
	return int(e.now().Sub(*rec.LastViewedAt).Hours() / 24)
}
