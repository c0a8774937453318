package domain

import "time"

// MediaKind selects which retention rule branch applies to a record.
type MediaKind int

const (
	KindVideo MediaKind = iota
	KindMusic
)

// KindForType classifies a raw Plex item type into a media kind.
// Tracks are music; every other type (movie, episode, season, show)
// is treated as video.
func KindForType(rawType string) MediaKind {
	if rawType == "track" {
		return KindMusic
	}
	return KindVideo
}

func (k MediaKind) String() string {
	switch k {
	case KindMusic:
		return "music"
	default:
		return "video"
	}
}

// Item is the library item view consumed by the cleaner. It carries only
// the fields the aggregation and rating logic read.
type Item struct {
	Key          string // Plex ratingKey, stable per item
	RawType      string // movie, episode, track, season, show
	Title        string
	ParentKey    string     // empty for top-level items
	UserRating   float64    // explicit user rating, 0 if unset
	ViewCount    int        // play count at this viewer's connection
	Watched      bool       // server's fully-watched flag (video)
	LastViewedAt *time.Time // nil if never viewed by this viewer
}

// WatchRecord aggregates watch activity for one item across all viewers.
// Exactly one record exists per item key. WatchedCount and HighRating only
// ever grow, and LastViewedAt only ever moves forward; record state depends
// on the set of observations folded in, not their order.
type WatchRecord struct {
	Key          string
	Title        string
	Kind         MediaKind
	WatchedCount int
	LastViewedAt *time.Time
	HighRating   float64
}

// NewWatchRecord creates a record for an item on its first qualifying
// observation. Kind is assigned once here and never changes.
func NewWatchRecord(key, rawType, title string) *WatchRecord {
	return &WatchRecord{
		Key:   key,
		Title: title,
		Kind:  KindForType(rawType),
	}
}

// Watch counts one more viewer's completed viewing of this item.
func (r *WatchRecord) Watch() {
	r.WatchedCount++
}

// MergeRating keeps the higher of the two ratings. Zero is the unset
// sentinel and never lowers an existing rating.
func MergeRating(old, incoming float64) float64 {
	if incoming > old {
		return incoming
	}
	return old
}

// MergeViewedAt keeps the later of the two timestamps.
func MergeViewedAt(old, incoming *time.Time) *time.Time {
	if incoming == nil {
		return old
	}
	if old == nil || incoming.After(*old) {
		return incoming
	}
	return old
}

// Verdict is the outcome of evaluating the retention rules for a record.
type Verdict int

const (
	VerdictKeep Verdict = iota
	VerdictDelete
	VerdictDefer
	VerdictWarn
)

func (v Verdict) String() string {
	switch v {
	case VerdictDelete:
		return "delete"
	case VerdictDefer:
		return "defer"
	case VerdictWarn:
		return "warn"
	default:
		return "keep"
	}
}

// Decision is a verdict with its justification. ETA is set only for
// deferred verdicts and names the moment the retention window closes.
type Decision struct {
	Verdict Verdict
	Reason  string
	ETA     *time.Time
}
