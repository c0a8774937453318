package plex

import (
	"strings"
	"time"

	"github.com/EINDEX/plex-cleaner/internal/domain"
)

// MapItems converts Plex metadata to domain items
func MapItems(metadata []Metadata) []domain.Item {
	items := make([]domain.Item, 0, len(metadata))
	for _, m := range metadata {
		items = append(items, MapItem(m))
	}
	return items
}

// MapItem converts a single metadata entry to a domain item
func MapItem(m Metadata) domain.Item {
	item := domain.Item{
		Key:        m.RatingKey,
		RawType:    m.Type,
		Title:      displayTitle(m),
		ParentKey:  parentKey(m),
		UserRating: m.UserRating,
		ViewCount:  m.ViewCount,
		Watched:    isWatched(m),
	}

	if m.LastViewedAt > 0 {
		t := time.Unix(m.LastViewedAt, 0)
		item.LastViewedAt = &t
	}

	return item
}

// displayTitle prefixes episode and track titles with their show/artist
// lineage so log output and reports stay readable.
func displayTitle(m Metadata) string {
	if m.GrandparentTitle != "" {
		return m.GrandparentTitle + " - " + m.Title
	}
	return m.Title
}

// parentKey extracts the parent's ratingKey. Plex reports parents both as
// parentRatingKey and as a parentKey path; the ratingKey form wins.
func parentKey(m Metadata) string {
	if m.ParentRatingKey != "" {
		return m.ParentRatingKey
	}
	if m.ParentKey != "" {
		// parentKey is a path like /library/metadata/1234
		if i := strings.LastIndex(m.ParentKey, "/"); i >= 0 {
			return m.ParentKey[i+1:]
		}
		return m.ParentKey
	}
	return ""
}

// isWatched reports whether the item is fully watched at this connection.
// Leaf items go by view count; container items (seasons, shows) by the
// viewed leaf tally.
func isWatched(m Metadata) bool {
	if m.LeafCount > 0 {
		return m.ViewedLeafCount >= m.LeafCount
	}
	return m.ViewCount > 0
}
