package plex

// MediaContainer is the root container for Plex API responses
type MediaContainer struct {
	Size                int        `json:"size"`
	TotalSize           int        `json:"totalSize,omitempty"`
	Offset              int        `json:"offset,omitempty"`
	Identifier          string     `json:"identifier,omitempty"`
	LibrarySectionID    int        `json:"librarySectionID,omitempty"`
	LibrarySectionTitle string     `json:"librarySectionTitle,omitempty"`
	Metadata            []Metadata `json:"Metadata,omitempty"`
}

// Metadata represents a media item (movie, episode, track, season, or show)
type Metadata struct {
	RatingKey            string  `json:"ratingKey"`
	Key                  string  `json:"key"`
	ParentRatingKey      string  `json:"parentRatingKey,omitempty"`
	GrandparentRatingKey string  `json:"grandparentRatingKey,omitempty"`
	ParentKey            string  `json:"parentKey,omitempty"`
	GrandparentKey       string  `json:"grandparentKey,omitempty"`
	Type                 string  `json:"type"`
	Title                string  `json:"title"`
	ParentTitle          string  `json:"parentTitle,omitempty"`
	GrandparentTitle     string  `json:"grandparentTitle,omitempty"`
	Summary              string  `json:"summary,omitempty"`
	Index                int     `json:"index,omitempty"`
	ParentIndex          int     `json:"parentIndex,omitempty"`
	Rating               float64 `json:"rating,omitempty"`         // Critic rating
	AudienceRating       float64 `json:"audienceRating,omitempty"` // Audience rating
	UserRating           float64 `json:"userRating,omitempty"`     // Explicit user rating
	ViewCount            int     `json:"viewCount,omitempty"`
	ViewOffset           int     `json:"viewOffset,omitempty"`
	LastViewedAt         int64   `json:"lastViewedAt,omitempty"`
	LeafCount            int     `json:"leafCount,omitempty"`
	ViewedLeafCount      int     `json:"viewedLeafCount,omitempty"`
	Year                 int     `json:"year,omitempty"`
	Duration             int     `json:"duration,omitempty"`
	AddedAt              int64   `json:"addedAt,omitempty"`
	UpdatedAt            int64   `json:"updatedAt,omitempty"`
	LibrarySectionID     int     `json:"librarySectionID,omitempty"`
}

// APIResponse wraps the MediaContainer for JSON unmarshaling
type APIResponse struct {
	MediaContainer MediaContainer `json:"MediaContainer"`
}
