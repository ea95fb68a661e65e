package services

import "context"

// CatalogService is the music-catalog search interface the enrichment
// pipeline matches songs against.
type CatalogService interface {
	// SearchTrack searches the catalog and returns candidates in the
	// provider's own relevance order.
	SearchTrack(ctx context.Context, query SearchQuery) ([]*TrackInfo, error)

	// Health checks that the catalog service can authenticate.
	Health(ctx context.Context) error
}

// TrackInfo represents one catalog search result.
type TrackInfo struct {
	ExternalID string   `json:"external_id"`
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	Artists    []string `json:"artists"`
	DurationMs int      `json:"duration_ms,omitempty"`
	Popularity int      `json:"popularity,omitempty"`
}

// PrimaryArtist returns the first credited artist, or "" when unknown.
func (t *TrackInfo) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// SearchQuery represents a track search against the catalog.
type SearchQuery struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Query  string `json:"query,omitempty"` // free-form, bypasses field filters
	Limit  int    `json:"limit,omitempty"`
}

// CatalogError represents an error from the catalog provider.
type CatalogError struct {
	Operation string
	Message   string
	Err       error
}

func (e *CatalogError) Error() string {
	msg := "spotify " + e.Operation + " failed"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += " - " + e.Err.Error()
	}
	return msg
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}
