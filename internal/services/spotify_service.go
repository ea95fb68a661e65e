package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2/clientcredentials"

	"setlistify/internal/cache"
)

// Spotify API endpoints
const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyAPIURL   = "https://api.spotify.com/v1"
)

// tokenExpiryMargin forces a refresh slightly before the reported expiry so a
// token never dies mid-request.
const tokenExpiryMargin = 60 * time.Second

// searchCacheTTL bounds how long a cached search response is served.
const searchCacheTTL = 24 * time.Hour

// spotifyService implements CatalogService against the Spotify Web API.
type spotifyService struct {
	client       *resty.Client
	clientID     string
	clientSecret string
	tokenSource  *clientcredentials.Config
	searchCache  cache.Cache
	baseURL      string

	mu          sync.RWMutex // guards accessToken and tokenExpiry
	accessToken string
	tokenExpiry time.Time
}

// NewSpotifyService creates a Spotify-backed catalog service. searchCache may
// be nil to disable response caching.
func NewSpotifyService(clientID, clientSecret string, searchCache cache.Cache) CatalogService {
	tokenSource := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}

	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)

	return &spotifyService{
		client:       client,
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenSource:  tokenSource,
		searchCache:  searchCache,
		baseURL:      spotifyAPIURL,
	}
}

// SearchTrack searches for tracks on Spotify.
func (s *spotifyService) SearchTrack(ctx context.Context, query SearchQuery) ([]*TrackInfo, error) {
	searchQuery := s.buildSearchQuery(query)
	limit := query.Limit
	if limit == 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50 // Spotify API limit
	}

	cacheKey := fmt.Sprintf("spotify:search:%s:%d", searchQuery, limit)
	if tracks, ok := s.cachedSearch(ctx, cacheKey); ok {
		return tracks, nil
	}

	if err := s.ensureValidToken(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	token := s.accessToken
	s.mu.RUnlock()

	var searchResult SpotifySearchResult
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"q":     searchQuery,
			"type":  "track",
			"limit": fmt.Sprintf("%d", limit),
		}).
		SetResult(&searchResult).
		Get(fmt.Sprintf("%s/search", s.baseURL))

	if err != nil {
		return nil, &CatalogError{
			Operation: "search",
			Message:   "request failed",
			Err:       err,
		}
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &CatalogError{
			Operation: "search",
			Message:   fmt.Sprintf("API returned status %d", resp.StatusCode()),
		}
	}

	tracks := make([]*TrackInfo, 0, len(searchResult.Tracks.Items))
	for i := range searchResult.Tracks.Items {
		tracks = append(tracks, convertSpotifyTrack(&searchResult.Tracks.Items[i]))
	}

	s.storeSearch(ctx, cacheKey, tracks)

	return tracks, nil
}

// Health checks that the Spotify credentials can obtain a token.
func (s *spotifyService) Health(ctx context.Context) error {
	return s.ensureValidToken(ctx)
}

// ensureValidToken ensures we hold a usable access token, performing a
// client-credentials exchange when none is held or the held one is within
// the expiry margin. The double-checked write lock serializes concurrent
// refreshes to a single upstream exchange.
func (s *spotifyService) ensureValidToken(ctx context.Context) error {
	if s.clientID == "" || s.clientSecret == "" {
		return &CatalogError{
			Operation: "auth",
			Message:   "Spotify client ID/secret missing",
			Err:       ErrMissingCredentials,
		}
	}

	s.mu.RLock()
	if s.accessToken != "" && time.Now().Before(s.tokenExpiry.Add(-tokenExpiryMargin)) {
		s.mu.RUnlock()
		return nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if s.accessToken != "" && time.Now().Before(s.tokenExpiry.Add(-tokenExpiryMargin)) {
		return nil
	}

	token, err := s.tokenSource.Token(ctx)
	if err != nil {
		return &CatalogError{
			Operation: "auth",
			Message:   "failed to get access token",
			Err:       err,
		}
	}

	s.accessToken = token.AccessToken
	s.tokenExpiry = token.Expiry

	slog.Info("Spotify access token refreshed", "expires_at", token.Expiry)

	return nil
}

// buildSearchQuery constructs a search query string for Spotify.
func (s *spotifyService) buildSearchQuery(query SearchQuery) string {
	if query.Query != "" {
		return query.Query
	}

	var parts []string
	if query.Title != "" {
		parts = append(parts, fmt.Sprintf("track:%q", query.Title))
	}
	if query.Artist != "" {
		parts = append(parts, fmt.Sprintf("artist:%q", query.Artist))
	}

	return strings.Join(parts, " ")
}

// cachedSearch returns a previously cached search response. Cache failures
// are soft: the search proceeds against the API.
func (s *spotifyService) cachedSearch(ctx context.Context, key string) ([]*TrackInfo, bool) {
	if s.searchCache == nil {
		return nil, false
	}

	data, err := s.searchCache.Get(ctx, key)
	if err != nil {
		slog.Warn("Search cache read failed", "key", key, "error", err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}

	var tracks []*TrackInfo
	if err := json.Unmarshal(data, &tracks); err != nil {
		slog.Warn("Search cache entry corrupt", "key", key, "error", err)
		return nil, false
	}

	return tracks, true
}

func (s *spotifyService) storeSearch(ctx context.Context, key string, tracks []*TrackInfo) {
	if s.searchCache == nil {
		return
	}

	data, err := json.Marshal(tracks)
	if err != nil {
		return
	}

	if err := s.searchCache.Set(ctx, key, data, searchCacheTTL); err != nil {
		slog.Warn("Search cache write failed", "key", key, "error", err)
	}
}

// convertSpotifyTrack converts a Spotify API track to TrackInfo.
func convertSpotifyTrack(track *SpotifyTrack) *TrackInfo {
	artists := make([]string, len(track.Artists))
	for i, artist := range track.Artists {
		artists[i] = artist.Name
	}

	url := track.ExternalURLs.Spotify
	if url == "" {
		url = fmt.Sprintf("https://open.spotify.com/track/%s", track.ID)
	}

	return &TrackInfo{
		ExternalID: track.ID,
		URL:        url,
		Title:      track.Name,
		Artists:    artists,
		DurationMs: track.DurationMs,
		Popularity: track.Popularity,
	}
}

// Spotify API response structures
type SpotifyTrack struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Artists      []SpotifyArtist     `json:"artists"`
	DurationMs   int                 `json:"duration_ms"`
	Popularity   int                 `json:"popularity"`
	ExternalURLs SpotifyExternalURLs `json:"external_urls"`
}

type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SpotifyExternalURLs struct {
	Spotify string `json:"spotify"`
}

type SpotifySearchResult struct {
	Tracks SpotifyTracksPaging `json:"tracks"`
}

type SpotifyTracksPaging struct {
	Items []SpotifyTrack `json:"items"`
	Total int            `json:"total"`
}
