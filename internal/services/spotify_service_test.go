package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"setlistify/internal/cache"
	"setlistify/internal/testutil"
)

// newTestSpotifyService points a spotifyService at the mock server for both
// token exchange and search.
func newTestSpotifyService(mock *testutil.MockHTTPServer, searchCache cache.Cache) *spotifyService {
	service := NewSpotifyService("test-client-id", "test-client-secret", searchCache).(*spotifyService)
	service.baseURL = mock.URL()
	service.tokenSource.TokenURL = mock.URL() + "/api/token"
	return service
}

func TestSpotifySearchTrack_Success(t *testing.T) {
	mock := testutil.NewMockHTTPServer()
	defer mock.Close()

	mock.OnJSON("/api/token", http.StatusOK, testutil.SpotifyTokenResponse())

	var gotAuth, gotQuery, gotType, gotLimit string
	mock.On("/search", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("q")
		gotType = r.URL.Query().Get("type")
		gotLimit = r.URL.Query().Get("limit")

		w.Header().Set("Content-Type", "application/json")
		response := testutil.SpotifySearchResponse(
			testutil.SpotifyTrack("4iV5W9uY", "Moscow Mule", "Bad Bunny", 92),
		)
		writeJSON(t, w, response)
	})

	service := newTestSpotifyService(mock, nil)

	tracks, err := service.SearchTrack(context.Background(), SearchQuery{
		Title:  "Moscow Mule",
		Artist: "Bad Bunny",
		Limit:  5,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer mock-access-token", gotAuth)
	assert.Equal(t, `track:"Moscow Mule" artist:"Bad Bunny"`, gotQuery)
	assert.Equal(t, "track", gotType)
	assert.Equal(t, "5", gotLimit)

	require.Len(t, tracks, 1)
	assert.Equal(t, "4iV5W9uY", tracks[0].ExternalID)
	assert.Equal(t, "Moscow Mule", tracks[0].Title)
	assert.Equal(t, []string{"Bad Bunny"}, tracks[0].Artists)
	assert.Equal(t, 240000, tracks[0].DurationMs)
	assert.Equal(t, 92, tracks[0].Popularity)
	assert.Equal(t, "https://open.spotify.com/track/4iV5W9uY", tracks[0].URL)
	assert.Equal(t, "Bad Bunny", tracks[0].PrimaryArtist())
}

func TestSpotifyBuildSearchQuery(t *testing.T) {
	service := NewSpotifyService("id", "secret", nil).(*spotifyService)

	testCases := []struct {
		name     string
		query    SearchQuery
		expected string
	}{
		{
			name:     "title and artist",
			query:    SearchQuery{Title: "Moscow Mule", Artist: "Bad Bunny"},
			expected: `track:"Moscow Mule" artist:"Bad Bunny"`,
		},
		{
			name:     "title only",
			query:    SearchQuery{Title: "Moscow Mule"},
			expected: `track:"Moscow Mule"`,
		},
		{
			name:     "free-form query passes through untouched",
			query:    SearchQuery{Query: "Moscow Mule", Title: "ignored", Artist: "ignored"},
			expected: "Moscow Mule",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, service.buildSearchQuery(tc.query))
		})
	}
}

func TestSpotifySearchTrack_LimitDefaultsAndCaps(t *testing.T) {
	mock := testutil.NewMockHTTPServer()
	defer mock.Close()

	mock.OnJSON("/api/token", http.StatusOK, testutil.SpotifyTokenResponse())

	var gotLimit string
	mock.On("/search", func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		writeJSON(t, w, testutil.SpotifySearchResponse())
	})

	service := newTestSpotifyService(mock, nil)

	_, err := service.SearchTrack(context.Background(), SearchQuery{Title: "a"})
	require.NoError(t, err)
	assert.Equal(t, "10", gotLimit, "zero limit defaults to 10")

	_, err = service.SearchTrack(context.Background(), SearchQuery{Title: "a", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, "50", gotLimit, "limit is capped at 50")
}

func TestSpotifySearchTrack_ReusesToken(t *testing.T) {
	mock := testutil.NewMockHTTPServer()
	defer mock.Close()

	tokenRequests := 0
	mock.On("/api/token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests++
		w.Header().Set("Content-Type", "application/json")
		writeJSON(t, w, testutil.SpotifyTokenResponse())
	})
	mock.OnJSON("/search", http.StatusOK, testutil.SpotifySearchResponse())

	service := newTestSpotifyService(mock, nil)

	for i := 0; i < 3; i++ {
		_, err := service.SearchTrack(context.Background(), SearchQuery{Title: "a"})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, tokenRequests, "a live token is reused across searches")
}

func TestSpotifySearchTrack_CacheHitSkipsAPI(t *testing.T) {
	mock := testutil.NewMockHTTPServer()
	defer mock.Close()

	mock.OnJSON("/api/token", http.StatusOK, testutil.SpotifyTokenResponse())

	searchRequests := 0
	mock.On("/search", func(w http.ResponseWriter, r *http.Request) {
		searchRequests++
		w.Header().Set("Content-Type", "application/json")
		writeJSON(t, w, testutil.SpotifySearchResponse(
			testutil.SpotifyTrack("t1", "Moscow Mule", "Bad Bunny", 92),
		))
	})

	service := newTestSpotifyService(mock, cache.NewMemoryCache(10))

	query := SearchQuery{Title: "Moscow Mule", Artist: "Bad Bunny", Limit: 5}

	first, err := service.SearchTrack(context.Background(), query)
	require.NoError(t, err)
	second, err := service.SearchTrack(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, 1, searchRequests, "second identical search is served from cache")
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ExternalID, second[0].ExternalID)
	assert.Equal(t, first[0].Title, second[0].Title)
}

func TestSpotifySearchTrack_APIError(t *testing.T) {
	mock := testutil.NewMockHTTPServer()
	defer mock.Close()

	mock.OnJSON("/api/token", http.StatusOK, testutil.SpotifyTokenResponse())
	mock.On("/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	service := newTestSpotifyService(mock, nil)

	_, err := service.SearchTrack(context.Background(), SearchQuery{Title: "a"})
	require.Error(t, err)

	var catalogErr *CatalogError
	require.ErrorAs(t, err, &catalogErr)
	assert.Equal(t, "search", catalogErr.Operation)
	assert.Contains(t, catalogErr.Error(), "403")
}

func TestSpotifySearchTrack_MissingCredentials(t *testing.T) {
	service := NewSpotifyService("", "", nil)

	_, err := service.SearchTrack(context.Background(), SearchQuery{Title: "a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	var catalogErr *CatalogError
	require.ErrorAs(t, err, &catalogErr)
	assert.Equal(t, "auth", catalogErr.Operation)
}

func TestSpotifyHealth(t *testing.T) {
	mock := testutil.NewMockHTTPServer()
	defer mock.Close()

	mock.OnJSON("/api/token", http.StatusOK, testutil.SpotifyTokenResponse())

	service := newTestSpotifyService(mock, nil)
	assert.NoError(t, service.Health(context.Background()))

	unconfigured := NewSpotifyService("", "", nil)
	assert.Error(t, unconfigured.Health(context.Background()))
}

func TestConvertSpotifyTrack_FallbackURL(t *testing.T) {
	track := &SpotifyTrack{
		ID:         "abc123",
		Name:       "Song",
		Artists:    []SpotifyArtist{{Name: "Artist"}},
		DurationMs: 1000,
	}

	info := convertSpotifyTrack(track)
	assert.Equal(t, "https://open.spotify.com/track/abc123", info.URL)
}

func writeJSON(t *testing.T, w http.ResponseWriter, payload interface{}) {
	t.Helper()
	require.NoError(t, json.NewEncoder(w).Encode(payload))
}
