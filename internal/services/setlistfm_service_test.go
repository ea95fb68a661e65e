package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"setlistify/internal/testutil"
)

func TestExtractSetlistID(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expectedID  string
		expectError bool
	}{
		{
			name:       "bare 8-char ID",
			input:      "23abf1cd",
			expectedID: "23abf1cd",
		},
		{
			name:       "bare 7-char ID",
			input:      "3bd6dc4",
			expectedID: "3bd6dc4",
		},
		{
			name:       "bare ID with surrounding whitespace",
			input:      "  23abf1cd\n",
			expectedID: "23abf1cd",
		},
		{
			name:       "full setlist.fm URL",
			input:      "https://www.setlist.fm/setlist/bad-bunny/2022/foro-sol-23abf1cd.html",
			expectedID: "23abf1cd",
		},
		{
			name:       "URL without protocol",
			input:      "www.setlist.fm/setlist/taylor-swift/2023/sofi-stadium-inglewood-ca-53a4c9d.html",
			expectedID: "53a4c9d",
		},
		{
			name:        "uppercase hex rejected",
			input:       "23ABF1CD",
			expectError: true,
		},
		{
			name:        "too short",
			input:       "abc123",
			expectError: true,
		},
		{
			name:        "too long bare token",
			input:       "23abf1cd9",
			expectError: true,
		},
		{
			name:        "URL without html suffix",
			input:       "https://www.setlist.fm/setlist/bad-bunny/2022/foro-sol-23abf1cd",
			expectError: true,
		},
		{
			name:        "html suffix not at end",
			input:       "https://example.com/foro-sol-23abf1cd.html?query=1",
			expectError: true,
		},
		{
			name:        "empty input",
			input:       "",
			expectError: true,
		},
		{
			name:        "whitespace only",
			input:       "   ",
			expectError: true,
		},
		{
			name:        "unrelated URL",
			input:       "https://open.spotify.com/track/4iV5W9uYEdYUVa79Axb7Rh",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ExtractSetlistID(tc.input)

			if tc.expectError {
				assert.ErrorIs(t, err, ErrInvalidSetlistID)
				assert.Equal(t, "", id)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expectedID, id)
			}
		})
	}
}

func TestExtractSetlistID_Idempotent(t *testing.T) {
	first, err := ExtractSetlistID("https://www.setlist.fm/setlist/bad-bunny/2022/foro-sol-23abf1cd.html")
	require.NoError(t, err)

	second, err := ExtractSetlistID(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFetchSetlist_Success(t *testing.T) {
	mock := testutil.NewMockHTTPServer()
	defer mock.Close()

	mock.OnJSON("/setlist/23abf1cd", http.StatusOK, testutil.SetlistResponse("23abf1cd", "Bad Bunny",
		testutil.SetlistSet("", 0,
			testutil.SetlistSong("Moscow Mule"),
			map[string]interface{}{
				"name": "El Apagón",
				"info": "extended outro",
				"with": map[string]interface{}{"name": "Los Pleneros"},
			},
			map[string]interface{}{
				"name":  "Stand by Me",
				"cover": map[string]interface{}{"name": "Ben E. King"},
			},
		),
		testutil.SetlistSet("", 1,
			map[string]interface{}{"name": "Callaíta", "tape": true},
		),
	))

	service := NewSetlistFMService("test-api-key")
	service.baseURL = mock.URL()

	setlist, err := service.FetchSetlist(context.Background(), "23abf1cd")
	require.NoError(t, err)

	assert.Equal(t, "23abf1cd", setlist.ID)
	assert.Equal(t, "23-07-2022", setlist.EventDate)
	assert.Equal(t, "Bad Bunny", setlist.Artist.Name)
	assert.Equal(t, "Foro Sol", setlist.Venue.Name)
	assert.Equal(t, "Mexico City", setlist.Venue.City.Name)
	assert.Equal(t, "Mexico", setlist.Venue.City.Country.Name)
	require.Len(t, setlist.Sets.Set, 2)

	mainSet := setlist.Sets.Set[0]
	require.Len(t, mainSet.Song, 3)
	assert.Equal(t, "Moscow Mule", mainSet.Song[0].Name)
	assert.Nil(t, mainSet.Song[0].Cover)
	assert.Equal(t, "extended outro", mainSet.Song[1].Info)
	require.NotNil(t, mainSet.Song[1].With)
	assert.Equal(t, "Los Pleneros", mainSet.Song[1].With.Name)
	require.NotNil(t, mainSet.Song[2].Cover)
	assert.Equal(t, "Ben E. King", mainSet.Song[2].Cover.Name)

	encore := setlist.Sets.Set[1]
	assert.Equal(t, 1, encore.Encore)
	require.Len(t, encore.Song, 1)
	assert.True(t, encore.Song[0].Tape)
}

func TestFetchSetlist_SendsAPIKeyAndLanguage(t *testing.T) {
	mock := testutil.NewMockHTTPServer()
	defer mock.Close()

	var gotAPIKey, gotLanguage string
	mock.On("/setlist/23abf1cd", func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("x-api-key")
		gotLanguage = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"23abf1cd","sets":{"set":[]}}`))
	})

	service := NewSetlistFMService("test-api-key")
	service.baseURL = mock.URL()

	_, err := service.FetchSetlist(context.Background(), "23abf1cd")
	require.NoError(t, err)

	assert.Equal(t, "test-api-key", gotAPIKey)
	assert.Equal(t, "en", gotLanguage)
}

func TestFetchSetlist_NotFound(t *testing.T) {
	mock := testutil.NewMockHTTPServer()
	defer mock.Close()

	service := NewSetlistFMService("test-api-key")
	service.baseURL = mock.URL()

	_, err := service.FetchSetlist(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, ErrSetlistNotFound)
}

func TestFetchSetlist_UpstreamError(t *testing.T) {
	mock := testutil.NewMockHTTPServer()
	defer mock.Close()

	mock.On("/setlist/23abf1cd", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	service := NewSetlistFMService("test-api-key")
	service.baseURL = mock.URL()

	_, err := service.FetchSetlist(context.Background(), "23abf1cd")
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, "setlist.fm", upstreamErr.Provider)
	assert.Equal(t, http.StatusServiceUnavailable, upstreamErr.StatusCode)
}

func TestFetchSetlist_MissingAPIKey(t *testing.T) {
	service := NewSetlistFMService("")

	_, err := service.FetchSetlist(context.Background(), "23abf1cd")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}
