package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// setlist.fm API endpoint
const setlistFMAPIURL = "https://api.setlist.fm/rest/1.0"

// Request-fatal pipeline errors. Per-song matching failures are absorbed by
// the enrichment service and never surface as errors.
var (
	ErrInvalidSetlistID   = errors.New("input does not contain a setlist.fm setlist ID")
	ErrSetlistNotFound    = errors.New("setlist does not exist on setlist.fm")
	ErrMissingCredentials = errors.New("provider credentials are not configured")
)

// UpstreamError reports a non-success status from an upstream provider.
type UpstreamError struct {
	Provider   string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API returned status %d", e.Provider, e.StatusCode)
}

// setlist.fm setlist IDs are 7-8 lowercase hex characters. Canonical setlist
// URLs embed the ID right before the .html suffix.
var (
	bareSetlistIDPattern = regexp.MustCompile(`^[0-9a-f]{7,8}$`)
	setlistURLPattern    = regexp.MustCompile(`([0-9a-f]{7,8})\.html$`)
)

// ExtractSetlistID parses a user-supplied URL or bare ID into a setlist.fm
// setlist ID. Pure function, total over all inputs: anything that does not
// contain an ID returns ErrInvalidSetlistID.
func ExtractSetlistID(input string) (string, error) {
	trimmed := strings.TrimSpace(input)

	if bareSetlistIDPattern.MatchString(trimmed) {
		return trimmed, nil
	}

	if matches := setlistURLPattern.FindStringSubmatch(trimmed); matches != nil {
		return matches[1], nil
	}

	return "", ErrInvalidSetlistID
}

// SetlistFMService fetches setlists from the setlist.fm REST API.
type SetlistFMService struct {
	client  *resty.Client
	apiKey  string
	baseURL string
}

// NewSetlistFMService creates a setlist.fm client.
func NewSetlistFMService(apiKey string) *SetlistFMService {
	client := resty.New().
		SetTimeout(10 * time.Second)

	return &SetlistFMService{
		client:  client,
		apiKey:  apiKey,
		baseURL: setlistFMAPIURL,
	}
}

// FetchSetlist retrieves a setlist by ID, requesting English annotations.
// A 404 maps to ErrSetlistNotFound; any other non-success status maps to an
// UpstreamError carrying the status code.
func (s *SetlistFMService) FetchSetlist(ctx context.Context, setlistID string) (*Setlist, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("setlist.fm API key: %w", ErrMissingCredentials)
	}

	var setlist Setlist
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("x-api-key", s.apiKey).
		SetHeader("Accept", "application/json").
		SetHeader("Accept-Language", "en").
		SetResult(&setlist).
		Get(fmt.Sprintf("%s/setlist/%s", s.baseURL, setlistID))

	if err != nil {
		return nil, fmt.Errorf("setlist.fm request failed: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrSetlistNotFound
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &UpstreamError{Provider: "setlist.fm", StatusCode: resp.StatusCode()}
	}

	return &setlist, nil
}

// setlist.fm API response structures. Optional upstream fields are explicit:
// pointers where absence matters (cover, with), zero values elsewhere.
type Setlist struct {
	ID        string        `json:"id"`
	EventDate string        `json:"eventDate"` // day-month-year, as reported upstream
	Artist    SetlistArtist `json:"artist"`
	Venue     SetlistVenue  `json:"venue"`
	URL       string        `json:"url"`
	Sets      SetlistSets   `json:"sets"`
}

type SetlistArtist struct {
	MBID string `json:"mbid"`
	Name string `json:"name"`
}

type SetlistVenue struct {
	Name string      `json:"name"`
	City SetlistCity `json:"city"`
}

type SetlistCity struct {
	Name    string         `json:"name"`
	Country SetlistCountry `json:"country"`
}

type SetlistCountry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type SetlistSets struct {
	Set []SetlistSet `json:"set"`
}

type SetlistSet struct {
	Name   string        `json:"name,omitempty"`
	Encore int           `json:"encore,omitempty"`
	Song   []SetlistSong `json:"song"`
}

type SetlistSong struct {
	Name  string         `json:"name"`
	Tape  bool           `json:"tape,omitempty"`
	Cover *SetlistArtist `json:"cover,omitempty"`
	With  *SetlistArtist `json:"with,omitempty"`
	Info  string         `json:"info,omitempty"`
}
