package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// EnrichedSong is a flattened setlist entry annotated with its best catalog
// match. Pointer fields serialize to null when no track was resolved.
type EnrichedSong struct {
	Position        int             `json:"position"`
	SetlistFMName   string          `json:"setlistfm_name"`
	Notes           *string         `json:"notes"`
	IsTape          bool            `json:"is_tape"`
	SongName        string          `json:"song_name"`
	ArtistName      *string         `json:"artist_name"`
	SpotifyTrackID  *string         `json:"spotify_track_id"`
	SpotifyURL      *string         `json:"spotify_url"`
	DurationSeconds *int            `json:"duration_seconds"`
	Confidence      MatchConfidence `json:"spotify_confidence"`
}

// MatchStats counts songs per confidence tier. Total always equals
// Exact + Partial + NotFound.
type MatchStats struct {
	Total    int `json:"total"`
	Exact    int `json:"exact"`
	Partial  int `json:"partial"`
	NotFound int `json:"not_found"`
}

// EnrichmentResult is the terminal output of the pipeline.
type EnrichmentResult struct {
	SetlistID  string         `json:"setlist_id"`
	EventDate  string         `json:"event_date"`
	ArtistName string         `json:"artist_name"`
	VenueName  string         `json:"venue_name"`
	City       string         `json:"city"`
	Country    string         `json:"country"`
	SourceURL  string         `json:"source_url"`
	Songs      []EnrichedSong `json:"songs"`
	Stats      MatchStats     `json:"stats"`
}

// EnrichmentService runs the full pipeline: identifier extraction, setlist
// fetch, flattening, concurrent catalog matching, aggregation.
type EnrichmentService struct {
	setlists *SetlistFMService
	catalog  CatalogService
}

// NewEnrichmentService creates the enrichment pipeline.
func NewEnrichmentService(setlists *SetlistFMService, catalog CatalogService) *EnrichmentService {
	return &EnrichmentService{
		setlists: setlists,
		catalog:  catalog,
	}
}

// EnrichSetlist resolves rawInput to a setlist, matches every song against
// the catalog and returns the aggregated result. artistHint overrides the
// setlist's reported artist as the search hint when non-empty.
//
// Extraction failures, fetch failures and missing catalog credentials abort
// the request; per-song matching failures degrade that song to not_found and
// never fail the batch.
func (s *EnrichmentService) EnrichSetlist(ctx context.Context, rawInput, artistHint string) (*EnrichmentResult, error) {
	setlistID, err := ExtractSetlistID(rawInput)
	if err != nil {
		return nil, fmt.Errorf("extracting setlist ID from %q: %w", rawInput, err)
	}

	setlist, err := s.setlists.FetchSetlist(ctx, setlistID)
	if err != nil {
		return nil, err
	}

	// An unconfigured catalog is terminal for the request: without
	// credentials every song would silently degrade to not_found. Transient
	// auth failures are not; those still degrade per song.
	if err := s.catalog.Health(ctx); err != nil && errors.Is(err, ErrMissingCredentials) {
		return nil, err
	}

	hint := artistHint
	if hint == "" {
		hint = setlist.Artist.Name
	}

	flattened := FlattenSetlist(setlist)
	enriched := s.enrichSongs(ctx, flattened, hint)

	slog.Info("Setlist enriched",
		"setlistID", setlist.ID,
		"artist", setlist.Artist.Name,
		"songs", len(enriched))

	return aggregateResult(setlist, enriched), nil
}

// enrichSongs fans one matching task per song out to the catalog and
// reassembles the results in position order. Completion order is irrelevant;
// each task writes only its own index. A failing or panicking task degrades
// its own song and never affects the others.
func (s *EnrichmentService) enrichSongs(ctx context.Context, flattened []FlattenedSong, artistHint string) []EnrichedSong {
	enriched := make([]EnrichedSong, len(flattened))

	var wg sync.WaitGroup
	for i, song := range flattened {
		wg.Add(1)
		go func(i int, song FlattenedSong) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Song match panicked",
						"position", song.Position,
						"song", song.Name,
						"panic", r)
					enriched[i] = unmatchedSong(song, artistHint)
				}
			}()

			enriched[i] = s.enrichSong(ctx, song, artistHint)
		}(i, song)
	}
	wg.Wait()

	return enriched
}

// enrichSong matches a single flattened song. A not_found match still carries
// the unconfirmed candidate's catalog fields for manual review, but the
// resolved name falls back to the raw setlist name.
func (s *EnrichmentService) enrichSong(ctx context.Context, song FlattenedSong, artistHint string) EnrichedSong {
	match := s.matchSong(ctx, song.Name, artistHint)
	if match == nil || match.Track == nil {
		return unmatchedSong(song, artistHint)
	}

	track := match.Track
	songName := track.Title
	if match.Confidence == ConfidenceNotFound {
		songName = song.Name
	}

	artist := track.PrimaryArtist()
	durationSeconds := track.DurationMs / 1000

	return EnrichedSong{
		Position:        song.Position,
		SetlistFMName:   song.Name,
		Notes:           song.Notes,
		IsTape:          song.IsTape,
		SongName:        songName,
		ArtistName:      &artist,
		SpotifyTrackID:  &track.ExternalID,
		SpotifyURL:      &track.URL,
		DurationSeconds: &durationSeconds,
		Confidence:      match.Confidence,
	}
}

// unmatchedSong is the degraded row for a song with no usable catalog result.
func unmatchedSong(song FlattenedSong, artistHint string) EnrichedSong {
	var artist *string
	if artistHint != "" {
		artist = &artistHint
	}

	return EnrichedSong{
		Position:      song.Position,
		SetlistFMName: song.Name,
		Notes:         song.Notes,
		IsTape:        song.IsTape,
		SongName:      song.Name,
		ArtistName:    artist,
		Confidence:    ConfidenceNotFound,
	}
}

// aggregateResult packages setlist metadata with the enriched songs and their
// per-tier counts. Pure function, no I/O.
func aggregateResult(setlist *Setlist, songs []EnrichedSong) *EnrichmentResult {
	stats := MatchStats{Total: len(songs)}
	for _, song := range songs {
		switch song.Confidence {
		case ConfidenceExact:
			stats.Exact++
		case ConfidencePartial:
			stats.Partial++
		default:
			stats.NotFound++
		}
	}

	return &EnrichmentResult{
		SetlistID:  setlist.ID,
		EventDate:  setlist.EventDate,
		ArtistName: setlist.Artist.Name,
		VenueName:  setlist.Venue.Name,
		City:       setlist.Venue.City.Name,
		Country:    setlist.Venue.City.Country.Name,
		SourceURL:  setlist.URL,
		Songs:      songs,
		Stats:      stats,
	}
}
