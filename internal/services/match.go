package services

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MatchConfidence describes how certain the matcher is that a catalog track
// represents a setlist entry.
type MatchConfidence string

const (
	ConfidenceExact    MatchConfidence = "exact"
	ConfidencePartial  MatchConfidence = "partial"
	ConfidenceNotFound MatchConfidence = "not_found"
)

// tokenOverlapThreshold is the fraction of the target's tokens that must
// appear in a candidate's token set for a partial match. Tuned together with
// the containment rule; do not retune one without the other.
const tokenOverlapThreshold = 0.8

// matchCandidateLimit is how many candidates each catalog query requests.
const matchCandidateLimit = 5

// MatchResult pairs a candidate track with the matcher's confidence in it.
type MatchResult struct {
	Track      *TrackInfo
	Confidence MatchConfidence
}

// diacriticStripper decomposes to NFD and drops combining marks, so "Tití"
// and "Titi" normalize identically.
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeName prepares a song name for comparison: lowercase, diacritics
// stripped, every run of non-letter non-digit runes collapsed to a single
// space. Non-Latin scripts keep their letters so two distinct titles never
// collapse to the same string. Idempotent.
func normalizeName(name string) string {
	lowered := strings.ToLower(name)
	if stripped, _, err := transform.String(diacriticStripper, lowered); err == nil {
		lowered = stripped
	}

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// confidenceBetween compares two already-normalized names: Exact when equal,
// Partial on substring containment in either direction or when at least
// tokenOverlapThreshold of the target's tokens appear in the candidate. A
// name that normalized to nothing matches only another empty name; the empty
// string is a substring of everything and must not grant Partial.
func confidenceBetween(target, candidate string) MatchConfidence {
	if target == candidate {
		return ConfidenceExact
	}

	if target == "" || candidate == "" {
		return ConfidenceNotFound
	}

	if strings.Contains(target, candidate) || strings.Contains(candidate, target) {
		return ConfidencePartial
	}

	targetTokens := strings.Fields(target)
	if len(targetTokens) == 0 {
		return ConfidenceNotFound
	}

	candidateTokens := make(map[string]bool)
	for _, token := range strings.Fields(candidate) {
		candidateTokens[token] = true
	}

	overlap := 0
	for _, token := range targetTokens {
		if candidateTokens[token] {
			overlap++
		}
	}

	if float64(overlap)/float64(len(targetTokens)) >= tokenOverlapThreshold {
		return ConfidencePartial
	}

	return ConfidenceNotFound
}

// pickBestCandidate applies the tiered confidence rules to a candidate list.
// An exact normalized-name match wins outright; otherwise the most popular
// partial; otherwise the first candidate is kept at not_found confidence for
// manual review. Returns nil only for an empty list.
func pickBestCandidate(candidates []*TrackInfo, songName string) *MatchResult {
	if len(candidates) == 0 {
		return nil
	}

	target := normalizeName(songName)

	for _, candidate := range candidates {
		if normalizeName(candidate.Title) == target {
			return &MatchResult{Track: candidate, Confidence: ConfidenceExact}
		}
	}

	var best *TrackInfo
	for _, candidate := range candidates {
		if confidenceBetween(target, normalizeName(candidate.Title)) != ConfidencePartial {
			continue
		}
		if best == nil || candidate.Popularity > best.Popularity {
			best = candidate
		}
	}
	if best != nil {
		return &MatchResult{Track: best, Confidence: ConfidencePartial}
	}

	return &MatchResult{Track: candidates[0], Confidence: ConfidenceNotFound}
}

// matchSong resolves one raw song name against the catalog: an artist-scoped
// search first, then a name-only fallback for covers and collaborations where
// the credited artist differs from the hint. Each query completes or fails
// independently; a nil result means neither query produced any candidate.
func (s *EnrichmentService) matchSong(ctx context.Context, songName, artistHint string) *MatchResult {
	first := s.searchAndPick(ctx, SearchQuery{
		Title:  songName,
		Artist: artistHint,
		Limit:  matchCandidateLimit,
	}, songName)
	if first != nil && first.Confidence != ConfidenceNotFound {
		return first
	}

	second := s.searchAndPick(ctx, SearchQuery{
		Query: songName,
		Limit: matchCandidateLimit,
	}, songName)
	if second != nil {
		return second
	}

	return first
}

func (s *EnrichmentService) searchAndPick(ctx context.Context, query SearchQuery, songName string) *MatchResult {
	candidates, err := s.catalog.SearchTrack(ctx, query)
	if err != nil {
		slog.Warn("Catalog search failed", "song", songName, "error", err)
		return nil
	}

	return pickBestCandidate(candidates, songName)
}
