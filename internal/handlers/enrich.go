package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"setlistify/internal/services"
)

// SetlistEnricher is the enrichment pipeline the handler drives.
type SetlistEnricher interface {
	EnrichSetlist(ctx context.Context, rawInput, artistHint string) (*services.EnrichmentResult, error)
}

// EnrichSetlistRequest represents the request to enrich a setlist.
type EnrichSetlistRequest struct {
	URL        string `json:"url"`
	ArtistName string `json:"artist_name"` // optional: overrides the upstream artist as search hint
}

// EnrichHandler handles setlist enrichment requests
type EnrichHandler struct {
	enricher SetlistEnricher
}

// NewEnrichHandler creates a new enrichment handler
func NewEnrichHandler(enricher SetlistEnricher) *EnrichHandler {
	return &EnrichHandler{
		enricher: enricher,
	}
}

// EnrichSetlist handles POST /api/v1/setlists/enrich
func (h *EnrichHandler) EnrichSetlist(c *gin.Context) {
	var req EnrichSetlistRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "URL is required",
		})
		return
	}

	result, err := h.enricher.EnrichSetlist(c.Request.Context(), req.URL, req.ArtistName)
	if err != nil {
		h.renderError(c, req.URL, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// renderError maps pipeline errors onto the HTTP taxonomy: bad input 400,
// missing setlist 404, provider failures 502, configuration problems 500.
func (h *EnrichHandler) renderError(c *gin.Context, url string, err error) {
	var upstreamErr *services.UpstreamError

	switch {
	case errors.Is(err, services.ErrInvalidSetlistID):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "could not extract a setlist ID from the provided URL",
		})

	case errors.Is(err, services.ErrSetlistNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "setlist not found on setlist.fm",
		})

	case errors.As(err, &upstreamErr):
		slog.Error("Upstream provider error", "url", url, "provider", upstreamErr.Provider, "status", upstreamErr.StatusCode)
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   upstreamErr.Error(),
		})

	case errors.Is(err, services.ErrMissingCredentials):
		slog.Error("Provider credentials missing", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "provider credentials are not configured",
		})

	default:
		slog.Error("Failed to enrich setlist", "url", url, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "internal error",
		})
	}
}
