package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"setlistify/internal/cache"
)

// HealthHandler reports service liveness.
type HealthHandler struct {
	cache cache.Cache
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(searchCache cache.Cache) *HealthHandler {
	return &HealthHandler{
		cache: searchCache,
	}
}

// Health handles GET /health. Cache trouble is reported but not fatal: the
// pipeline works without it.
func (h *HealthHandler) Health(c *gin.Context) {
	cacheStatus := "ok"
	if h.cache != nil {
		if err := h.cache.Health(c.Request.Context()); err != nil {
			cacheStatus = "unavailable"
		}
	} else {
		cacheStatus = "disabled"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "setlistify",
		"cache":   cacheStatus,
	})
}
