package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"setlistify/internal/cache"
	"setlistify/internal/config"
	"setlistify/internal/handlers"
	"setlistify/internal/services"
)

func main() {
	// Load .env file for local development
	_ = godotenv.Load()

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	gin.SetMode(cfg.GinMode)

	// Search cache: shared Valkey when configured, process-local otherwise.
	var searchCache cache.Cache
	if cfg.ValkeyURL != "" {
		searchCache, err = cache.NewValkeyCache(cfg.ValkeyURL)
		if err != nil {
			slog.Error("Failed to connect to Valkey", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("VALKEY_URL not set, using in-memory search cache")
		searchCache = cache.NewMemoryCache(1000)
	}
	defer searchCache.Close()

	if !cfg.HasSetlistFMCredentials() {
		slog.Warn("SETLISTFM_API_KEY not set, enrichment requests will fail")
	}
	if !cfg.HasSpotifyCredentials() {
		slog.Warn("Spotify credentials not set, enrichment requests will fail")
	}

	// Wire the pipeline
	setlistService := services.NewSetlistFMService(cfg.SetlistFMAPIKey)
	spotifyService := services.NewSpotifyService(cfg.SpotifyClientID, cfg.SpotifyClientSecret, searchCache)
	enrichmentService := services.NewEnrichmentService(setlistService, spotifyService)

	enrichHandler := handlers.NewEnrichHandler(enrichmentService)
	healthHandler := handlers.NewHealthHandler(searchCache)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), handlers.CORSMiddleware())

	router.GET("/health", healthHandler.Health)

	api := router.Group("/api/v1")
	{
		api.POST("/setlists/enrich", enrichHandler.EnrichSetlist)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Forced shutdown", "error", err)
	}

	slog.Info("Server exited")
}
