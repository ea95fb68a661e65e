package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application. Provider credentials
// are optional at load time: their absence surfaces as a 500 on the first
// request that needs them, so the operator sees a clear configuration error
// rather than a startup crash loop.
type Config struct {
	// Application settings
	Port    string `envconfig:"PORT" default:"8080"`
	GinMode string `envconfig:"GIN_MODE" default:"debug"`

	// Upstream provider credentials
	SetlistFMAPIKey     string `envconfig:"SETLISTFM_API_KEY"`
	SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET"`

	// Optional shared cache for catalog search responses. When unset, a
	// process-local in-memory cache is used instead.
	ValkeyURL string `envconfig:"VALKEY_URL"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// HasSpotifyCredentials reports whether a client-credentials exchange against
// Spotify can be attempted.
func (c *Config) HasSpotifyCredentials() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}

// HasSetlistFMCredentials reports whether setlist.fm requests can be made.
func (c *Config) HasSetlistFMCredentials() bool {
	return c.SetlistFMAPIKey != ""
}
