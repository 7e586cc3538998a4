package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	AdminUser     string
	AdminPassword string

	DatabaseURL string

	ListenAddr string

	// InternalAPIKey is a bearer token owned by the bootstrap admin so
	// other services can push feature updates without a settings visit.
	// If empty, no key is provisioned at startup.
	InternalAPIKey string

	// ChannelsURL serves the current release channels as JSON
	// ({"stable":{"version":N}, ...}).
	ChannelsURL string

	// DefaultMilestone is used when the channel endpoint is unreachable and
	// nothing is cached yet. Zero disables the fallback.
	DefaultMilestone int

	ChannelRefresh time.Duration

	// SummaryHorizon is how many milestones past stable the summary worker
	// precomputes.
	SummaryHorizon int

	// LogFile enables rotated JSON logs when set.
	LogFile string

	// Env is "production" or "development".
	Env string
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		AdminUser:      getenv("APP_ADMIN_USER", "admin"),
		AdminPassword:  getenv("APP_ADMIN_PASSWORD", "changeme"),
		DatabaseURL:    os.Getenv("APP_DATABASE_URL"),
		ListenAddr:     getenv("APP_LISTEN_ADDR", ":8080"),
		InternalAPIKey: getenv("APP_INTERNAL_API_KEY", ""),
		ChannelsURL:    getenv("APP_CHANNELS_URL", "https://chromestatus.com/api/v0/channels"),
		ChannelRefresh: 30 * time.Minute,
		SummaryHorizon: 3,
		LogFile:        os.Getenv("APP_LOG_FILE"),
		Env:            getenv("APP_ENV", "development"),
	}

	if v := os.Getenv("APP_DEFAULT_MILESTONE"); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m > 0 {
			cfg.DefaultMilestone = m
		}
	}

	if v := os.Getenv("APP_CHANNEL_REFRESH_MINUTES"); v != "" {
		if mins, err := strconv.Atoi(v); err == nil && mins > 0 {
			cfg.ChannelRefresh = time.Duration(mins) * time.Minute
		}
	}

	if v := os.Getenv("APP_SUMMARY_HORIZON"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.SummaryHorizon = n
		}
	}

	return cfg
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
