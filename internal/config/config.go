package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/language"
)

// Config holds all configuration for the application.
type Config struct {
	// PDS is the base URL of the account's personal data server.
	PDS string

	// Handle selects the saved account to sign in with. The app password is
	// read from the credential store, never from Config.
	Handle string

	// Port is the HTTP server port.
	Port int

	// DatabasePath is the SQLite file holding saved accounts, feed
	// snapshots and stream cursors.
	DatabasePath string

	// FirehoseURL is the Jetstream WebSocket endpoint.
	FirehoseURL string

	// Locale picks label names and descriptions from labeler definitions.
	Locale language.Tag

	// PageSize is the number of items requested per feed page.
	PageSize int

	// RateLimit caps protocol requests per second. Zero disables limiting.
	RateLimit float64

	LabelerCacheTTL time.Duration

	// FanoutLimit caps concurrent item processing per page. Zero means
	// unlimited.
	FanoutLimit int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		PDS:             "https://bsky.social",
		Handle:          getenv("BLUESKY_HANDLE"),
		Port:            3000,
		DatabasePath:    "skygazer.db",
		FirehoseURL:     "wss://jetstream2.us-east.bsky.network/subscribe",
		Locale:          language.English,
		PageSize:        30,
		RateLimit:       10,
		LabelerCacheTTL: 30 * time.Minute,
	}

	if v := getenv("BLUESKY_PDS"); v != "" {
		cfg.PDS = v
	}
	if v := getenv("SKYGAZER_DB"); v != "" {
		cfg.DatabasePath = v
	}
	if v := getenv("SKYGAZER_FIREHOSE_URL"); v != "" {
		cfg.FirehoseURL = v
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.Port = port
	}

	if v := getenv("SKYGAZER_LOCALE"); v != "" {
		tag, err := language.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SKYGAZER_LOCALE: %w", err)
		}
		cfg.Locale = tag
	}

	if v := getenv("SKYGAZER_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SKYGAZER_PAGE_SIZE: %w", err)
		}
		if n < 1 || n > 100 {
			return nil, fmt.Errorf("SKYGAZER_PAGE_SIZE must be between 1 and 100, got %d", n)
		}
		cfg.PageSize = n
	}

	if v := getenv("SKYGAZER_RATE_LIMIT"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SKYGAZER_RATE_LIMIT: %w", err)
		}
		if r < 0 {
			return nil, fmt.Errorf("SKYGAZER_RATE_LIMIT must not be negative, got %v", r)
		}
		cfg.RateLimit = r
	}

	if v := getenv("SKYGAZER_LABELER_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SKYGAZER_LABELER_CACHE_TTL: %w", err)
		}
		cfg.LabelerCacheTTL = d
	}

	if v := getenv("SKYGAZER_FANOUT_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SKYGAZER_FANOUT_LIMIT: %w", err)
		}
		if n < 0 {
			return nil, fmt.Errorf("SKYGAZER_FANOUT_LIMIT must not be negative, got %d", n)
		}
		cfg.FanoutLimit = n
	}

	return cfg, nil
}
