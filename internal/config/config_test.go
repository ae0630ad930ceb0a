package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(env(nil))
	require.NoError(t, err)

	assert.Equal(t, "https://bsky.social", cfg.PDS)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "skygazer.db", cfg.DatabasePath)
	assert.Equal(t, language.English, cfg.Locale)
	assert.Equal(t, 30, cfg.PageSize)
	assert.Equal(t, 10.0, cfg.RateLimit)
	assert.Equal(t, 30*time.Minute, cfg.LabelerCacheTTL)
	assert.Zero(t, cfg.FanoutLimit)
	assert.Empty(t, cfg.Handle)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(env(map[string]string{
		"BLUESKY_PDS":                "https://pds.example",
		"BLUESKY_HANDLE":             "alice.test",
		"PORT":                       "8080",
		"SKYGAZER_DB":                ":memory:",
		"SKYGAZER_FIREHOSE_URL":      "ws://localhost:6008/subscribe",
		"SKYGAZER_LOCALE":            "pt-BR",
		"SKYGAZER_PAGE_SIZE":         "50",
		"SKYGAZER_RATE_LIMIT":        "0",
		"SKYGAZER_LABELER_CACHE_TTL": "5m",
		"SKYGAZER_FANOUT_LIMIT":      "8",
	}))
	require.NoError(t, err)

	assert.Equal(t, &Config{
		PDS:             "https://pds.example",
		Handle:          "alice.test",
		Port:            8080,
		DatabasePath:    ":memory:",
		FirehoseURL:     "ws://localhost:6008/subscribe",
		Locale:          language.MustParse("pt-BR"),
		PageSize:        50,
		RateLimit:       0,
		LabelerCacheTTL: 5 * time.Minute,
		FanoutLimit:     8,
	}, cfg)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PORT", "http"},
		{"SKYGAZER_LOCALE", "not a locale!"},
		{"SKYGAZER_PAGE_SIZE", "0"},
		{"SKYGAZER_PAGE_SIZE", "101"},
		{"SKYGAZER_PAGE_SIZE", "many"},
		{"SKYGAZER_RATE_LIMIT", "-1"},
		{"SKYGAZER_RATE_LIMIT", "fast"},
		{"SKYGAZER_LABELER_CACHE_TTL", "30"},
		{"SKYGAZER_FANOUT_LIMIT", "-2"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			_, err := load(env(map[string]string{tt.key: tt.value}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
