package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "pt-PT", cfg.Browser.Locale)
	assert.Equal(t, "Europe/Lisbon", cfg.Browser.TimezoneID)
	assert.Equal(t, "worten_scraper", cfg.Database.DBName)
	assert.False(t, cfg.Redis.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("BROWSER_HEADLESS", "true")
	t.Setenv("SCRAPER_RATE_LIMIT_MIN", "7s")
	t.Setenv("SCRAPER_BATCH_LIMIT", "25")
	t.Setenv("REDIS_ENABLED", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 7*time.Second, cfg.Scraper.RateLimitMin)
	assert.Equal(t, 25, cfg.Scraper.BatchLimit)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SCRAPER_RATE_LIMIT_MIN", "soon")
	t.Setenv("DB_PORT", "not-a-port")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Scraper.RateLimitMin)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Scraper.RateLimitMin = 10 * time.Second
	cfg.Scraper.RateLimitMax = 5 * time.Second
	assert.Error(t, cfg.Validate())

	cfg.Scraper.RateLimitMax = 20 * time.Second
	cfg.Spreadsheet.InputPath = ""
	assert.Error(t, cfg.Validate())
}
