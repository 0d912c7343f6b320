package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OSUDL_HOME", "/tmp/osudl-home")
	config := DefaultConfig()

	if config.Download.Limit != 200 {
		t.Errorf("Expected default limit to be 200, got %d", config.Download.Limit)
	}
	if config.Download.PacingDelay != 2*time.Second {
		t.Errorf("Expected default pacing delay to be 2s, got %s", config.Download.PacingDelay)
	}
	if config.Download.MaxConsecutiveFailures != 4 {
		t.Errorf("Expected default failure threshold to be 4, got %d", config.Download.MaxConsecutiveFailures)
	}
	assert.Equal(t, "https://osu.ppy.sh", config.Osu.BaseURL)
	assert.Equal(t, CursorFormatString, config.Osu.CursorFormat)
	assert.True(t, config.Osu.CSRFToken)
	assert.Equal(t, ".", config.Output.LibraryRoot)
	assert.Equal(t, filepath.Join("/tmp/osudl-home", "downloader.log"), config.Logging.File)
	assert.NoError(t, config.Validate())
}

func TestHomeDir(t *testing.T) {
	t.Setenv("OSUDL_HOME", "")
	t.Setenv("HOME", "/home/player")

	dir, err := HomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/player", ".osu-beatmap-downloader"), dir)

	t.Setenv("OSUDL_HOME", "/srv/osudl")
	dir, err = HomeDir()
	require.NoError(t, err)
	assert.Equal(t, "/srv/osudl", dir)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("OSUDL_BASE_URL", "http://127.0.0.1:8080")
	t.Setenv("OSUDL_CURSOR_FORMAT", "PARAMS")
	t.Setenv("OSUDL_CSRF_TOKEN", "false")
	t.Setenv("OSUDL_REQUESTS_PER_MINUTE", "30")
	t.Setenv("OSUDL_LIBRARY_ROOT", "/games/osu/Songs")
	t.Setenv("OSUDL_LIMIT", "50")
	t.Setenv("OSUDL_NO_VIDEO", "true")
	t.Setenv("OSUDL_PACING_DELAY", "500ms")
	t.Setenv("OSUDL_LOG_LEVEL", "debug")
	t.Setenv("OSUDL_LOG_FILE", "")
	t.Setenv("OSUDL_METRICS_TEXTFILE", "/tmp/osudl.prom")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "http://127.0.0.1:8080", config.Osu.BaseURL)
	assert.Equal(t, CursorFormatParams, config.Osu.CursorFormat)
	assert.False(t, config.Osu.CSRFToken)
	assert.Equal(t, 30, config.RateLimit.RequestsPerMinute)
	assert.Equal(t, "/games/osu/Songs", config.Output.LibraryRoot)
	assert.Equal(t, 50, config.Download.Limit)
	assert.True(t, config.Download.NoVideo)
	assert.Equal(t, 500*time.Millisecond, config.Download.PacingDelay)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Empty(t, config.Logging.File)
	assert.Equal(t, "/tmp/osudl.prom", config.Metrics.Textfile)
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("OSUDL_LIMIT", "lots")
	t.Setenv("OSUDL_PACING_DELAY", "soon")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OSUDL_LIMIT")
	assert.Contains(t, err.Error(), "OSUDL_PACING_DELAY")
	assert.Equal(t, 200, config.Download.Limit)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"empty base url", func(c *Config) { c.Osu.BaseURL = "" }, "base URL"},
		{"unknown cursor format", func(c *Config) { c.Osu.CursorFormat = "json" }, "cursor format"},
		{"zero limit", func(c *Config) { c.Download.Limit = 0 }, "limit must be positive"},
		{"negative rate", func(c *Config) { c.RateLimit.RequestsPerMinute = -1 }, "requests per minute"},
		{"negative pacing", func(c *Config) { c.Download.PacingDelay = -time.Second }, "pacing delay"},
		{"zero pacing", func(c *Config) { c.Download.PacingDelay = 0 }, "pacing delay must be positive"},
		{"negative threshold", func(c *Config) { c.Download.MaxConsecutiveFailures = -1 }, "max consecutive failures"},
		{"zero threshold", func(c *Config) { c.Download.MaxConsecutiveFailures = 0 }, "max consecutive failures must be positive"},
		{"no timeout", func(c *Config) { c.Download.Timeout = 0 }, "timeout"},
		{"empty library root", func(c *Config) { c.Output.LibraryRoot = "" }, "library root"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	original := DefaultConfig()
	original.Osu.CursorFormat = CursorFormatParams
	original.Download.Limit = 25
	original.Download.NoVideo = true
	original.Output.LibraryRoot = "/songs"
	require.NoError(t, original.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, original, loaded)
}

func TestLoadFromFileMissingDefaultIsNotAnError(t *testing.T) {
	t.Setenv("OSUDL_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	config := DefaultConfig()
	assert.NoError(t, config.LoadFromFile(""))
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("download: [unterminated"), 0644))

	config := DefaultConfig()
	err := config.LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadPrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("OSUDL_HOME", home)
	t.Chdir(t.TempDir())

	yaml := []byte("download:\n  limit: 10\n  no_video: false\noutput:\n  library_root: /from/file\nlogging:\n  level: warn\n")
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), yaml, 0644))

	t.Setenv("OSUDL_LIBRARY_ROOT", "/from/env")
	t.Setenv("OSUDL_LOG_FILE", "")

	config, err := Load("", map[string]interface{}{
		"limit":    75,
		"no-video": true,
	})
	require.NoError(t, err)

	assert.Equal(t, 75, config.Download.Limit)
	assert.True(t, config.Download.NoVideo)
	assert.Equal(t, "/from/env", config.Output.LibraryRoot)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("OSUDL_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("OSUDL_CURSOR_FORMAT", "bogus")

	_, err := Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestLoadRejectsNonPositiveLimitFlag(t *testing.T) {
	t.Setenv("OSUDL_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	for _, limit := range []int{0, -3} {
		_, err := Load("", map[string]interface{}{"limit": limit})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "download limit must be positive")
	}
}
