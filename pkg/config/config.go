package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// CursorFormatString sends the search cursor as a base64 JSON blob
	CursorFormatString = "string"
	// CursorFormatParams sends the search cursor as discrete query parameters
	CursorFormatParams = "params"

	envPrefix = "OSUDL_"
)

// Config holds all configuration options for the beatmap downloader
type Config struct {
	// osu! website settings
	Osu OsuConfig `yaml:"osu" json:"osu"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics export
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// OsuConfig holds the target site and its protocol variant
type OsuConfig struct {
	BaseURL      string `yaml:"base_url" json:"base_url"`
	CursorFormat string `yaml:"cursor_format" json:"cursor_format"`
	CSRFToken    bool   `yaml:"csrf_token" json:"csrf_token"`
	UserAgent    string `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds outbound request limiting
type RateLimitConfig struct {
	// RequestsPerMinute of 0 disables limiting
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds the local library location
type OutputConfig struct {
	LibraryRoot string `yaml:"library_root" json:"library_root"`
}

// DownloadConfig holds scrape and download loop settings
type DownloadConfig struct {
	Limit                  int           `yaml:"limit" json:"limit"`
	NoVideo                bool          `yaml:"no_video" json:"no_video"`
	PacingDelay            time.Duration `yaml:"pacing_delay" json:"pacing_delay"`
	MaxConsecutiveFailures int           `yaml:"max_consecutive_failures" json:"max_consecutive_failures"`
	Timeout                time.Duration `yaml:"timeout" json:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// MetricsConfig holds metrics export settings
type MetricsConfig struct {
	// Textfile is written in Prometheus text format when the session closes
	Textfile string `yaml:"textfile" json:"textfile"`
}

// HomeDir returns the per-user data directory ($OSUDL_HOME or ~/.osu-beatmap-downloader)
func HomeDir() (string, error) {
	if dir := os.Getenv(envPrefix + "HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".osu-beatmap-downloader"), nil
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	logFile := ""
	if dir, err := HomeDir(); err == nil {
		logFile = filepath.Join(dir, "downloader.log")
	}

	return &Config{
		Osu: OsuConfig{
			BaseURL:      "https://osu.ppy.sh",
			CursorFormat: CursorFormatString,
			CSRFToken:    true,
			UserAgent:    "osudl/1.0",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Output: OutputConfig{
			LibraryRoot: ".",
		},
		Download: DownloadConfig{
			Limit:                  200,
			NoVideo:                false,
			PacingDelay:            2 * time.Second,
			MaxConsecutiveFailures: 4,
			Timeout:                60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv(envPrefix + "BASE_URL"); v != "" {
		c.Osu.BaseURL = v
	}
	if v := os.Getenv(envPrefix + "CURSOR_FORMAT"); v != "" {
		c.Osu.CursorFormat = strings.ToLower(v)
	}
	if v := os.Getenv(envPrefix + "CSRF_TOKEN"); v != "" {
		c.Osu.CSRFToken = strings.ToLower(v) == "true"
	}
	if v := os.Getenv(envPrefix + "USER_AGENT"); v != "" {
		c.Osu.UserAgent = v
	}
	if v := os.Getenv(envPrefix + "REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREQUESTS_PER_MINUTE: %w", envPrefix, err))
		} else {
			c.RateLimit.RequestsPerMinute = n
		}
	}
	if v := os.Getenv(envPrefix + "LIBRARY_ROOT"); v != "" {
		c.Output.LibraryRoot = v
	}
	if v := os.Getenv(envPrefix + "LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sLIMIT: %w", envPrefix, err))
		} else {
			c.Download.Limit = n
		}
	}
	if v := os.Getenv(envPrefix + "NO_VIDEO"); v != "" {
		c.Download.NoVideo = strings.ToLower(v) == "true"
	}
	if v := os.Getenv(envPrefix + "PACING_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sPACING_DELAY: %w", envPrefix, err))
		} else {
			c.Download.PacingDelay = d
		}
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv(envPrefix + "LOG_FILE"); ok {
		c.Logging.File = v
	}
	if v := os.Getenv(envPrefix + "METRICS_TEXTFILE"); v != "" {
		c.Metrics.Textfile = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".osudl.yaml",
		".osudl.yml",
	}
	if dir, err := HomeDir(); err == nil {
		locations = append(locations,
			filepath.Join(dir, "config.yaml"),
			filepath.Join(dir, "config.yml"),
		)
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Osu.BaseURL == "" {
		errs = append(errs, errors.New("osu base URL is required"))
	}
	switch c.Osu.CursorFormat {
	case CursorFormatString, CursorFormatParams:
	default:
		errs = append(errs, fmt.Errorf("invalid cursor format %q (want %q or %q)", c.Osu.CursorFormat, CursorFormatString, CursorFormatParams))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	if c.Output.LibraryRoot == "" {
		errs = append(errs, errors.New("library root is required"))
	}

	if c.Download.Limit <= 0 {
		errs = append(errs, errors.New("download limit must be positive"))
	}
	if c.Download.PacingDelay <= 0 {
		errs = append(errs, errors.New("pacing delay must be positive"))
	}
	if c.Download.MaxConsecutiveFailures <= 0 {
		errs = append(errs, errors.New("max consecutive failures must be positive"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if limit, ok := flags["limit"].(int); ok {
		c.Download.Limit = limit
	}
	if noVideo, ok := flags["no-video"].(bool); ok && noVideo {
		c.Download.NoVideo = true
	}
	if root, ok := flags["library-root"].(string); ok && root != "" {
		c.Output.LibraryRoot = root
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	if dir, err := HomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(dir, ".env"))
	}

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
