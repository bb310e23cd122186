package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions. Environment overrides are applied on Load only and are never
// written back to disk.

const (
	DefaultDateFormat = "Y/m/d"
	DefaultTimezone   = "Asia/Tehran"
	DefaultLang       = "fa"
	DefaultListen     = "127.0.0.1:8080"
	DefaultRunCron    = "5 0 * * *"
	DefaultStorePath  = "events.yaml"
	DefaultFeedCache  = "ics-cache"
)

// Environment variables that override file values.
const (
	EnvDSN      = "JALALIFLOW_DSN"
	EnvTimezone = "JALALIFLOW_TIMEZONE"
	EnvListen   = "JALALIFLOW_LISTEN"
	EnvLogLevel = "LOG_LEVEL"
)

// ICSConfig describes a single ICS holiday feed.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// StoreConfig selects where recurring events are kept.
type StoreConfig struct {
	// Driver is "file" (default) or "mysql".
	Driver string `yaml:"driver" json:"driver"`
	// Path is the YAML file used by the file driver. Relative paths are
	// resolved against the config file's directory.
	Path string `yaml:"path" json:"path"`
	// DSN is the go-sql-driver/mysql data source name.
	DSN string `yaml:"dsn,omitempty" json:"-"`
}

// Config is the top-level application configuration.
type Config struct {
	// DateFormat is the default format string for conversions.
	DateFormat string `yaml:"date_format" json:"date_format"`

	// Timezone is the IANA timezone that defines "today".
	Timezone string `yaml:"timezone" json:"timezone"`

	// Lang is "fa" or "en".
	Lang string `yaml:"lang" json:"lang"`

	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`

	// RunCron is the cron schedule for executing due events in daemon mode.
	RunCron string `yaml:"run_cron" json:"run_cron"`

	Store StoreConfig `yaml:"store" json:"store"`

	// HolidayFeeds are ICS subscriptions imported as custom holidays.
	HolidayFeeds []ICSConfig `yaml:"holiday_feeds" json:"holiday_feeds"`
	// FeedCacheDir keeps the last good body of every feed.
	FeedCacheDir string `yaml:"feed_cache_dir" json:"feed_cache_dir"`

	// CustomHolidays maps "YYYY/MM/DD" to a description.
	CustomHolidays map[string]string `yaml:"custom_holidays" json:"custom_holidays"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		DateFormat:     DefaultDateFormat,
		Timezone:       DefaultTimezone,
		Lang:           DefaultLang,
		Listen:         DefaultListen,
		LogLevel:       "info",
		LogFormat:      "text",
		RunCron:        DefaultRunCron,
		Store:          StoreConfig{Driver: "file", Path: DefaultStorePath},
		HolidayFeeds:   []ICSConfig{},
		FeedCacheDir:   DefaultFeedCache,
		CustomHolidays: map[string]string{},
		BasicAuth:      nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.DateFormat == "" {
		c.DateFormat = DefaultDateFormat
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	switch c.Lang {
	case "fa", "en":
	default:
		c.Lang = DefaultLang
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	switch c.LogLevel {
	case "debug", "info", "error":
	default:
		c.LogLevel = "info"
	}
	if c.LogFormat != "json" {
		c.LogFormat = "text"
	}
	if c.RunCron == "" {
		c.RunCron = DefaultRunCron
	}
	switch c.Store.Driver {
	case "file", "mysql":
	default:
		c.Store.Driver = "file"
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
	if c.HolidayFeeds == nil {
		c.HolidayFeeds = []ICSConfig{}
	}
	if c.FeedCacheDir == "" {
		c.FeedCacheDir = DefaultFeedCache
	}
	if c.CustomHolidays == nil {
		c.CustomHolidays = map[string]string{}
	}
}

// ApplyEnv overrides fields from the process environment. A .env file in
// the working directory is loaded first when present; variables already
// set in the environment win over it.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if v := os.Getenv(EnvDSN); v != "" {
		c.Store.DSN = v
		c.Store.Driver = "mysql"
	}
	if v := os.Getenv(EnvTimezone); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	c.Normalize()
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//   - Environment overrides are applied last in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			cfg.resolvePaths(path)
			return cfg, cfg.ApplyEnv()
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.resolvePaths(path)

	return &cfg, cfg.ApplyEnv()
}

func (c *Config) resolvePaths(configPath string) {
	dir := filepath.Dir(configPath)
	if !filepath.IsAbs(c.Store.Path) {
		c.Store.Path = filepath.Join(dir, c.Store.Path)
	}
	if !filepath.IsAbs(c.FeedCacheDir) {
		c.FeedCacheDir = filepath.Join(dir, c.FeedCacheDir)
	}
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, ".jalaliflow-config-*.tmp")
}

// WriteFileAtomic writes data to path through a temp file in the same
// directory followed by a rename. The result has 0600 permissions.
func WriteFileAtomic(path string, data []byte, pattern string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
