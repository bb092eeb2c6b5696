package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Settings holds lectern's runtime configuration.
type Settings struct {
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
	LogFile   string `koanf:"log_file"`

	SessionPath string `koanf:"session_path"`
	PrefsPath   string `koanf:"prefs_path"`

	CacheDriver string `koanf:"cache_driver"`
	CachePath   string `koanf:"cache_path"`
	RedisURL    string `koanf:"redis_url"`

	RequestTimeout   time.Duration `koanf:"request_timeout"`
	SiteInfoTimeout  time.Duration `koanf:"site_info_timeout"`
	AutologinTimeout time.Duration `koanf:"autologin_timeout"`
	FileTimeout      time.Duration `koanf:"file_timeout"`

	// RateLimit is requests per second to the site; zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	MetricsAddr string `koanf:"metrics_addr"`
	UserAgent   string `koanf:"user_agent"`
}

// Cache drivers.
const (
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

const (
	envPrefix = "LECTERN_"

	defaultConfigPath  = "~/.config/lectern/config.toml"
	defaultLogFile     = "~/.local/state/lectern/lectern.log"
	defaultSessionPath = "~/.config/lectern/session.toml"
	defaultPrefsPath   = "~/.config/lectern/prefs.toml"
	defaultCachePath   = "~/.cache/lectern/cache.db"
	defaultUserAgent   = "lectern"
)

// Defaults returns the settings used before any file or environment overlay.
func Defaults() Settings {
	return Settings{
		LogLevel:         "info",
		LogFormat:        "text",
		LogFile:          defaultLogFile,
		SessionPath:      defaultSessionPath,
		PrefsPath:        defaultPrefsPath,
		CacheDriver:      CacheSQLite,
		CachePath:        defaultCachePath,
		RequestTimeout:   15 * time.Second,
		SiteInfoTimeout:  10 * time.Second,
		AutologinTimeout: 8 * time.Second,
		FileTimeout:      10 * time.Second,
		RateLimit:        8,
		RateBurst:        16,
		UserAgent:        defaultUserAgent,
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Load reads the TOML file at path over the defaults, then overlays LECTERN_*
// environment variables. A missing file is not an error.
func Load(path string) (Settings, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Settings{}, err
	}

	k := koanf.New(".")
	cfg := Defaults()

	if _, err := os.Stat(resolved); err == nil {
		if err := k.Load(file.Provider(resolved), TOML()); err != nil {
			return Settings{}, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	} else if !os.IsNotExist(err) {
		return Settings{}, fmt.Errorf("open config: %w", err)
	}

	// LECTERN_CACHE_DRIVER -> cache_driver, etc.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return Settings{}, fmt.Errorf("load env overrides: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

func (c *Settings) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.CacheDriver = strings.ToLower(strings.TrimSpace(c.CacheDriver))
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.MetricsAddr = strings.TrimSpace(c.MetricsAddr)
	c.UserAgent = strings.TrimSpace(c.UserAgent)
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}

	c.LogFile = mustExpand(orDefault(c.LogFile, defaultLogFile))
	c.SessionPath = mustExpand(orDefault(c.SessionPath, defaultSessionPath))
	c.PrefsPath = mustExpand(orDefault(c.PrefsPath, defaultPrefsPath))
	c.CachePath = mustExpand(orDefault(c.CachePath, defaultCachePath))
}

// Validate checks the values that cannot be repaired by defaults.
func (c Settings) Validate() error {
	switch c.CacheDriver {
	case CacheSQLite, CacheNone:
	case CacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("cache_driver redis requires redis_url")
		}
	default:
		return fmt.Errorf("invalid cache_driver %q: must be one of sqlite, redis, none", c.CacheDriver)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q: must be text or json", c.LogFormat)
	}
	for name, d := range map[string]time.Duration{
		"request_timeout":   c.RequestTimeout,
		"site_info_timeout": c.SiteInfoTimeout,
		"autologin_timeout": c.AutologinTimeout,
		"file_timeout":      c.FileTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s must be non-negative", name)
		}
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return fmt.Errorf("rate_limit and rate_burst must be non-negative")
	}
	return nil
}

// LogDir returns the directory holding the log file.
func (c Settings) LogDir() string {
	return filepath.Dir(c.LogFile)
}

func orDefault(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
