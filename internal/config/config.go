// Package config loads client configuration from defaults, a TOML file,
// a .env file and TODO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Default values.
const (
	DefaultBaseURL   = "http://localhost:8080"
	DefaultListPath  = "/allTodos"
	DefaultTheme     = "classic"
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
	DefaultFileName  = "todo.toml"
)

// Config holds the full client configuration.
type Config struct {
	// Backend
	BaseURL  string        `toml:"base_url"`
	ListPath string        `toml:"list_path"`
	Timeout  time.Duration `toml:"timeout"` // zero means no timeout

	// Local snapshot of the last confirmed list
	CacheFile string `toml:"cache_file"`

	// Output
	Theme   string `toml:"theme"` // classic, neon, mono
	NoColor bool   `toml:"no_color"`

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // text, json, logfmt
	LogFile   string `toml:"log_file"`   // used by the TUI; empty discards

	// Path of the file the config was read from (computed)
	Source string `toml:"-"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// Load builds the configuration. Precedence, lowest first: defaults, config
// file, .env, environment. path may be empty to search the usual locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	// .env is optional
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("TODO_CONFIG")
	}
	explicit := path != ""
	if !explicit {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		} else {
			cfg.Source = path
		}
	}

	loadFromEnv(cfg)
	cfg.CacheFile = expandPath(cfg.CacheFile)
	cfg.LogFile = expandPath(cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.BaseURL = DefaultBaseURL
	cfg.ListPath = DefaultListPath
	cfg.Theme = DefaultTheme
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	if dir, err := os.UserCacheDir(); err == nil {
		cfg.CacheFile = filepath.Join(dir, "todo", "todos.json")
	} else {
		cfg.CacheFile = "todos.json"
	}
}

func findConfigFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(dir, "todo", "config.toml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName
	}
	return ""
}

func loadConfigFile(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TODO_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("TODO_LIST_PATH"); v != "" {
		cfg.ListPath = v
	}
	if v := os.Getenv("TODO_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("TODO_CACHE_FILE"); v != "" {
		cfg.CacheFile = v
	}
	if v := os.Getenv("TODO_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("TODO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TODO_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("TODO_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.NoColor = true
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url: missing host")
	}
	if !strings.HasPrefix(c.ListPath, "/") {
		return fmt.Errorf("list_path must start with /: %q", c.ListPath)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	switch strings.ToLower(c.Theme) {
	case "classic", "neon", "mono":
	default:
		return fmt.Errorf("unknown theme %q", c.Theme)
	}
	return nil
}

func expandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
