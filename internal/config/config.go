package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserEmail      string `toml:"user_email"`
}

// PollConfig holds status polling settings.
type PollConfig struct {
	IntervalSeconds int    `toml:"interval_seconds"`
	MaxAttempts     int    `toml:"max_attempts"`
	Backend         string `toml:"backend"`
}

// AuthConfig holds the OAuth2 client settings and the persisted session.
type AuthConfig struct {
	TokenURL     string   `toml:"token_url"`
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	Scopes       []string `toml:"scopes"`
	Token        string   `toml:"token"`
	RefreshToken string   `toml:"refresh_token"`
	IDToken      string   `toml:"id_token"`
	Email        string   `toml:"email"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Config holds all sitedeck configuration.
type Config struct {
	API  APIConfig  `toml:"api"`
	Poll PollConfig `toml:"poll"`
	Auth AuthConfig `toml:"auth"`
	Log  LogConfig  `toml:"log"`
}

const (
	defaultBaseURL         = "http://localhost:3000/dev"
	defaultTimeoutSeconds  = 120
	defaultIntervalSeconds = 5
	defaultMaxAttempts     = 120
	defaultBackend         = "project"
	defaultLogLevel        = "info"
)

// BaseURLOrDefault returns the configured backend URL or the local development default.
func (c Config) BaseURLOrDefault() string {
	if c.API.BaseURL != "" {
		return c.API.BaseURL
	}
	return defaultBaseURL
}

// TokenURLOrDefault returns the configured OAuth2 token endpoint, or the
// backend's own /oauth/token when none is set.
func (c Config) TokenURLOrDefault() string {
	if c.Auth.TokenURL != "" {
		return c.Auth.TokenURL
	}
	return strings.TrimRight(c.BaseURLOrDefault(), "/") + "/oauth/token"
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	if c.API.TimeoutSeconds > 0 {
		return time.Duration(c.API.TimeoutSeconds) * time.Second
	}
	return defaultTimeoutSeconds * time.Second
}

// PollInterval returns the time between status polls.
func (c Config) PollInterval() time.Duration {
	if c.Poll.IntervalSeconds > 0 {
		return time.Duration(c.Poll.IntervalSeconds) * time.Second
	}
	return defaultIntervalSeconds * time.Second
}

// MaxAttemptsOrDefault returns the poll budget of a session.
func (c Config) MaxAttemptsOrDefault() int {
	if c.Poll.MaxAttempts > 0 {
		return c.Poll.MaxAttempts
	}
	return defaultMaxAttempts
}

// BackendOrDefault returns the backend status shape name.
func (c Config) BackendOrDefault() string {
	if c.Poll.Backend != "" {
		return c.Poll.Backend
	}
	return defaultBackend
}

// LogLevelOrDefault returns the configured log level name.
func (c Config) LogLevelOrDefault() string {
	if c.Log.Level != "" {
		return c.Log.Level
	}
	return defaultLogLevel
}

// LogFileOrDefault returns the log file used while the TUI owns the terminal.
func (c Config) LogFileOrDefault() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(DefaultConfigDir(), "sitedeck.log")
}

// LoadFrom reads configuration from the given TOML file path.
// If the file does not exist, it returns an empty config without error.
// A .env file in the working directory is loaded first; real environment
// variables win over it. Environment variables always take precedence over file values:
//   - SITEDECK_API_URL (or VITE_API_URL) overrides api.base_url
//   - SITEDECK_TOKEN                     overrides auth.token
//   - SITEDECK_POLL_INTERVAL             overrides poll.interval_seconds
//   - SITEDECK_BACKEND                   overrides poll.backend
//   - SITEDECK_LOG_LEVEL                 overrides log.level
func LoadFrom(path string) (Config, error) {
	_ = godotenv.Load()

	cfg, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads only what is written in the TOML file at path, without .env
// or environment overrides. A missing file yields an empty config.
func LoadFile(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfigDir returns the directory holding sitedeck's files.
func DefaultConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sitedeck")
}

// DefaultConfigPath returns the default path for the sitedeck config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("VITE_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("SITEDECK_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("SITEDECK_TOKEN"); v != "" {
		cfg.Auth.Token = v
	}
	if v := os.Getenv("SITEDECK_POLL_INTERVAL"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("SITEDECK_POLL_INTERVAL must be a positive number of seconds, got %q", v)
		}
		cfg.Poll.IntervalSeconds = secs
	}
	if v := os.Getenv("SITEDECK_BACKEND"); v != "" {
		cfg.Poll.Backend = v
	}
	if v := os.Getenv("SITEDECK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Save writes cfg to the given TOML file path, creating parent directories as needed.
// Existing file contents are overwritten. Permissions on the written file are 0600.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	if encErr := toml.NewEncoder(f).Encode(cfg); encErr != nil {
		f.Close()
		return encErr
	}
	return f.Close()
}
