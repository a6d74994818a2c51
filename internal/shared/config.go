package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Sync        SyncConfig        `toml:"sync"`
	Merge       MergeConfig       `toml:"merge"`
}

// CredentialsConfig contains provider-specific credentials.
type CredentialsConfig struct {
	Discogs    DiscogsConfig    `toml:"discogs"`
	AppleMusic AppleMusicConfig `toml:"apple_music"`
	Spotify    SpotifyConfig    `toml:"spotify"`
	Wikipedia  WikipediaConfig  `toml:"wikipedia"`
}

// DiscogsConfig contains the primary catalog credentials.
type DiscogsConfig struct {
	Token     string `toml:"token"`
	Username  string `toml:"username"`
	UserAgent string `toml:"user_agent"`
	BaseURL   string `toml:"base_url"`
}

// AppleMusicConfig contains the MusicKit developer token inputs.
type AppleMusicConfig struct {
	TeamID         string `toml:"team_id"`
	KeyID          string `toml:"key_id"`
	PrivateKeyPath string `toml:"private_key_path"`
	Storefront     string `toml:"storefront"`
	ArtworkSize    string `toml:"artwork_size"`
	BaseURL        string `toml:"base_url"`
}

// SpotifyConfig contains Spotify client-credentials settings.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	BaseURL      string `toml:"base_url"`
	TokenURL     string `toml:"token_url"`
}

// WikipediaConfig toggles the Wikipedia summary lookup.
type WikipediaConfig struct {
	Enabled   bool   `toml:"enabled"`
	Language  string `toml:"language"`
	UserAgent string `toml:"user_agent"`
	BaseURL   string `toml:"base_url"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// SyncConfig controls the collection walk, pacing, and retry policy.
type SyncConfig struct {
	PageSize                 int      `toml:"page_size"`
	DelaySeconds             float64  `toml:"delay_seconds"`
	MaxAttempts              int      `toml:"max_attempts"`
	RetryDelaySeconds        float64  `toml:"retry_delay_seconds"`
	DefaultRetryAfterSeconds float64  `toml:"default_retry_after_seconds"`
	NumItems                 int      `toml:"num_items"`
	VariousMarkers           []string `toml:"various_markers"`
	Denylist                 []string `toml:"denylist"`
	EmitDir                  string   `toml:"emit_dir"`
}

// MergeConfig controls how enrichment fragments are folded into the canonical record.
type MergeConfig struct {
	Narrative     string   `toml:"narrative"`
	ProviderOrder []string `toml:"provider_order"`
}

// Delay returns the minimum spacing between two requests to the same provider.
func (s SyncConfig) Delay() time.Duration { return seconds(s.DelaySeconds) }

// RetryDelay returns the fixed wait between bounded retries of an unavailable provider.
func (s SyncConfig) RetryDelay() time.Duration { return seconds(s.RetryDelaySeconds) }

// DefaultRetryAfter returns the wait used when a throttled response carries no Retry-After.
func (s SyncConfig) DefaultRetryAfter() time.Duration { return seconds(s.DefaultRetryAfterSeconds) }

func seconds(v float64) time.Duration {
	if v <= 0 {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}

// Validate checks the values the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}
	if c.Sync.PageSize <= 0 || c.Sync.PageSize > 100 {
		return fmt.Errorf("%w: sync.page_size must be between 1 and 100", ErrInvalidConfig)
	}
	if c.Sync.MaxAttempts <= 0 {
		return fmt.Errorf("%w: sync.max_attempts must be positive", ErrInvalidConfig)
	}
	if c.Sync.DelaySeconds < 0 || c.Sync.RetryDelaySeconds < 0 {
		return fmt.Errorf("%w: sync delays cannot be negative", ErrInvalidConfig)
	}
	switch c.Merge.Narrative {
	case "longest", "priority":
	default:
		return fmt.Errorf("%w: merge.narrative must be longest or priority, got %q", ErrInvalidConfig, c.Merge.Narrative)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values absent from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
