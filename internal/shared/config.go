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
	Sync        SyncConfig        `toml:"sync"`
	Ledger      LedgerConfig      `toml:"ledger"`
	Database    DatabaseConfig    `toml:"database"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// YouTubeConfig contains YouTube Music proxy settings.
type YouTubeConfig struct {
	ProxyURL string `toml:"proxy_url"`
	AuthFile string `toml:"auth_file"`
}

// SyncConfig contains reconciliation tunables. The duration tolerance and
// search limit are product knobs, not engineering invariants, so they live
// in config rather than as hard-coded constants.
type SyncConfig struct {
	PlaylistPrefix      string  `toml:"playlist_prefix"`
	DurationToleranceMS int     `toml:"duration_tolerance_ms"`
	SearchLimit         int     `toml:"search_limit"`
	AddBatchSize        int     `toml:"add_batch_size"`
	BackoffBaseSeconds  int     `toml:"backoff_base_seconds"`
	BackoffMaxSeconds   int     `toml:"backoff_max_seconds"`
	RateLimit           float64 `toml:"rate_limit"`
}

// BackoffBase returns the initial throttling backoff as a [time.Duration].
func (s SyncConfig) BackoffBase() time.Duration {
	return time.Duration(s.BackoffBaseSeconds) * time.Second
}

// BackoffMax returns the backoff ceiling as a [time.Duration].
func (s SyncConfig) BackoffMax() time.Duration {
	return time.Duration(s.BackoffMaxSeconds) * time.Second
}

// LedgerConfig contains the failure ledger location.
type LedgerConfig struct {
	Path string `toml:"path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
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
