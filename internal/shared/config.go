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
	Providers   ProvidersConfig   `toml:"providers"`
	Import      ImportConfig      `toml:"import"`
	Cache       CacheConfig       `toml:"cache"`
	Remote      RemoteConfig      `toml:"remote"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API client credentials used for catalog search.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// Configured reports whether both client id and secret are present.
func (c SpotifyConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
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

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ProvidersConfig configures the metadata provider gateway.
type ProvidersConfig struct {
	Default      string   `toml:"default"`
	Fallback     []string `toml:"fallback"`
	Timeout      Duration `toml:"timeout"`
	ITunesURL    string   `toml:"itunes_url"`
	YTMusicProxy string   `toml:"ytmusic_proxy_url"`
}

// ImportConfig configures the bulk import pipeline.
type ImportConfig struct {
	DelayMS     int  `toml:"delay_ms"`
	SmartMatch  bool `toml:"smart_match"`
	ReportLimit int  `toml:"report_limit"`
}

// Delay returns the inter-request gap as a duration.
func (c ImportConfig) Delay() time.Duration {
	return time.Duration(c.DelayMS) * time.Millisecond
}

// CacheConfig configures the collection cache mirror.
type CacheConfig struct {
	TTL Duration `toml:"ttl"`
}

// RemoteConfig selects the remote-mode song store.
type RemoteConfig struct {
	Backend string `toml:"backend"` // "sqlite" or "postgrest"
	URL     string `toml:"url"`
	AnonKey string `toml:"anon_key"`
}

// Duration is a [time.Duration] that decodes from TOML strings like "1h" or "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Validate checks values that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	switch c.Remote.Backend {
	case "", "sqlite":
	case "postgrest":
		if c.Remote.URL == "" {
			return fmt.Errorf("%w: remote.url is required for the postgrest backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown remote backend %q", ErrInvalidConfig, c.Remote.Backend)
	}
	if c.Import.DelayMS < 0 {
		return fmt.Errorf("%w: import.delay_ms must not be negative", ErrInvalidConfig)
	}
	if c.Cache.TTL.Duration < 0 {
		return fmt.Errorf("%w: cache.ttl must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
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
