package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Credentials CredentialsConfig `toml:"credentials"`
	Banner      BannerConfig      `toml:"banner"`
	Database    DatabaseConfig    `toml:"database"`
}

// ServerConfig points at the CineSync WebDavHub backend.
type ServerConfig struct {
	BaseURL string        `toml:"base_url"`
	Timeout time.Duration `toml:"timeout"`
}

// CredentialsConfig contains third-party metadata provider credentials.
type CredentialsConfig struct {
	Fanart FanartConfig `toml:"fanart"`
	TMDB   TMDBConfig   `toml:"tmdb"`
}

// FanartConfig contains Fanart.tv API settings.
type FanartConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// TMDBConfig contains TMDB API settings.
//
// ReadAccessToken is the v4 bearer token; when set it takes precedence over the v3 APIKey.
type TMDBConfig struct {
	APIKey          string `toml:"api_key"`
	ReadAccessToken string `toml:"read_access_token"`
	BaseURL         string `toml:"base_url"`
}

// BannerConfig tunes banner lookups and the periodic refresh.
type BannerConfig struct {
	Selection       string        `toml:"selection"` // first or random
	Seed            uint64        `toml:"seed"`
	RefreshInterval time.Duration `toml:"refresh_interval"`
	RateLimit       float64       `toml:"rate_limit"`
	MaxAttempts     int           `toml:"max_attempts"`
	Cache           bool          `toml:"cache"`
	CacheTTL        time.Duration `toml:"cache_ttl"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
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

// LoadEnv loads .env style files into the process environment without overriding variables that are already set.
//
// Missing files are skipped; a file that exists but cannot be parsed is an error.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv fills credentials the config leaves empty or at a placeholder from the environment.
//
// CINESYNC_API_URL always overrides the backend URL. lookup defaults to [os.LookupEnv].
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	get := func(names ...string) string {
		for _, n := range names {
			if v, ok := lookup(n); ok && strings.TrimSpace(v) != "" {
				return v
			}
		}
		return ""
	}

	if v := get("CINESYNC_API_URL"); v != "" {
		c.Server.BaseURL = strings.TrimRight(v, "/")
	}

	c.Credentials.Fanart.APIKey = FirstKey(c.Credentials.Fanart.APIKey, get("FANART_API_KEY", "VITE_FANART_API_KEY"))
	c.Credentials.TMDB.APIKey = FirstKey(c.Credentials.TMDB.APIKey, get("TMDB_API_KEY", "VITE_TMDB_API_KEY"))
	c.Credentials.TMDB.ReadAccessToken = FirstKey(c.Credentials.TMDB.ReadAccessToken, get("TMDB_READ_ACCESS_TOKEN"))
}

// FanartConfigured reports whether a usable Fanart.tv key is present.
func (c *Config) FanartConfigured() bool {
	return !IsPlaceholderKey(c.Credentials.Fanart.APIKey)
}

// TMDBConfigured reports whether either TMDB credential is usable.
func (c *Config) TMDBConfigured() bool {
	return !IsPlaceholderKey(c.Credentials.TMDB.APIKey) || !IsPlaceholderKey(c.Credentials.TMDB.ReadAccessToken)
}
