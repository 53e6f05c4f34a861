package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is where the server looks for its configuration when no
// path is given on the command line or in JUKEBOX_CONFIG.
const DefaultPath = "config.toml"

// Defaults for the supplemented sections.
const (
	DefaultSyncInterval  = time.Hour
	DefaultSyncRetries   = 3
	DefaultCacheInterval = 6 * time.Hour
	DefaultCachePath     = "cache/coverart"
	DefaultMPDPort       = 6600
	DefaultHTTPPort      = 8080
)

// StoreKind tags the library store implementation.
type StoreKind string

const (
	// StoreMemory keeps the library in process memory only.
	StoreMemory StoreKind = "memory"
	// StoreSQLite persists the library in a SQLite file.
	StoreSQLite StoreKind = "sqlite"
)

// BackendKind tags the playback backend implementation.
type BackendKind string

const (
	// BackendGStreamer plays through GStreamer. It is the default.
	BackendGStreamer BackendKind = "gstreamer"
	// BackendRodio is the native decoder backend.
	BackendRodio BackendKind = "rodio"
)

// Config is the decoded config.toml document.
//
// Every frontend and provider section is optional; a nil pointer means the
// subsystem or provider is disabled.
type Config struct {
	MPD         *MPDConfig         `toml:"mpd"`
	HTTP        *HTTPConfig        `toml:"http"`
	Pocketcasts *PocketcastsConfig `toml:"pocketcasts"`
	Soundcloud  *SoundcloudConfig  `toml:"soundcloud"`
	Spotify     *SpotifyConfig     `toml:"spotify"`
	Local       *LocalConfig       `toml:"local"`
	Library     *LibraryConfig     `toml:"library"`
	Backend     BackendKind        `toml:"backend"`

	Sync  SyncConfig  `toml:"sync"`
	Cache CacheConfig `toml:"cache"`

	LogLevel string `toml:"log_level"`
}

// LibraryConfig selects the library store.
type LibraryConfig struct {
	Store StoreKind `toml:"store"`
	Path  string    `toml:"path"`
}

// MPDConfig configures the MPD frontend.
type MPDConfig struct {
	IP   string `toml:"ip"`
	Port int    `toml:"port"`
}

// Addr returns the listen address.
func (c *MPDConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.IP, c.Port)
}

// HTTPConfig configures the HTTP frontend.
type HTTPConfig struct {
	IP           string `toml:"ip"`
	Port         int    `toml:"port"`
	StaticPath   string `toml:"static_path"`
	PasswordHash string `toml:"password_hash"`
}

// Addr returns the listen address.
func (c *HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.IP, c.Port)
}

// PocketcastsConfig holds pocketcasts account credentials.
type PocketcastsConfig struct {
	Email    string `toml:"email"`
	Password string `toml:"password"`
	BaseURL  string `toml:"base_url"`
}

// SoundcloudConfig holds soundcloud API credentials.
type SoundcloudConfig struct {
	ClientID  string `toml:"client_id"`
	AuthToken string `toml:"auth_token"`
	BaseURL   string `toml:"base_url"`
}

// SpotifyConfig holds spotify client credentials.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	Playlists    []string `toml:"playlists"`
	TokenURL     string   `toml:"token_url"`
	BaseURL      string   `toml:"base_url"`
}

// LocalConfig points the local provider at a music directory.
type LocalConfig struct {
	Path string `toml:"path"`
}

// SyncConfig controls the library sync engine.
type SyncConfig struct {
	Interval   Duration `toml:"interval"`
	MaxRetries int      `toml:"max_retries"`
}

// CacheConfig controls the cover art cache engine.
type CacheConfig struct {
	Path     string   `toml:"path"`
	Interval Duration `toml:"interval"`
}

// Duration decodes TOML strings such as "30m" into a time.Duration.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load reads and decodes the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a TOML document. Unknown keys are rejected so that typos
// surface at startup instead of silently disabling a subsystem.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown configuration keys:\n%s", strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("line %d, column %d: %w", row, col, err)
		}
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills in every value the document left out.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendGStreamer
	}
	if c.Library != nil && c.Library.Store == "" {
		c.Library.Store = StoreMemory
	}
	if c.Sync.Interval.Duration <= 0 {
		c.Sync.Interval.Duration = DefaultSyncInterval
	}
	if c.Sync.MaxRetries <= 0 {
		c.Sync.MaxRetries = DefaultSyncRetries
	}
	if c.Cache.Path == "" {
		c.Cache.Path = DefaultCachePath
	}
	if c.Cache.Interval.Duration <= 0 {
		c.Cache.Interval.Duration = DefaultCacheInterval
	}
	if c.MPD != nil {
		if c.MPD.IP == "" {
			c.MPD.IP = "0.0.0.0"
		}
		if c.MPD.Port == 0 {
			c.MPD.Port = DefaultMPDPort
		}
	}
	if c.HTTP != nil {
		if c.HTTP.IP == "" {
			c.HTTP.IP = "0.0.0.0"
		}
		if c.HTTP.Port == 0 {
			c.HTTP.Port = DefaultHTTPPort
		}
	}
}

// Validate checks values that cannot be fixed by defaults. Store and
// backend tags are deliberately not checked here; the selectors own that.
func (c *Config) Validate() error {
	var problems []string

	if c.Library != nil && c.Library.Store == StoreSQLite && strings.TrimSpace(c.Library.Path) == "" {
		problems = append(problems, "library: sqlite store requires a path")
	}
	if c.MPD != nil && (c.MPD.Port < 0 || c.MPD.Port > 65535) {
		problems = append(problems, fmt.Sprintf("mpd: invalid port %d", c.MPD.Port))
	}
	if c.HTTP != nil && (c.HTTP.Port < 0 || c.HTTP.Port > 65535) {
		problems = append(problems, fmt.Sprintf("http: invalid port %d", c.HTTP.Port))
	}
	if c.Local != nil && strings.TrimSpace(c.Local.Path) == "" {
		problems = append(problems, "local: path is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// EnabledProviders lists the configured provider sections in registry order.
func (c *Config) EnabledProviders() []string {
	var names []string
	if c.Pocketcasts != nil {
		names = append(names, "pocketcasts")
	}
	if c.Soundcloud != nil {
		names = append(names, "soundcloud")
	}
	if c.Spotify != nil {
		names = append(names, "spotify")
	}
	if c.Local != nil {
		names = append(names, "local")
	}
	return names
}

// EnabledFrontends lists the configured frontend sections in launch order.
func (c *Config) EnabledFrontends() []string {
	var names []string
	if c.MPD != nil {
		names = append(names, "mpd")
	}
	if c.HTTP != nil {
		names = append(names, "http")
	}
	return names
}
