package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jukebox/internal/config"
	"jukebox/internal/logging"
	"jukebox/internal/metrics"
)

var (
	// ErrNotFound is returned when a track or playlist does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnknownStore is returned by New for an unrecognised store tag.
	ErrUnknownStore = errors.New("unknown library store")
	// ErrLocked is returned when another process holds the library file.
	ErrLocked = errors.New("library is locked by another process")
)

// Track is a playable item. URI has the form "<provider>://<id>".
type Track struct {
	URI       string        `json:"uri"`
	Title     string        `json:"title"`
	Artist    string        `json:"artist,omitempty"`
	Album     string        `json:"album,omitempty"`
	Provider  string        `json:"provider"`
	Duration  time.Duration `json:"duration"`
	StreamURL string        `json:"streamUrl,omitempty"`
	CoverURL  string        `json:"coverUrl,omitempty"`
	Path      string        `json:"path,omitempty"`
}

// Playlist is an ordered list of track URIs.
type Playlist struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Provider  string   `json:"provider"`
	TrackURIs []string `json:"tracks"`
}

// Stats summarises the library contents.
type Stats struct {
	Tracks    int            `json:"tracks"`
	Playlists int            `json:"playlists"`
	Providers map[string]int `json:"providers"`
}

// Store is the library storage contract.
type Store interface {
	// AddTracks inserts or replaces tracks keyed by URI.
	AddTracks(ctx context.Context, tracks []Track) error
	GetTrack(ctx context.Context, uri string) (*Track, error)
	// GetTracks returns every track ordered by URI.
	GetTracks(ctx context.Context) ([]Track, error)
	// SearchTracks matches title, artist and album case-insensitively.
	SearchTracks(ctx context.Context, query string) ([]Track, error)
	// RemoveTracks drops every track and playlist owned by provider and
	// returns the number of tracks removed.
	RemoveTracks(ctx context.Context, provider string) (int, error)
	// AddPlaylist inserts or replaces a playlist, assigning an ID if empty.
	AddPlaylist(ctx context.Context, p *Playlist) error
	GetPlaylist(ctx context.Context, id string) (*Playlist, error)
	// GetPlaylists returns every playlist ordered by title.
	GetPlaylists(ctx context.Context) ([]Playlist, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// New builds the store selected by cfg. A nil cfg selects the memory store.
func New(ctx context.Context, cfg *config.LibraryConfig) (Store, error) {
	if cfg == nil {
		logging.Info("No library configured, using memory store")
		return NewMemoryStore(), nil
	}

	switch cfg.Store {
	case config.StoreMemory, "":
		return NewMemoryStore(), nil
	case config.StoreSQLite:
		return OpenSQLite(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Store)
	}
}

// Kind names the implementation behind s, for logs and metrics.
func Kind(s Store) string {
	switch s.(type) {
	case *MemoryStore:
		return string(config.StoreMemory)
	case *SQLiteStore:
		return string(config.StoreSQLite)
	default:
		return "unknown"
	}
}

// Scheme returns the provider part of a track URI.
func Scheme(uri string) string {
	if i := strings.Index(uri, "://"); i > 0 {
		return uri[:i]
	}
	return ""
}

func matches(t *Track, q string) bool {
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Artist), q) ||
		strings.Contains(strings.ToLower(t.Album), q)
}

// recordQuery records store operation metrics
func recordQuery(store, operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil && !errors.Is(err, ErrNotFound) {
		status = "error"
	}
	metrics.LibraryQueryTotal.WithLabelValues(store, operation, status).Inc()
	metrics.LibraryQueryDuration.WithLabelValues(store, operation).Observe(duration)
}
