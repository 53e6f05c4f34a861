package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jukebox/internal/config"
)

func sampleTracks() []Track {
	return []Track{
		{URI: "local://b.mp3", Title: "Blue Monday", Artist: "New Order", Album: "Substance", Provider: "local", Duration: 7 * time.Minute},
		{URI: "local://a.mp3", Title: "Atmosphere", Artist: "Joy Division", Provider: "local"},
		{URI: "soundcloud://42", Title: "Live set", Artist: "DJ 50%", Provider: "soundcloud", CoverURL: "http://img/42.jpg"},
	}
}

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.AddTracks(ctx, sampleTracks()))

	all, err := s.GetTracks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "local://a.mp3", all[0].URI, "tracks are ordered by URI")

	tr, err := s.GetTrack(ctx, "local://b.mp3")
	require.NoError(t, err)
	assert.Equal(t, "Blue Monday", tr.Title)
	assert.Equal(t, 7*time.Minute, tr.Duration)

	_, err = s.GetTrack(ctx, "local://missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	found, err := s.SearchTracks(ctx, "joy")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Atmosphere", found[0].Title)

	found, err = s.SearchTracks(ctx, "50%")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	// Upsert replaces by URI.
	require.NoError(t, s.AddTracks(ctx, []Track{{URI: "local://a.mp3", Title: "Atmosphere (remaster)", Provider: "local"}}))
	tr, err = s.GetTrack(ctx, "local://a.mp3")
	require.NoError(t, err)
	assert.Equal(t, "Atmosphere (remaster)", tr.Title)

	p := &Playlist{Title: "Mix", Provider: "local", TrackURIs: []string{"local://b.mp3", "local://a.mp3"}}
	require.NoError(t, s.AddPlaylist(ctx, p))
	require.NotEmpty(t, p.ID, "an ID is assigned")
	require.NoError(t, s.AddPlaylist(ctx, &Playlist{ID: "sc", Title: "Likes", Provider: "soundcloud", TrackURIs: []string{"soundcloud://42"}}))

	got, err := s.GetPlaylist(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"local://b.mp3", "local://a.mp3"}, got.TrackURIs)

	_, err = s.GetPlaylist(ctx, "nope")
	assert.True(t, errors.Is(err, ErrNotFound))

	lists, err := s.GetPlaylists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "Likes", lists[0].Title)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Tracks)
	assert.Equal(t, 2, stats.Playlists)
	assert.Equal(t, 2, stats.Providers["local"])

	removed, err := s.RemoveTracks(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Tracks)
	assert.Equal(t, 1, stats.Playlists, "provider playlists are removed with its tracks")
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	storeContract(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	defer s.Close()
	storeContract(t, s)
}

func TestMemoryStoresShareNoState(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryStore()
	b := NewMemoryStore()

	require.NoError(t, a.AddTracks(ctx, sampleTracks()))
	require.NoError(t, a.AddPlaylist(ctx, &Playlist{Title: "only in a"}))

	stats, err := b.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Tracks)
	assert.Zero(t, stats.Playlists)
}

func TestMemoryPlaylistIsCopied(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := &Playlist{ID: "p", TrackURIs: []string{"x://1"}}
	require.NoError(t, s.AddPlaylist(ctx, p))

	p.TrackURIs[0] = "mutated"
	got, err := s.GetPlaylist(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "x://1", got.TrackURIs[0])
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "library.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.AddTracks(ctx, sampleTracks()))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Tracks)
}

func TestSQLiteLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "library.db")

	first, err := OpenSQLite(ctx, path)
	require.NoError(t, err)

	_, err = OpenSQLite(ctx, path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocked))

	require.NoError(t, first.Close())

	again, err := OpenSQLite(ctx, path)
	require.NoError(t, err, "lock is released on Close")
	require.NoError(t, again.Close())
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name     string
		cfg      *config.LibraryConfig
		wantKind string
		wantErr  error
	}{
		{name: "nil config", cfg: nil, wantKind: "memory"},
		{name: "memory", cfg: &config.LibraryConfig{Store: config.StoreMemory}, wantKind: "memory"},
		{name: "sqlite", cfg: &config.LibraryConfig{Store: config.StoreSQLite, Path: filepath.Join(dir, "x.db")}, wantKind: "sqlite"},
		{name: "unknown tag", cfg: &config.LibraryConfig{Store: "redis"}, wantErr: ErrUnknownStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(ctx, tt.cfg)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			defer s.Close()
			assert.Equal(t, tt.wantKind, Kind(s))
		})
	}
}

func TestNewSQLiteInaccessiblePath(t *testing.T) {
	_, err := New(context.Background(), &config.LibraryConfig{
		Store: config.StoreSQLite,
		Path:  "/nonexistent/dir/x.db",
	})
	require.Error(t, err)
}

func TestScheme(t *testing.T) {
	assert.Equal(t, "local", Scheme("local://a/b.mp3"))
	assert.Equal(t, "", Scheme("no-scheme"))
}
