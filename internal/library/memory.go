package library

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const memoryKind = "memory"

// MemoryStore keeps the library in process memory. Each instance is
// independent; nothing is shared between stores.
type MemoryStore struct {
	mu        sync.RWMutex
	tracks    map[string]Track
	playlists map[string]Playlist
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tracks:    make(map[string]Track),
		playlists: make(map[string]Playlist),
	}
}

func (m *MemoryStore) AddTracks(_ context.Context, tracks []Track) error {
	defer recordQuery(memoryKind, "add_tracks", time.Now(), nil)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tracks {
		m.tracks[t.URI] = t
	}
	return nil
}

func (m *MemoryStore) GetTrack(_ context.Context, uri string) (*Track, error) {
	start := time.Now()
	m.mu.RLock()
	t, ok := m.tracks[uri]
	m.mu.RUnlock()

	if !ok {
		recordQuery(memoryKind, "get_track", start, ErrNotFound)
		return nil, ErrNotFound
	}
	recordQuery(memoryKind, "get_track", start, nil)
	return &t, nil
}

func (m *MemoryStore) GetTracks(_ context.Context) ([]Track, error) {
	defer recordQuery(memoryKind, "get_tracks", time.Now(), nil)
	return m.collect(func(*Track) bool { return true }), nil
}

func (m *MemoryStore) SearchTracks(_ context.Context, query string) ([]Track, error) {
	defer recordQuery(memoryKind, "search_tracks", time.Now(), nil)
	q := strings.ToLower(strings.TrimSpace(query))
	return m.collect(func(t *Track) bool { return matches(t, q) }), nil
}

func (m *MemoryStore) collect(keep func(*Track) bool) []Track {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Track, 0, len(m.tracks))
	for _, t := range m.tracks {
		if keep(&t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

func (m *MemoryStore) RemoveTracks(_ context.Context, provider string) (int, error) {
	defer recordQuery(memoryKind, "remove_tracks", time.Now(), nil)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for uri, t := range m.tracks {
		if t.Provider == provider {
			delete(m.tracks, uri)
			removed++
		}
	}
	for id, p := range m.playlists {
		if p.Provider == provider {
			delete(m.playlists, id)
		}
	}
	return removed, nil
}

func (m *MemoryStore) AddPlaylist(_ context.Context, p *Playlist) error {
	defer recordQuery(memoryKind, "add_playlist", time.Now(), nil)

	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	stored := *p
	stored.TrackURIs = slices.Clone(p.TrackURIs)

	m.mu.Lock()
	m.playlists[p.ID] = stored
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) GetPlaylist(_ context.Context, id string) (*Playlist, error) {
	start := time.Now()
	m.mu.RLock()
	p, ok := m.playlists[id]
	m.mu.RUnlock()

	if !ok {
		recordQuery(memoryKind, "get_playlist", start, ErrNotFound)
		return nil, ErrNotFound
	}
	recordQuery(memoryKind, "get_playlist", start, nil)
	p.TrackURIs = slices.Clone(p.TrackURIs)
	return &p, nil
}

func (m *MemoryStore) GetPlaylists(_ context.Context) ([]Playlist, error) {
	defer recordQuery(memoryKind, "get_playlists", time.Now(), nil)

	m.mu.RLock()
	out := make([]Playlist, 0, len(m.playlists))
	for _, p := range m.playlists {
		p.TrackURIs = slices.Clone(p.TrackURIs)
		out = append(out, p)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) Stats(_ context.Context) (Stats, error) {
	defer recordQuery(memoryKind, "stats", time.Now(), nil)

	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		Tracks:    len(m.tracks),
		Playlists: len(m.playlists),
		Providers: make(map[string]int),
	}
	for _, t := range m.tracks {
		stats.Providers[t.Provider]++
	}
	return stats, nil
}

// Close is a no-op; the contents are simply dropped with the store.
func (m *MemoryStore) Close() error {
	return nil
}
