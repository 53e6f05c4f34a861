package provider

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"jukebox/internal/library"
	"jukebox/internal/metrics"
)

// ErrSetupPanic wraps a panic raised by a provider's Setup.
var ErrSetupPanic = errors.New("provider setup panicked")

// Provider is a source of tracks and playlists.
type Provider interface {
	Title() string
	Setup(ctx context.Context) error
	Sync(ctx context.Context, store library.Store) (SyncResult, error)
}

// SyncResult counts what a Sync imported.
type SyncResult struct {
	Tracks    int `json:"tracks"`
	Playlists int `json:"playlists"`
}

// State is the setup state of a registered provider.
type State int

const (
	// StatePending means Setup has not run yet.
	StatePending State = iota
	// StateReady means the last Setup succeeded.
	StateReady
	// StateFailed means the last Setup returned an error.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON responses.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Shared guards a provider with its own lock.
type Shared struct {
	mu       sync.RWMutex
	provider Provider
	state    State
	err      error
}

// NewShared wraps p in the Pending state.
func NewShared(p Provider) *Shared {
	return &Shared{provider: p}
}

// Title returns the provider title under the read lock.
func (s *Shared) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider.Title()
}

// State returns the setup state and the setup error, if any.
func (s *Shared) State() (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.err
}

// Setup runs the provider's Setup holding only this provider's write lock.
func (s *Shared) Setup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	title := s.provider.Title()
	err := safeSetup(ctx, s.provider)
	if err != nil {
		s.state, s.err = StateFailed, err
		metrics.ProviderSetupTotal.WithLabelValues(title, "error").Inc()
		return err
	}

	s.state, s.err = StateReady, nil
	metrics.ProviderSetupTotal.WithLabelValues(title, "success").Inc()
	return nil
}

// safeSetup turns a panic in p.Setup into an error.
func safeSetup(ctx context.Context, p Provider) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrSetupPanic, r, debug.Stack())
		}
	}()
	return p.Setup(ctx)
}

// Sync imports the provider's catalogue into store under the write lock.
func (s *Shared) Sync(ctx context.Context, store library.Store) (SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider.Sync(ctx, store)
}

// Replace swaps everything provider owns in store for tracks and playlists.
// Providers call it at the end of Sync once the full catalogue is fetched,
// so a failed fetch leaves the previous import untouched.
func Replace(ctx context.Context, store library.Store, provider string, tracks []library.Track, playlists []library.Playlist) (SyncResult, error) {
	if _, err := store.RemoveTracks(ctx, provider); err != nil {
		return SyncResult{}, fmt.Errorf("failed to clear %s tracks: %w", provider, err)
	}
	if err := store.AddTracks(ctx, tracks); err != nil {
		return SyncResult{}, fmt.Errorf("failed to store %s tracks: %w", provider, err)
	}
	for i := range playlists {
		if err := store.AddPlaylist(ctx, &playlists[i]); err != nil {
			return SyncResult{}, fmt.Errorf("failed to store %s playlist %q: %w", provider, playlists[i].Title, err)
		}
	}
	return SyncResult{Tracks: len(tracks), Playlists: len(playlists)}, nil
}
