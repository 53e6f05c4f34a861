// Package app holds the state every subsystem shares: the library, the
// provider registry, the playback backend and the player built on top of it.
//
// An App is built once during startup and handed to subsystems by pointer.
// Its collaborators are fixed at construction.
package app

import (
	"errors"
	"time"

	"jukebox/internal/backend"
	"jukebox/internal/library"
	"jukebox/internal/player"
	"jukebox/internal/provider"
)

// ErrNilCollaborator is returned by New when a required collaborator is missing.
var ErrNilCollaborator = errors.New("nil collaborator")

// App is the shared application state.
type App struct {
	Library   library.Store
	Providers *provider.Registry
	Backend   backend.Backend
	Player    *player.Player
	Queue     *player.Queue

	started time.Time
}

// New assembles the application state.
func New(store library.Store, providers *provider.Registry, b backend.Backend) (*App, error) {
	switch {
	case store == nil:
		return nil, errors.Join(ErrNilCollaborator, errors.New("library store"))
	case providers == nil:
		return nil, errors.Join(ErrNilCollaborator, errors.New("provider registry"))
	case b == nil:
		return nil, errors.Join(ErrNilCollaborator, errors.New("playback backend"))
	}

	p := player.New(b)
	return &App{
		Library:   store,
		Providers: providers,
		Backend:   b,
		Player:    p,
		Queue:     p.Queue(),
		started:   time.Now(),
	}, nil
}

// Started returns when the state was assembled.
func (a *App) Started() time.Time {
	return a.started
}

// Uptime returns the time since Started.
func (a *App) Uptime() time.Duration {
	return time.Since(a.started)
}

// Close releases the backend and the library.
func (a *App) Close() error {
	return errors.Join(a.Backend.Close(), a.Library.Close())
}
