package backend

import (
	"context"
	"errors"
	"fmt"

	"jukebox/internal/config"
	"jukebox/internal/filesystem"
	"jukebox/internal/library"
)

var (
	// ErrUnknownBackend is returned for an unrecognised backend tag.
	ErrUnknownBackend = errors.New("unknown playback backend")
	// ErrUnsupportedBackend is returned for a known backend missing from this build.
	ErrUnsupportedBackend = errors.New("playback backend not supported by this build")
	// ErrNotPlaying is returned by Pause and Resume when there is nothing to act on.
	ErrNotPlaying = errors.New("nothing is playing")
	// ErrNoStream is returned when a track carries no playable location.
	ErrNoStream = errors.New("track has no stream location")
)

// State is the playback state of a backend.
type State string

const (
	StateStopped State = "stopped"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// Backend plays one track at a time.
type Backend interface {
	Name() string
	// Play replaces whatever is playing with t.
	Play(ctx context.Context, t library.Track) error
	Pause() error
	Resume() error
	// Stop ends playback without signalling Done.
	Stop() error
	State() State
	// Done receives once each time a track finishes on its own.
	Done() <-chan struct{}
	Close() error
}

// Factory builds a backend for a tag. Bootstrap takes one so tests can
// swap in a fake.
type Factory func(kind config.BackendKind) (Backend, error)

// New builds the backend selected by kind. An empty kind selects GStreamer.
func New(kind config.BackendKind) (Backend, error) {
	switch kind {
	case config.BackendGStreamer, "":
		return NewGStreamer()
	case config.BackendRodio:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, kind)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}

// Location returns the URI the backend should open for t.
func Location(t library.Track) (string, error) {
	if t.StreamURL != "" {
		return t.StreamURL, nil
	}
	if t.Path != "" {
		return filesystem.FileURL(t.Path), nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoStream, t.URI)
}
