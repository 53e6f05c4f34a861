// Package backendtest provides an in-memory playback backend for tests.
package backendtest

import (
	"context"
	"sync"

	"jukebox/internal/backend"
	"jukebox/internal/config"
	"jukebox/internal/library"
)

// Fake records calls and lets tests end tracks with Finish.
type Fake struct {
	mu      sync.Mutex
	state   backend.State
	played  []string
	current string
	closed  bool
	done    chan struct{}
}

var _ backend.Backend = (*Fake)(nil)

// New returns a stopped fake.
func New() *Fake {
	return &Fake{state: backend.StateStopped, done: make(chan struct{}, 1)}
}

// Factory returns a backend.Factory that always yields f.
func Factory(f *Fake) backend.Factory {
	return func(config.BackendKind) (backend.Backend, error) {
		return f, nil
	}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Play(ctx context.Context, t library.Track) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := backend.Location(t); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drainLocked()
	f.played = append(f.played, t.URI)
	f.current = t.URI
	f.state = backend.StatePlaying
	return nil
}

func (f *Fake) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != backend.StatePlaying {
		return backend.ErrNotPlaying
	}
	f.state = backend.StatePaused
	return nil
}

func (f *Fake) Resume() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != backend.StatePaused {
		return backend.ErrNotPlaying
	}
	f.state = backend.StatePlaying
	return nil
}

func (f *Fake) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drainLocked()
	f.state = backend.StateStopped
	f.current = ""
	return nil
}

func (f *Fake) State() backend.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Fake) Done() <-chan struct{} { return f.done }

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.state = backend.StateStopped
	return nil
}

// drainLocked drops an unreceived end of track, like the real backends do
// when playback is stopped or replaced.
func (f *Fake) drainLocked() {
	select {
	case <-f.done:
	default:
	}
}

// Pending reports whether an end of track is waiting on Done.
func (f *Fake) Pending() bool {
	return len(f.done) > 0
}

// Finish ends the current track as if it played to the end.
func (f *Fake) Finish() {
	f.mu.Lock()
	f.state = backend.StateStopped
	f.current = ""
	f.mu.Unlock()
	f.done <- struct{}{}
}

// Played lists the URIs handed to Play, in order.
func (f *Fake) Played() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.played...)
}

// Current returns the URI playing now, or "".
func (f *Fake) Current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
