// Package player runs the playback loop: it takes tracks from the shared
// queue, hands them to the backend and advances when a track ends.
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"jukebox/internal/backend"
	"jukebox/internal/library"
	"jukebox/internal/logging"
	"jukebox/internal/metrics"
)

// ErrNotRunning is returned by commands once the loop has exited.
var ErrNotRunning = errors.New("player is not running")

// Command is a request to the playback loop.
type Command string

const (
	CommandPlay   Command = "play"
	CommandPause  Command = "pause"
	CommandResume Command = "resume"
	CommandStop   Command = "stop"
	CommandNext   Command = "next"
)

// ParseCommand maps an action name to a Command.
func ParseCommand(name string) (Command, error) {
	switch c := Command(name); c {
	case CommandPlay, CommandPause, CommandResume, CommandStop, CommandNext:
		return c, nil
	default:
		return "", fmt.Errorf("unknown player command %q", name)
	}
}

// Status is a snapshot of the player.
type Status struct {
	State       backend.State  `json:"state"`
	Current     *library.Track `json:"current,omitempty"`
	QueueLength int            `json:"queueLength"`
}

type request struct {
	cmd   Command
	reply chan error
}

// Player owns the playback loop.
type Player struct {
	backend backend.Backend
	queue   *Queue

	requests chan request
	running  chan struct{}
	exited   chan struct{}
	once     sync.Once

	mu     sync.Mutex
	state  backend.State
	subs   map[int]chan Status
	nextID int
}

// New returns a stopped player over b with an empty queue.
func New(b backend.Backend) *Player {
	p := &Player{
		backend:  b,
		queue:    NewQueue(),
		requests: make(chan request),
		running:  make(chan struct{}),
		exited:   make(chan struct{}),
		state:    backend.StateStopped,
		subs:     make(map[int]chan Status),
	}
	p.queue.onChange = p.publish
	return p
}

// Queue returns the shared play queue.
func (p *Player) Queue() *Queue {
	return p.queue
}

// Status returns the current state, track and queue length.
func (p *Player) Status() Status {
	p.mu.Lock()
	state := p.state
	p.mu.Unlock()

	st := Status{State: state, QueueLength: p.queue.Len()}
	if state != backend.StateStopped {
		if t, ok := p.queue.Current(); ok {
			st.Current = &t
		}
	}
	return st
}

// Subscribe returns a channel receiving the latest Status after every
// change. Slow subscribers only ever see the newest snapshot.
func (p *Player) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 1)

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = ch
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

func (p *Player) publish() {
	st := p.Status()

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

func (p *Player) setState(s backend.State) {
	p.mu.Lock()
	changed := p.state != s
	p.state = s
	p.mu.Unlock()

	if changed {
		metrics.PlayerStateTransitions.WithLabelValues(string(s)).Inc()
	}
	p.publish()
}

// Do sends cmd to the loop and waits for it to be applied.
func (p *Player) Do(ctx context.Context, cmd Command) error {
	req := request{cmd: cmd, reply: make(chan error, 1)}

	select {
	case p.requests <- req:
	case <-p.exited:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Player) Play(ctx context.Context) error   { return p.Do(ctx, CommandPlay) }
func (p *Player) Pause(ctx context.Context) error  { return p.Do(ctx, CommandPause) }
func (p *Player) Resume(ctx context.Context) error { return p.Do(ctx, CommandResume) }
func (p *Player) Stop(ctx context.Context) error   { return p.Do(ctx, CommandStop) }
func (p *Player) Next(ctx context.Context) error   { return p.Do(ctx, CommandNext) }

// Running is closed once Run has started accepting commands.
func (p *Player) Running() <-chan struct{} {
	return p.running
}

// Run processes commands and track ends until ctx is cancelled, then stops
// the backend. It may only be called once.
func (p *Player) Run(ctx context.Context) error {
	started := false
	p.once.Do(func() { started = true })
	if !started {
		return errors.New("player loop already started")
	}
	defer close(p.exited)
	close(p.running)

	for {
		select {
		case <-ctx.Done():
			if err := p.backend.Stop(); err != nil {
				logging.Warn("Failed to stop backend: %v", err)
			}
			p.queue.resetCurrent()
			p.setState(backend.StateStopped)
			return nil

		case req := <-p.requests:
			req.reply <- p.handle(ctx, req.cmd)

		case <-p.backend.Done():
			logging.Debug("Track finished, advancing")
			p.advance(ctx)
		}
	}
}

func (p *Player) handle(ctx context.Context, cmd Command) error {
	p.mu.Lock()
	state := p.state
	p.mu.Unlock()

	switch cmd {
	case CommandPlay:
		switch state {
		case backend.StatePaused:
			return p.handle(ctx, CommandResume)
		case backend.StatePlaying:
			return nil
		}
		p.advance(ctx)
		return nil

	case CommandPause:
		if err := p.backend.Pause(); err != nil {
			return err
		}
		p.setState(backend.StatePaused)
		return nil

	case CommandResume:
		if err := p.backend.Resume(); err != nil {
			return err
		}
		p.setState(backend.StatePlaying)
		return nil

	case CommandStop:
		if err := p.backend.Stop(); err != nil {
			return err
		}
		p.queue.resetCurrent()
		p.setState(backend.StateStopped)
		return nil

	case CommandNext:
		p.advance(ctx)
		return nil

	default:
		return fmt.Errorf("unknown player command %q", cmd)
	}
}

// advance plays the next playable track, skipping ones the backend rejects.
// An empty queue stops playback.
func (p *Player) advance(ctx context.Context) {
	for {
		t, ok := p.queue.Next()
		if !ok {
			if err := p.backend.Stop(); err != nil {
				logging.Warn("Failed to stop backend: %v", err)
			}
			p.setState(backend.StateStopped)
			return
		}

		if err := p.backend.Play(ctx, t); err != nil {
			logging.Warn("Skipping %s: %v", t.URI, err)
			continue
		}

		logging.Info("Playing %s", t.URI)
		metrics.PlayerTracksPlayed.Inc()
		p.setState(backend.StatePlaying)
		return
	}
}
