package backend

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"jukebox/internal/config"
	"jukebox/internal/library"
	"jukebox/internal/logging"
)

// GStreamerBinary is the launcher looked up on PATH.
const GStreamerBinary = "gst-launch-1.0"

// GStreamer plays tracks through gst-launch-1.0 playbin processes.
type GStreamer struct {
	binary string

	mu      sync.Mutex
	cmd     *exec.Cmd
	state   State
	current string
	// gen identifies the live process so exits of killed ones are ignored.
	gen  uint64
	done chan struct{}
}

var _ Backend = (*GStreamer)(nil)

// NewGStreamer finds gst-launch-1.0 on PATH.
func NewGStreamer() (*GStreamer, error) {
	return NewGStreamerWithBinary(GStreamerBinary)
}

// NewGStreamerWithBinary uses the given launcher name or path.
func NewGStreamerWithBinary(binary string) (*GStreamer, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("gstreamer backend unavailable: %w", err)
	}
	logging.Debug("GStreamer launcher: %s", path)

	return &GStreamer{
		binary: path,
		state:  StateStopped,
		done:   make(chan struct{}, 1),
	}, nil
}

func (g *GStreamer) Name() string { return string(config.BackendGStreamer) }

func (g *GStreamer) Play(ctx context.Context, t library.Track) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	uri, err := Location(t)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopLocked()

	cmd := exec.Command(g.binary, "-q", "playbin", "uri="+uri)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", g.binary, err)
	}

	g.gen++
	g.cmd = cmd
	g.state = StatePlaying
	g.current = t.URI

	go g.wait(cmd, g.gen, &stderr)
	return nil
}

func (g *GStreamer) wait(cmd *exec.Cmd, gen uint64, stderr *bytes.Buffer) {
	err := cmd.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()

	if gen != g.gen {
		return
	}
	if err != nil {
		logging.Warn("Playback of %s ended with error: %v %s", g.current, err, strings.TrimSpace(stderr.String()))
	}

	g.cmd = nil
	g.state = StateStopped
	g.current = ""
	select {
	case g.done <- struct{}{}:
	default:
	}
}

func (g *GStreamer) Pause() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StatePlaying || g.cmd == nil {
		return ErrNotPlaying
	}
	if err := unix.Kill(g.cmd.Process.Pid, unix.SIGSTOP); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}
	g.state = StatePaused
	return nil
}

func (g *GStreamer) Resume() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StatePaused || g.cmd == nil {
		return ErrNotPlaying
	}
	if err := unix.Kill(g.cmd.Process.Pid, unix.SIGCONT); err != nil {
		return fmt.Errorf("failed to resume playback: %w", err)
	}
	g.state = StatePlaying
	return nil
}

func (g *GStreamer) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLocked()
	return nil
}

// stopLocked must be called with g.mu held. It also discards an end of
// track that nobody has received yet, so it cannot advance the next track.
func (g *GStreamer) stopLocked() {
	select {
	case <-g.done:
	default:
	}

	if g.cmd == nil {
		g.state = StateStopped
		return
	}

	// Invalidate the waiter before killing so the exit is not reported as a natural end.
	g.gen++
	if g.state == StatePaused {
		_ = unix.Kill(g.cmd.Process.Pid, unix.SIGCONT)
	}
	logging.Debug("Stopping playback of %s", g.current)
	if err := g.cmd.Process.Kill(); err != nil {
		logging.Warn("failed to kill playback process: %v", err)
	}

	g.cmd = nil
	g.state = StateStopped
	g.current = ""
}

func (g *GStreamer) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *GStreamer) Done() <-chan struct{} {
	return g.done
}

// Close stops any running process.
func (g *GStreamer) Close() error {
	return g.Stop()
}
