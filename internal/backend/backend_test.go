package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jukebox/internal/config"
	"jukebox/internal/library"
)

func TestNewSelection(t *testing.T) {
	tests := []struct {
		name    string
		kind    config.BackendKind
		wantErr error
	}{
		{name: "rodio is not compiled in", kind: config.BackendRodio, wantErr: ErrUnsupportedBackend},
		{name: "unknown tag", kind: "alsa", wantErr: ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.kind)
			assert.Nil(t, b)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestGStreamerMissingBinary(t *testing.T) {
	_, err := NewGStreamerWithBinary("gst-launch-does-not-exist")
	assert.Error(t, err)
}

func TestNewDefaultsToGStreamer(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := New("")
	require.Error(t, err, "empty tag selects gstreamer, which is missing from PATH")
	assert.False(t, errors.Is(err, ErrUnknownBackend))
}

func TestLocation(t *testing.T) {
	uri, err := Location(library.Track{StreamURL: "https://cdn/a.mp3", Path: "/music/a.mp3"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.mp3", uri)

	uri, err = Location(library.Track{Path: "/music/a.mp3"})
	require.NoError(t, err)
	assert.Equal(t, "file:///music/a.mp3", uri)

	uri, err = Location(library.Track{Path: "/music/Artist #1/100% Pure.mp3"})
	require.NoError(t, err)
	assert.Equal(t, "file:///music/Artist%20%231/100%25%20Pure.mp3", uri)

	_, err = Location(library.Track{URI: "spotify://x"})
	assert.ErrorIs(t, err, ErrNoStream)
}

// fakeLauncher writes a script standing in for gst-launch-1.0.
func fakeLauncher(t *testing.T, body string) *GStreamer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gst-launch-fake")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	g, err := NewGStreamerWithBinary(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

var track = library.Track{URI: "local://a.mp3", Path: "/music/a.mp3"}

func TestGStreamerNaturalEndSignalsDone(t *testing.T) {
	g := fakeLauncher(t, "exit 0")
	require.NoError(t, g.Play(context.Background(), track))

	select {
	case <-g.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Done was not signalled")
	}
	assert.Equal(t, StateStopped, g.State())
}

func TestGStreamerStopDiscardsUnreadEnd(t *testing.T) {
	g := fakeLauncher(t, "exit 0")
	require.NoError(t, g.Play(context.Background(), track))
	require.Eventually(t, func() bool { return len(g.done) == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, g.Stop())

	select {
	case <-g.Done():
		t.Fatal("an end of track that was not received must not survive Stop")
	default:
	}
}

func TestGStreamerPlayDiscardsUnreadEnd(t *testing.T) {
	g := fakeLauncher(t, "exit 0")
	require.NoError(t, g.Play(context.Background(), track))
	require.Eventually(t, func() bool { return len(g.done) == 1 }, 5*time.Second, 10*time.Millisecond)

	// Swap in a long running launcher so the second track does not end on its own.
	long := filepath.Join(t.TempDir(), "gst-launch-long")
	require.NoError(t, os.WriteFile(long, []byte("#!/bin/sh\nexec sleep 30\n"), 0o755))
	g.binary = long

	require.NoError(t, g.Play(context.Background(), library.Track{URI: "local://b.mp3", Path: "/music/b.mp3"}))
	assert.Empty(t, g.done, "the previous end of track is dropped when a new one starts")
	assert.Equal(t, StatePlaying, g.State())
}

func TestGStreamerPauseResumeStop(t *testing.T) {
	g := fakeLauncher(t, "exec sleep 30")
	assert.ErrorIs(t, g.Pause(), ErrNotPlaying)

	require.NoError(t, g.Play(context.Background(), track))
	assert.Equal(t, StatePlaying, g.State())

	require.NoError(t, g.Pause())
	assert.Equal(t, StatePaused, g.State())
	assert.ErrorIs(t, g.Pause(), ErrNotPlaying)

	require.NoError(t, g.Resume())
	assert.Equal(t, StatePlaying, g.State())

	require.NoError(t, g.Stop())
	assert.Equal(t, StateStopped, g.State())

	select {
	case <-g.Done():
		t.Fatal("Stop must not signal Done")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestGStreamerPlayReplacesCurrent(t *testing.T) {
	g := fakeLauncher(t, "exec sleep 30")
	require.NoError(t, g.Play(context.Background(), track))
	require.NoError(t, g.Play(context.Background(), library.Track{URI: "local://b.mp3", Path: "/music/b.mp3"}))
	assert.Equal(t, StatePlaying, g.State())

	select {
	case <-g.Done():
		t.Fatal("replacing a track must not signal Done")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestGStreamerRejectsTrackWithoutStream(t *testing.T) {
	g := fakeLauncher(t, "exit 0")
	err := g.Play(context.Background(), library.Track{URI: "spotify://x"})
	assert.ErrorIs(t, err, ErrNoStream)
	assert.Equal(t, StateStopped, g.State())
}
