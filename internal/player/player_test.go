package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jukebox/internal/backend"
	"jukebox/internal/backend/backendtest"
	"jukebox/internal/library"
)

func tracks(uris ...string) []library.Track {
	out := make([]library.Track, 0, len(uris))
	for _, u := range uris {
		out = append(out, library.Track{URI: u, Path: "/music/" + u})
	}
	return out
}

func startPlayer(t *testing.T) (*Player, *backendtest.Fake, context.CancelFunc, <-chan error) {
	t.Helper()
	fake := backendtest.New()
	p := New(fake)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- p.Run(ctx) }()
	<-p.Running()

	t.Cleanup(cancel)
	return p, fake, cancel, errc
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestQueue(t *testing.T) {
	q := NewQueue()
	_, ok := q.Next()
	assert.False(t, ok)

	q.Add(tracks("a", "b", "c")...)
	assert.Equal(t, 3, q.Len())

	next, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, "a", next.URI)

	cur, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, "a", cur.URI)

	list := q.List()
	require.Len(t, list, 2)
	list[0].URI = "mutated"
	assert.Equal(t, "b", q.List()[0].URI, "List returns a copy")

	q.Clear()
	assert.Zero(t, q.Len())
	_, ok = q.Current()
	assert.True(t, ok, "Clear keeps the current track")
}

func TestParseCommand(t *testing.T) {
	for _, name := range []string{"play", "pause", "resume", "stop", "next"} {
		c, err := ParseCommand(name)
		require.NoError(t, err)
		assert.Equal(t, Command(name), c)
	}
	_, err := ParseCommand("rewind")
	assert.Error(t, err)
}

func TestPlayAdvancesThroughQueue(t *testing.T) {
	p, fake, _, _ := startPlayer(t)
	ctx := context.Background()

	p.Queue().Add(tracks("a", "b")...)
	require.NoError(t, p.Play(ctx))
	assert.Equal(t, backend.StatePlaying, p.Status().State)
	assert.Equal(t, "a", p.Status().Current.URI)

	fake.Finish()
	waitFor(t, func() bool { return fake.Current() == "b" })

	fake.Finish()
	waitFor(t, func() bool { return p.Status().State == backend.StateStopped })
	assert.Equal(t, []string{"a", "b"}, fake.Played())
	assert.Nil(t, p.Status().Current)
}

func TestPauseResumeStop(t *testing.T) {
	p, fake, _, _ := startPlayer(t)
	ctx := context.Background()

	assert.ErrorIs(t, p.Pause(ctx), backend.ErrNotPlaying)

	p.Queue().Add(tracks("a", "b")...)
	require.NoError(t, p.Play(ctx))

	require.NoError(t, p.Pause(ctx))
	assert.Equal(t, backend.StatePaused, p.Status().State)

	require.NoError(t, p.Play(ctx), "play while paused resumes")
	assert.Equal(t, backend.StatePlaying, p.Status().State)
	assert.Equal(t, []string{"a"}, fake.Played())

	require.NoError(t, p.Next(ctx))
	assert.Equal(t, "b", fake.Current())

	require.NoError(t, p.Stop(ctx))
	assert.Equal(t, backend.StateStopped, p.Status().State)
	assert.Nil(t, p.Status().Current)
}

func TestSkipsUnplayableTracks(t *testing.T) {
	p, fake, _, _ := startPlayer(t)

	p.Queue().Add(library.Track{URI: "spotify://nostream"})
	p.Queue().Add(tracks("a")...)

	require.NoError(t, p.Play(context.Background()))
	assert.Equal(t, backend.StatePlaying, p.Status().State)
	assert.Equal(t, []string{"a"}, fake.Played())
}

func TestSubscribeReceivesChanges(t *testing.T) {
	p, _, _, _ := startPlayer(t)
	updates, unsubscribe := p.Subscribe()
	defer unsubscribe()

	p.Queue().Add(tracks("a")...)
	require.NoError(t, p.Play(context.Background()))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-updates:
			if st.State == backend.StatePlaying {
				return
			}
		case <-deadline:
			t.Fatal("no playing status received")
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	p, fake, cancel, errc := startPlayer(t)

	p.Queue().Add(tracks("a")...)
	require.NoError(t, p.Play(context.Background()))

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("player did not exit")
	}
	assert.Equal(t, backend.StateStopped, fake.State())
	assert.ErrorIs(t, p.Play(context.Background()), ErrNotRunning)
	assert.Error(t, p.Run(context.Background()), "Run is single use")
}

func TestStopDropsUnreadTrackEnd(t *testing.T) {
	fake := backendtest.New()
	p := New(fake)
	ctx := context.Background()

	p.Queue().Add(tracks("a", "b", "c")...)
	require.NoError(t, p.handle(ctx, CommandPlay))

	// The track ends while a stop request is already being handled.
	fake.Finish()
	require.True(t, fake.Pending())
	require.NoError(t, p.handle(ctx, CommandStop))
	assert.False(t, fake.Pending())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = p.Run(runCtx) }()
	<-p.Running()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, backend.StateStopped, p.Status().State)
	assert.Equal(t, []string{"a"}, fake.Played(), "queue is not advanced after stop")
	assert.Equal(t, 2, p.Queue().Len())
}

func TestNextDropsUnreadTrackEnd(t *testing.T) {
	fake := backendtest.New()
	p := New(fake)
	ctx := context.Background()

	p.Queue().Add(tracks("a", "b", "c")...)
	require.NoError(t, p.handle(ctx, CommandPlay))

	fake.Finish()
	require.NoError(t, p.handle(ctx, CommandNext))
	assert.False(t, fake.Pending())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = p.Run(runCtx) }()
	<-p.Running()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "b", fake.Current(), "the track started by next keeps playing")
	assert.Equal(t, []string{"a", "b"}, fake.Played())
}
