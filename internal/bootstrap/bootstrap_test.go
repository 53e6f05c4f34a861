package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jukebox/internal/backend"
	"jukebox/internal/backend/backendtest"
	"jukebox/internal/config"
	"jukebox/internal/library"
	"jukebox/internal/subsystem"
)

func parse(t *testing.T, doc string, args ...interface{}) *config.Config {
	t.Helper()
	doc = fmt.Sprintf(doc, args...) + fmt.Sprintf("\n[cache]\npath = %q\n", t.TempDir())
	cfg, err := config.Parse([]byte(doc))
	require.NoError(t, err)
	return cfg
}

// countingFactory wraps the fake backend and counts constructions.
func countingFactory(f *backendtest.Fake, calls *int) backend.Factory {
	inner := backendtest.Factory(f)
	return func(kind config.BackendKind) (backend.Backend, error) {
		*calls++
		return inner(kind)
	}
}

func names(handles []*subsystem.Handle) []string {
	var out []string
	for _, h := range handles {
		out = append(out, h.Name())
	}
	return out
}

func joinWithin(t *testing.T, s *Server, handles []*subsystem.Handle) int {
	t.Helper()
	done := make(chan int, 1)
	go func() { done <- s.Wait(handles) }()
	select {
	case n := <-done:
		return n
	case <-time.After(10 * time.Second):
		t.Fatal("subsystems did not join")
		return -1
	}
}

func TestScenarioMemoryNoProviders(t *testing.T) {
	fake := backendtest.New()
	var calls int
	cfg := parse(t, "backend = \"gstreamer\"\n[library]\nstore = \"memory\"\n")

	s, err := Build(context.Background(), cfg, Options{Backend: countingFactory(fake, &calls)})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Zero(t, s.App().Providers.Len())
	assert.Zero(t, s.SetupReport().Attempted)
	assert.Equal(t, "memory", library.Kind(s.App().Library))

	handles := s.Launch(time.Now())
	assert.Equal(t, []string{"sync", "cache", "player"}, names(handles))

	assert.True(t, s.Signal().Trigger())
	assert.Zero(t, joinWithin(t, s, handles))
	for _, h := range handles {
		assert.NoError(t, h.Err(), h.Name())
	}
	assert.True(t, fake.Closed(), "backend released after join")
}

func TestScenarioFailingProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := parse(t, "[soundcloud]\nclient_id = \"id\"\nauth_token = \"expired\"\nbase_url = %q\n", srv.URL)
	s, err := Build(context.Background(), cfg, Options{Backend: backendtest.Factory(backendtest.New())})
	require.NoError(t, err)

	report := s.SetupReport()
	assert.Equal(t, 1, report.Attempted)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "soundcloud", report.Failures[0].Title)
	assert.Equal(t, 1, s.App().Providers.Len(), "failed provider stays registered")

	handles := s.Launch(time.Now())
	assert.Len(t, handles, 3)

	s.Signal().Trigger()
	assert.Zero(t, joinWithin(t, s, handles))
}

func TestScenarioUnavailableSQLitePath(t *testing.T) {
	var calls int
	cfg := parse(t, "[library]\nstore = \"sqlite\"\npath = \"/nonexistent/dir/x.db\"\n")

	s, err := Build(context.Background(), cfg, Options{Backend: countingFactory(backendtest.New(), &calls)})
	require.Error(t, err)
	assert.Nil(t, s, "no server means no subsystem can be launched")
	assert.Zero(t, calls, "startup aborts before the backend is built")

	err = Run(context.Background(), cfg, Options{Backend: countingFactory(backendtest.New(), &calls)})
	assert.Error(t, err)
	assert.Zero(t, calls)
}

func TestBackendSelectionIsFatal(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"rodio unsupported", "backend = \"rodio\"\n", backend.ErrUnsupportedBackend},
		{"unknown tag", "backend = \"vlc\"\n", backend.ErrUnknownBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Build(context.Background(), parse(t, tt.doc), Options{})
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, s)
		})
	}
}

func TestInterruptStopsEverything(t *testing.T) {
	cfg := parse(t, "")
	s, err := Build(context.Background(), cfg, Options{
		Backend:    backendtest.Factory(backendtest.New()),
		Interrupts: []os.Signal{syscall.SIGUSR1},
	})
	require.NoError(t, err)

	handles := s.Launch(time.Now())
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	assert.Zero(t, joinWithin(t, s, handles))
	assert.False(t, s.Signal().Running())
}

func TestRunReturnsAfterCancel(t *testing.T) {
	cfg := parse(t, "")
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- Run(ctx, cfg, Options{Backend: backendtest.Factory(backendtest.New())}) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestPlanOrder(t *testing.T) {
	cfg := parse(t, "[mpd]\n[http]\n")
	assert.Equal(t, []string{"sync", "cache", "player", "mpd", "http"}, SubsystemNames(cfg))

	bare := parse(t, "")
	assert.Equal(t, []string{"sync", "cache", "player"}, SubsystemNames(bare))
}

func TestProvidersOrder(t *testing.T) {
	cfg := parse(t, `
[local]
path = "/music"
[spotify]
client_id = "a"
[pocketcasts]
email = "e"
[soundcloud]
client_id = "c"
`)
	var titles []string
	for _, p := range Providers(cfg) {
		titles = append(titles, p.Title())
	}
	assert.Equal(t, []string{"pocketcasts", "soundcloud", "spotify", "local"}, titles)
}
