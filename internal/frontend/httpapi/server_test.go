package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"jukebox/internal/app"
	"jukebox/internal/backend"
	"jukebox/internal/backend/backendtest"
	"jukebox/internal/cache"
	"jukebox/internal/config"
	"jukebox/internal/library"
	"jukebox/internal/player"
	"jukebox/internal/provider"
	"jukebox/internal/shutdown"
)

type stubProvider struct {
	title string
	err   error
}

func (p *stubProvider) Title() string               { return p.title }
func (p *stubProvider) Setup(context.Context) error { return p.err }
func (p *stubProvider) Sync(context.Context, library.Store) (provider.SyncResult, error) {
	return provider.SyncResult{}, nil
}

var fixtureTracks = []library.Track{
	{URI: "local://Beatles/Abbey Road/01.mp3", Title: "Come Together", Artist: "The Beatles", Album: "Abbey Road", Provider: "local", StreamURL: "file:///music/01.mp3"},
	{URI: "soundcloud://42", Title: "Field Recording", Artist: "someone", Provider: "soundcloud", StreamURL: "https://example.com/42"},
}

type env struct {
	app      *app.App
	fake     *backendtest.Fake
	sig      *shutdown.Signal
	srv      *Server
	coverDir string
}

func newEnv(t *testing.T, cfg *config.HTTPConfig) *env {
	t.Helper()
	ctx := context.Background()

	store := library.NewMemoryStore()
	require.NoError(t, store.AddTracks(ctx, fixtureTracks))
	require.NoError(t, store.AddPlaylist(ctx, &library.Playlist{ID: "soundcloud:7", Title: "Mix", Provider: "soundcloud", TrackURIs: []string{"soundcloud://42"}}))

	reg := provider.NewRegistry()
	reg.Register(&stubProvider{title: "soundcloud", err: errors.New("token expired")})
	reg.Register(&stubProvider{title: "local"})
	reg.Setup(ctx)

	fake := backendtest.New()
	a, err := app.New(store, reg, fake)
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = a.Player.Run(runCtx) }()
	<-a.Player.Running()
	t.Cleanup(cancel)

	if cfg == nil {
		cfg = &config.HTTPConfig{}
	}
	sig := shutdown.New()
	dir := t.TempDir()
	return &env{app: a, fake: fake, sig: sig, srv: New(a, cfg, sig, dir), coverDir: dir}
}

func (e *env) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestLibraryRoutes(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodGet, "/api/library/tracks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]library.Track](t, rec), 2)

	rec = e.do(t, http.MethodGet, "/api/library/tracks?q=beatles", "")
	tracks := decode[[]library.Track](t, rec)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Come Together", tracks[0].Title)

	rec = e.do(t, http.MethodGet, "/api/library/tracks?q=nothing", "")
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = e.do(t, http.MethodGet, "/api/library/tracks/"+url.PathEscape(fixtureTracks[0].URI), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fixtureTracks[0].URI, decode[library.Track](t, rec).URI)

	rec = e.do(t, http.MethodGet, "/api/library/tracks/"+url.PathEscape("local://missing.mp3"), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/library/playlists", "")
	assert.Len(t, decode[[]library.Playlist](t, rec), 1)

	rec = e.do(t, http.MethodGet, "/api/library/playlists/soundcloud:7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"soundcloud://42"}, decode[library.Playlist](t, rec).TrackURIs)

	rec = e.do(t, http.MethodGet, "/api/library/playlists/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/library/stats", "")
	assert.Equal(t, 2, decode[library.Stats](t, rec).Tracks)
}

func TestProvidersRoute(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodGet, "/api/providers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []struct {
		Title string `json:"title"`
		State string `json:"state"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "soundcloud", infos[0].Title)
	assert.Equal(t, "failed", infos[0].State)
	assert.Contains(t, infos[0].Error, "token expired")
	assert.Equal(t, "ready", infos[1].State)
}

func TestQueueAndPlayer(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodPost, "/api/queue", `{"uri":"soundcloud://42"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, decode[[]library.Track](t, rec), 1)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPost, "/api/queue", `{"uri":"x://y"}`).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/api/queue", `not json`).Code)

	rec = e.do(t, http.MethodPost, "/api/player/play", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decode[player.Status](t, rec)
	assert.Equal(t, backend.StatePlaying, st.State)
	require.NotNil(t, st.Current)
	assert.Equal(t, "soundcloud://42", st.Current.URI)
	assert.Equal(t, "soundcloud://42", e.fake.Current())

	rec = e.do(t, http.MethodPost, "/api/player/pause", "")
	assert.Equal(t, backend.StatePaused, decode[player.Status](t, rec).State)

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/api/player/rewind", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, e.do(t, http.MethodGet, "/api/player/play", "").Code)

	rec = e.do(t, http.MethodDelete, "/api/queue", "")
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = e.do(t, http.MethodGet, "/api/player", "")
	assert.Equal(t, 0, decode[player.Status](t, rec).QueueLength)
}

func TestCoverRoute(t *testing.T) {
	e := newEnv(t, nil)
	uri := fixtureTracks[0].URI

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/covers/"+url.PathEscape(uri), "").Code)

	require.NoError(t, os.WriteFile(cache.File(e.coverDir, uri), []byte("\xff\xd8\xff\xe0jpeg"), 0o644))
	rec := e.do(t, http.MethodGet, "/api/covers/"+url.PathEscape(uri), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Cache-Control"))
}

func TestOperationalRoutes(t *testing.T) {
	e := newEnv(t, nil)

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/livez", "").Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/readyz", "").Code)

	rec := e.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	h := decode[HealthResponse](t, rec)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, 2, h.Providers)
	assert.Equal(t, 1, h.ProvidersReady)
	assert.Equal(t, 2, h.Tracks)

	rec = e.do(t, http.MethodGet, "/version", "")
	assert.Contains(t, rec.Body.String(), `"version"`)

	rec = e.do(t, http.MethodGet, "/metrics", "")
	assert.Contains(t, rec.Body.String(), "jukebox_")

	e.sig.Trigger()
	assert.Equal(t, http.StatusServiceUnavailable, e.do(t, http.MethodGet, "/readyz", "").Code)
}

func TestPasswordProtection(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	e := newEnv(t, &config.HTTPConfig{PasswordHash: string(hash)})

	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/api/player", "").Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/livez", "").Code)

	r := httptest.NewRequest(http.MethodGet, "/api/player", nil)
	r.SetBasicAuth("jukebox", "hunter2")
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSocketPushesPlayerState(t *testing.T) {
	e := newEnv(t, nil)
	ts := httptest.NewServer(e.srv.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/socket", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var st player.Status
	require.NoError(t, conn.ReadJSON(&st))
	assert.Equal(t, backend.StateStopped, st.State)

	e.app.Queue.Add(fixtureTracks[0])
	require.NoError(t, e.app.Player.Play(context.Background()))

	for st.State != backend.StatePlaying {
		require.NoError(t, conn.ReadJSON(&st))
	}
	require.NotNil(t, st.Current)
	assert.Equal(t, fixtureTracks[0].URI, st.Current.URI)

	e.sig.Trigger()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
			break
		}
	}
}

func TestServeStopsOnShutdown(t *testing.T) {
	e := newEnv(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() { errc <- e.srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/livez")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	e.sig.Trigger()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
