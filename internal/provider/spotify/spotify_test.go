package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jukebox/internal/config"
	"jukebox/internal/library"
)

const playlistJSON = `{
  "id": "pl1",
  "name": "Focus",
  "tracks": {"items": [
    {"track": {"id": "t1", "name": "Weightless", "duration_ms": 480000,
      "preview_url": "https://p.scdn.co/t1",
      "artists": [{"name": "Marconi Union"}],
      "album": {"name": "Distance", "images": [{"url": "https://i.scdn.co/t1.jpg"}]}}},
    {"track": null},
    {"track": {"id": "t2", "name": "Nuvole Bianche", "artists": [{"name": "Ludovico Einaudi"}], "album": {"name": "Una Mattina"}}}
  ]}
}`

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/token", func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if !ok || id != "cid" || secret != "secret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("GET /v1/playlists/pl1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(playlistJSON))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newProvider(srv *httptest.Server, secret string, playlists ...string) *Provider {
	return New(&config.SpotifyConfig{
		ClientID:     "cid",
		ClientSecret: secret,
		Playlists:    playlists,
		TokenURL:     srv.URL + "/api/token",
		BaseURL:      srv.URL,
	})
}

func TestSetup(t *testing.T) {
	srv := fakeAPI(t)

	assert.NoError(t, newProvider(srv, "secret").Setup(context.Background()))
	assert.Error(t, newProvider(srv, "wrong").Setup(context.Background()))
	assert.Error(t, newProvider(srv, "").Setup(context.Background()))
}

func TestSync(t *testing.T) {
	srv := fakeAPI(t)
	ctx := context.Background()
	store := library.NewMemoryStore()

	p := newProvider(srv, "secret", "pl1")
	_, err := p.Sync(ctx, store)
	require.Error(t, err)

	require.NoError(t, p.Setup(ctx))
	res, err := p.Sync(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Tracks)
	assert.Equal(t, 1, res.Playlists)

	tr, err := store.GetTrack(ctx, "spotify://t1")
	require.NoError(t, err)
	assert.Equal(t, "Marconi Union", tr.Artist)
	assert.Equal(t, "https://i.scdn.co/t1.jpg", tr.CoverURL)

	pl, err := store.GetPlaylist(ctx, "spotify:pl1")
	require.NoError(t, err)
	assert.Equal(t, "Focus", pl.Title)
	assert.Equal(t, []string{"spotify://t1", "spotify://t2"}, pl.TrackURIs)
}

func TestSyncUnknownPlaylist(t *testing.T) {
	srv := fakeAPI(t)
	p := newProvider(srv, "secret", "missing")
	require.NoError(t, p.Setup(context.Background()))

	_, err := p.Sync(context.Background(), library.NewMemoryStore())
	assert.Error(t, err)
}
