// Package soundcloud imports a SoundCloud account's likes and playlists.
package soundcloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"jukebox/internal/config"
	"jukebox/internal/library"
	"jukebox/internal/logging"
	"jukebox/internal/provider"
)

// Title is the provider title and URI scheme.
const Title = "soundcloud"

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.soundcloud.com"

// Provider talks to the SoundCloud API.
type Provider struct {
	clientID  string
	authToken string
	baseURL   string
	client    *retryablehttp.Client
	userID    int64
}

var _ provider.Provider = (*Provider)(nil)

type user struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type track struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Duration   int64  `json:"duration"`
	ArtworkURL string `json:"artwork_url"`
	StreamURL  string `json:"stream_url"`
	User       user   `json:"user"`
}

type playlist struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Tracks []track `json:"tracks"`
}

// New returns a provider for cfg.
func New(cfg *config.SoundcloudConfig) *Provider {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 30 * time.Second
	client.Logger = logging.KV{}

	return &Provider{
		clientID:  cfg.ClientID,
		authToken: cfg.AuthToken,
		baseURL:   strings.TrimSuffix(base, "/"),
		client:    client,
	}
}

func (p *Provider) Title() string { return Title }

// Setup validates the token by resolving the authenticated user.
func (p *Provider) Setup(ctx context.Context) error {
	if p.clientID == "" || p.authToken == "" {
		return errors.New("client_id and auth_token are required")
	}

	var me user
	if err := p.get(ctx, "/me", &me); err != nil {
		return fmt.Errorf("token validation failed: %w", err)
	}
	if me.ID == 0 {
		return errors.New("token validation returned no user")
	}

	p.userID = me.ID
	logging.Debug("Soundcloud: authenticated as %s", me.Username)
	return nil
}

// Sync imports liked tracks plus the user's playlists.
func (p *Provider) Sync(ctx context.Context, store library.Store) (provider.SyncResult, error) {
	if p.userID == 0 {
		return provider.SyncResult{}, errors.New("soundcloud provider is not set up")
	}

	var likes []track
	if err := p.get(ctx, "/users/"+strconv.FormatInt(p.userID, 10)+"/favorites", &likes); err != nil {
		return provider.SyncResult{}, fmt.Errorf("failed to fetch likes: %w", err)
	}

	var lists []playlist
	if err := p.get(ctx, "/me/playlists", &lists); err != nil {
		return provider.SyncResult{}, fmt.Errorf("failed to fetch playlists: %w", err)
	}

	seen := make(map[string]bool)
	var tracks []library.Track
	add := func(t track) string {
		lt := p.convert(t)
		if !seen[lt.URI] {
			seen[lt.URI] = true
			tracks = append(tracks, lt)
		}
		return lt.URI
	}

	for _, t := range likes {
		add(t)
	}

	playlists := make([]library.Playlist, 0, len(lists))
	for _, l := range lists {
		pl := library.Playlist{
			ID:        Title + ":" + strconv.FormatInt(l.ID, 10),
			Title:     l.Title,
			Provider:  Title,
			TrackURIs: make([]string, 0, len(l.Tracks)),
		}
		for _, t := range l.Tracks {
			pl.TrackURIs = append(pl.TrackURIs, add(t))
		}
		playlists = append(playlists, pl)
	}

	return provider.Replace(ctx, store, Title, tracks, playlists)
}

func (p *Provider) convert(t track) library.Track {
	lt := library.Track{
		URI:      Title + "://" + strconv.FormatInt(t.ID, 10),
		Title:    t.Title,
		Artist:   t.User.Username,
		Provider: Title,
		Duration: time.Duration(t.Duration) * time.Millisecond,
		CoverURL: t.ArtworkURL,
	}
	if t.StreamURL != "" {
		lt.StreamURL = t.StreamURL + "?client_id=" + url.QueryEscape(p.clientID)
	}
	return lt
}

func (p *Provider) get(ctx context.Context, path string, out any) error {
	u := p.baseURL + path + "?client_id=" + url.QueryEscape(p.clientID)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "OAuth "+p.authToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
