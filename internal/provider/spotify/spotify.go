// Package spotify imports configured Spotify playlists using the client
// credentials flow.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"jukebox/internal/config"
	"jukebox/internal/library"
	"jukebox/internal/logging"
	"jukebox/internal/provider"
)

// Title is the provider title and URI scheme.
const Title = "spotify"

const (
	// DefaultTokenURL is the accounts service token endpoint.
	DefaultTokenURL = "https://accounts.spotify.com/api/token"
	// DefaultBaseURL is the Web API endpoint.
	DefaultBaseURL = "https://api.spotify.com"
)

// Provider talks to the Spotify Web API.
type Provider struct {
	creds     clientcredentials.Config
	baseURL   string
	playlists []string
	client    *http.Client
}

var _ provider.Provider = (*Provider)(nil)

type image struct {
	URL string `json:"url"`
}

type artist struct {
	Name string `json:"name"`
}

type album struct {
	Name   string  `json:"name"`
	Images []image `json:"images"`
}

type track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	DurationMS int64    `json:"duration_ms"`
	PreviewURL string   `json:"preview_url"`
	Artists    []artist `json:"artists"`
	Album      album    `json:"album"`
}

type playlistResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tracks struct {
		Items []struct {
			Track *track `json:"track"`
		} `json:"items"`
	} `json:"tracks"`
}

// New returns a provider for cfg.
func New(cfg *config.SpotifyConfig) *Provider {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	return &Provider{
		creds: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
		},
		baseURL:   strings.TrimSuffix(base, "/"),
		playlists: cfg.Playlists,
	}
}

func (p *Provider) Title() string { return Title }

// Setup fetches a first access token to validate the credentials.
func (p *Provider) Setup(ctx context.Context) error {
	if p.creds.ClientID == "" || p.creds.ClientSecret == "" {
		return errors.New("client_id and client_secret are required")
	}

	tok, err := p.creds.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain access token: %w", err)
	}

	// The token source outlives Setup, so refreshes must not use its context.
	src := oauth2.ReuseTokenSource(tok, p.creds.TokenSource(context.Background()))
	p.client = oauth2.NewClient(context.Background(), src)
	p.client.Timeout = 30 * time.Second
	return nil
}

// Sync imports every configured playlist.
func (p *Provider) Sync(ctx context.Context, store library.Store) (provider.SyncResult, error) {
	if p.client == nil {
		return provider.SyncResult{}, errors.New("spotify provider is not set up")
	}

	seen := make(map[string]bool)
	var (
		tracks    []library.Track
		playlists []library.Playlist
	)

	for _, id := range p.playlists {
		var resp playlistResponse
		if err := p.get(ctx, "/v1/playlists/"+url.PathEscape(id), &resp); err != nil {
			return provider.SyncResult{}, fmt.Errorf("failed to fetch playlist %s: %w", id, err)
		}

		pl := library.Playlist{
			ID:        Title + ":" + resp.ID,
			Title:     resp.Name,
			Provider:  Title,
			TrackURIs: []string{},
		}
		for _, item := range resp.Tracks.Items {
			if item.Track == nil || item.Track.ID == "" {
				continue
			}
			t := convert(item.Track)
			if !seen[t.URI] {
				seen[t.URI] = true
				tracks = append(tracks, t)
			}
			pl.TrackURIs = append(pl.TrackURIs, t.URI)
		}
		playlists = append(playlists, pl)
	}

	logging.Debug("Spotify: %d playlists, %d tracks", len(playlists), len(tracks))
	return provider.Replace(ctx, store, Title, tracks, playlists)
}

func convert(t *track) library.Track {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}

	lt := library.Track{
		URI:       Title + "://" + t.ID,
		Title:     t.Name,
		Artist:    strings.Join(names, ", "),
		Album:     t.Album.Name,
		Provider:  Title,
		Duration:  time.Duration(t.DurationMS) * time.Millisecond,
		StreamURL: t.PreviewURL,
	}
	if len(t.Album.Images) > 0 {
		lt.CoverURL = t.Album.Images[0].URL
	}
	return lt
}

func (p *Provider) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
