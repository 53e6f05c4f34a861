// Package pocketcasts imports subscribed podcast episodes from a
// Pocket Casts account.
package pocketcasts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"jukebox/internal/config"
	"jukebox/internal/library"
	"jukebox/internal/logging"
	"jukebox/internal/provider"
)

// Title is the provider title and URI scheme.
const Title = "pocketcasts"

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.pocketcasts.com"

// Provider talks to the Pocket Casts API.
type Provider struct {
	email    string
	password string
	client   *resty.Client
	token    string
}

var _ provider.Provider = (*Provider)(nil)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Scope    string `json:"scope"`
}

type loginResponse struct {
	Token string `json:"token"`
	UUID  string `json:"uuid"`
}

type podcast struct {
	UUID   string `json:"uuid"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

type podcastList struct {
	Podcasts []podcast `json:"podcasts"`
}

type episode struct {
	UUID     string  `json:"uuid"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
}

type episodeList struct {
	Episodes []episode `json:"episodes"`
}

type apiError struct {
	Message string `json:"message"`
}

// New returns a provider for cfg.
func New(cfg *config.PocketcastsConfig) *Provider {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(base, "/")).
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Accept", "application/json").
		SetError(&apiError{})

	return &Provider{
		email:    cfg.Email,
		password: cfg.Password,
		client:   client,
	}
}

func (p *Provider) Title() string { return Title }

// Setup logs in and keeps the session token.
func (p *Provider) Setup(ctx context.Context) error {
	if p.email == "" || p.password == "" {
		return errors.New("email and password are required")
	}

	var out loginResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(loginRequest{Email: p.email, Password: p.password, Scope: "webplayer"}).
		SetResult(&out).
		Post("/user/login")
	if err := check(resp, err, "login"); err != nil {
		return err
	}
	if out.Token == "" {
		return errors.New("login response carried no token")
	}

	p.token = out.Token
	return nil
}

// Sync imports every episode of every subscribed podcast. Each podcast
// becomes a playlist of its episodes.
func (p *Provider) Sync(ctx context.Context, store library.Store) (provider.SyncResult, error) {
	if p.token == "" {
		return provider.SyncResult{}, errors.New("pocketcasts provider is not logged in")
	}

	var subs podcastList
	resp, err := p.request(ctx).SetBody(map[string]any{}).SetResult(&subs).Post("/user/podcast/list")
	if err := check(resp, err, "podcast list"); err != nil {
		return provider.SyncResult{}, err
	}

	var (
		tracks    []library.Track
		playlists []library.Playlist
	)
	for _, pod := range subs.Podcasts {
		var eps episodeList
		resp, err := p.request(ctx).
			SetBody(map[string]string{"uuid": pod.UUID}).
			SetResult(&eps).
			Post("/user/podcast/episodes")
		if err := check(resp, err, "episodes of "+pod.Title); err != nil {
			return provider.SyncResult{}, err
		}

		pl := library.Playlist{
			ID:        uuid.NewSHA1(uuid.NameSpaceURL, []byte(Title+"://podcast/"+pod.UUID)).String(),
			Title:     pod.Title,
			Provider:  Title,
			TrackURIs: make([]string, 0, len(eps.Episodes)),
		}
		for _, ep := range eps.Episodes {
			t := library.Track{
				URI:       Title + "://" + ep.UUID,
				Title:     ep.Title,
				Artist:    pod.Author,
				Album:     pod.Title,
				Provider:  Title,
				Duration:  time.Duration(ep.Duration * float64(time.Second)),
				StreamURL: ep.URL,
			}
			tracks = append(tracks, t)
			pl.TrackURIs = append(pl.TrackURIs, t.URI)
		}
		playlists = append(playlists, pl)
	}

	logging.Debug("Pocketcasts: %d podcasts, %d episodes", len(playlists), len(tracks))
	return provider.Replace(ctx, store, Title, tracks, playlists)
}

func (p *Provider) request(ctx context.Context) *resty.Request {
	return p.client.R().SetContext(ctx).SetAuthToken(p.token)
}

func check(resp *resty.Response, err error, what string) error {
	if err != nil {
		return fmt.Errorf("%s request failed: %w", what, err)
	}
	if resp.IsError() {
		if e, ok := resp.Error().(*apiError); ok && e.Message != "" {
			return fmt.Errorf("%s failed: %s (%s)", what, resp.Status(), e.Message)
		}
		return fmt.Errorf("%s failed: %s", what, resp.Status())
	}
	return nil
}
