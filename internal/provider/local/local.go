// Package local imports audio files and playlists from a directory tree.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"jukebox/internal/config"
	"jukebox/internal/filesystem"
	"jukebox/internal/library"
	"jukebox/internal/logging"
	"jukebox/internal/mediatypes"
	"jukebox/internal/playlist"
	"jukebox/internal/provider"
)

// Title is the provider title and URI scheme.
const Title = "local"

// coverNames are the file names, without extension, picked up as album art.
var coverNames = map[string]bool{
	"cover":  true,
	"folder": true,
	"front":  true,
	"album":  true,
}

// Provider scans a music directory.
type Provider struct {
	path string
	root string
}

var _ provider.Provider = (*Provider)(nil)

// New returns a provider for cfg.Path. Nothing is touched until Setup.
func New(cfg *config.LocalConfig) *Provider {
	return &Provider{path: cfg.Path}
}

func (p *Provider) Title() string { return Title }

// Setup checks that the music directory exists and is readable.
func (p *Provider) Setup(ctx context.Context) error {
	root, err := filepath.Abs(p.path)
	if err != nil {
		return fmt.Errorf("invalid music path %s: %w", p.path, err)
	}

	info, err := filesystem.Stat(ctx, root, filesystem.DefaultRetryConfig())
	if err != nil {
		return fmt.Errorf("cannot access music directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("music path %s is not a directory", root)
	}
	if _, err := filesystem.ReadDir(ctx, root, filesystem.DefaultRetryConfig()); err != nil {
		return fmt.Errorf("music directory not readable: %w", err)
	}

	p.root = root
	logging.Debug("Local provider scanning %s", root)
	return nil
}

type scan struct {
	mu        sync.Mutex
	audio     []string
	playlists []string
	covers    map[string]string
}

// Sync walks the music directory and replaces the local catalogue.
func (p *Provider) Sync(ctx context.Context, store library.Store) (provider.SyncResult, error) {
	if p.root == "" {
		return provider.SyncResult{}, errors.New("local provider is not set up")
	}

	found, err := p.walk(ctx)
	if err != nil {
		return provider.SyncResult{}, err
	}

	tracks := make([]library.Track, 0, len(found.audio))
	known := make(map[string]bool, len(found.audio))
	for _, path := range found.audio {
		t := p.track(path, found.covers[filepath.Dir(path)])
		known[t.URI] = true
		tracks = append(tracks, t)
	}

	var playlists []library.Playlist
	for _, path := range found.playlists {
		pl, err := playlist.Parse(path, p.root)
		if err != nil {
			logging.Warn("Skipping playlist %s: %v", path, err)
			continue
		}
		playlists = append(playlists, p.playlist(pl, known))
	}

	return provider.Replace(ctx, store, Title, tracks, playlists)
}

func (p *Provider) walk(ctx context.Context) (*scan, error) {
	found := &scan{covers: make(map[string]string)}
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, p.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logging.Debug("Skipping %s: %v", path, err)
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") && path != p.root {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		kind := mediatypes.FileTypeOf(path)
		if kind == mediatypes.FileTypeOther && filepath.Ext(path) == "" {
			kind = sniff(ctx, path)
		}

		found.mu.Lock()
		defer found.mu.Unlock()

		switch kind {
		case mediatypes.FileTypeAudio:
			found.audio = append(found.audio, path)
		case mediatypes.FileTypePlaylist:
			found.playlists = append(found.playlists, path)
		case mediatypes.FileTypeCover:
			base := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
			if coverNames[base] {
				found.covers[filepath.Dir(path)] = path
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", p.root, err)
	}

	sort.Strings(found.audio)
	sort.Strings(found.playlists)
	return found, nil
}

// sniff classifies extensionless files by content.
func sniff(ctx context.Context, path string) mediatypes.FileType {
	f, err := filesystem.Open(ctx, path, filesystem.DefaultRetryConfig())
	if err != nil {
		return mediatypes.FileTypeOther
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return mediatypes.FileTypeOther
	}
	if mediatypes.IsAudioMime(mtype.String()) {
		return mediatypes.FileTypeAudio
	}
	return mediatypes.FileTypeOther
}

func (p *Provider) uri(path string) string {
	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return Title + "://" + filepath.ToSlash(rel)
}

func (p *Provider) track(path, cover string) library.Track {
	name := filepath.Base(path)
	t := library.Track{
		URI:       p.uri(path),
		Title:     strings.TrimSuffix(name, filepath.Ext(name)),
		Provider:  Title,
		StreamURL: filesystem.FileURL(path),
		Path:      path,
	}

	dir := filepath.Dir(path)
	if dir != p.root {
		t.Album = filepath.Base(dir)
		if parent := filepath.Dir(dir); parent != p.root && parent != dir {
			t.Artist = filepath.Base(parent)
		}
	}
	if cover != "" {
		t.CoverURL = filesystem.FileURL(cover)
	}
	return t
}

func (p *Provider) playlist(pl *playlist.Playlist, known map[string]bool) library.Playlist {
	uri := p.uri(pl.Path)
	out := library.Playlist{
		// Stable across rescans so clients can keep referring to it.
		ID:        uuid.NewSHA1(uuid.NameSpaceURL, []byte(uri)).String(),
		Title:     pl.Name,
		Provider:  Title,
		TrackURIs: []string{},
	}

	for _, item := range pl.Items {
		if !item.Exists {
			continue
		}
		trackURI := Title + "://" + item.Path
		if known[trackURI] {
			out.TrackURIs = append(out.TrackURIs, trackURI)
		}
	}
	return out
}
