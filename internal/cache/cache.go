// Package cache keeps square JPEG thumbnails of every track's cover art on
// disk so frontends can serve them without touching the providers.
package cache

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec // SHA1 names cache files, not used for security
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/hashicorp/go-retryablehttp"
	_ "golang.org/x/image/webp"

	"jukebox/internal/app"
	"jukebox/internal/config"
	"jukebox/internal/library"
	"jukebox/internal/logging"
	"jukebox/internal/memory"
	"jukebox/internal/metrics"
	"jukebox/internal/shutdown"
	"jukebox/internal/workers"
)

// ThumbnailSize is the edge length of cached covers in pixels.
const ThumbnailSize = 300

// maxCoverBytes bounds downloads of a single cover.
const maxCoverBytes = 20 << 20

// Engine downloads and thumbnails cover art.
type Engine struct {
	dir      string
	interval time.Duration
	client   *retryablehttp.Client
	workers  int
	guard    *memory.Guard
}

// Report counts the outcome of one cache pass.
type Report struct {
	Hits   int
	Misses int
	Errors int
}

// New returns an engine writing to cfg.Path.
func New(cfg config.CacheConfig) *Engine {
	dir := cfg.Path
	if dir == "" {
		dir = config.DefaultCachePath
	}
	interval := cfg.Interval.Duration
	if interval <= 0 {
		interval = config.DefaultCacheInterval
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 30 * time.Second
	client.Logger = logging.KV{}

	return &Engine{
		dir:      dir,
		interval: interval,
		client:   client,
		workers:  workers.ForIO(8),
		guard:    memory.NewGuard(memory.DefaultGuardConfig()),
	}
}

// Dir returns the cache directory.
func (e *Engine) Dir() string {
	return e.dir
}

// File returns the thumbnail path for a track URI inside dir.
func File(dir, uri string) string {
	sum := sha1.Sum([]byte(uri)) //nolint:gosec
	return filepath.Join(dir, hex.EncodeToString(sum[:])+".jpg")
}

// Run caches covers at start and on every interval until shutdown.
func (e *Engine) Run(a *app.App, sig *shutdown.Signal) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", e.dir, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.guard.Run(sig.Context())
	}()
	defer wg.Wait()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		if _, err := e.CacheAll(sig.Context(), a.Library); err != nil && sig.Running() {
			logging.Error("Cover cache pass failed: %v", err)
		}

		select {
		case <-ticker.C:
		case <-sig.Done():
			logging.Info("Cache engine stopped")
			return nil
		}
	}
}

// CacheAll thumbnails the cover of every library track that has one.
// Individual failures are counted, not returned.
func (e *Engine) CacheAll(ctx context.Context, store library.Store) (Report, error) {
	start := time.Now()
	defer func() { metrics.CacheRunDuration.Observe(time.Since(start).Seconds()) }()

	tracks, err := store.GetTracks(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list tracks: %w", err)
	}

	var todo []library.Track
	for _, t := range tracks {
		if t.CoverURL != "" {
			todo = append(todo, t)
		}
	}

	var hits, misses, failures atomic.Int64
	err = workers.Each(ctx, e.workers, todo, func(ctx context.Context, t library.Track) error {
		hit, err := e.Ensure(ctx, t)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures.Add(1)
			logging.Debug("Cover for %s not cached: %v", t.URI, err)
		case hit:
			hits.Add(1)
		default:
			misses.Add(1)
		}
		return nil
	})

	report := Report{Hits: int(hits.Load()), Misses: int(misses.Load()), Errors: int(failures.Load())}
	if len(todo) > 0 {
		logging.Info("Cover cache: %d cached, %d new, %d failed", report.Hits, report.Misses, report.Errors)
	}
	return report, err
}

// Ensure makes sure t's thumbnail exists. It reports whether it already did.
func (e *Engine) Ensure(ctx context.Context, t library.Track) (bool, error) {
	dest := File(e.dir, t.URI)
	if _, err := os.Stat(dest); err == nil {
		metrics.CacheHitsTotal.Inc()
		return true, nil
	}

	data, err := e.fetch(ctx, t.CoverURL)
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("download").Inc()
		return false, err
	}

	if err := e.guard.Wait(ctx); err != nil {
		return false, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("decode").Inc()
		return false, fmt.Errorf("failed to decode cover: %w", err)
	}

	if err := writeThumbnail(dest, img); err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("encode").Inc()
		return false, err
	}

	metrics.CacheMissesTotal.Inc()
	return false, nil
}

func (e *Engine) fetch(ctx context.Context, raw string) ([]byte, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid cover URL %q: %w", raw, err)
	}

	switch u.Scheme {
	case "file":
		return os.ReadFile(u.Path)
	case "http", "https":
	default:
		return nil, fmt.Errorf("unsupported cover URL scheme %q", u.Scheme)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", raw, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxCoverBytes {
		return nil, errors.New("cover exceeds size limit")
	}
	return data, nil
}

// writeThumbnail crops img to a centred square and writes it atomically.
func writeThumbnail(dest string, img image.Image) error {
	thumb := imaging.Fill(img, ThumbnailSize, ThumbnailSize, imaging.Center, imaging.Lanczos)

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".cover-*.jpg")
	if err != nil {
		return fmt.Errorf("failed to create thumbnail: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := imaging.Encode(tmp, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
