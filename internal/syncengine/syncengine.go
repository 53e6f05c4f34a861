// Package syncengine periodically imports every ready provider's catalogue
// into the library.
package syncengine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"jukebox/internal/app"
	"jukebox/internal/config"
	"jukebox/internal/library"
	"jukebox/internal/logging"
	"jukebox/internal/metrics"
	"jukebox/internal/provider"
	"jukebox/internal/shutdown"
)

// statsInterval is how often the library size gauges are refreshed.
const statsInterval = time.Minute

// Engine runs provider syncs on an interval.
type Engine struct {
	interval   time.Duration
	maxRetries int
	// initialBackoff is the first retry delay; it doubles per attempt.
	initialBackoff time.Duration
}

// Report describes one sync pass.
type Report struct {
	Started  time.Time                      `json:"started"`
	Duration time.Duration                  `json:"duration"`
	Results  map[string]provider.SyncResult `json:"results"`
	Errors   map[string]string              `json:"errors,omitempty"`
	Skipped  []string                       `json:"skipped,omitempty"`
}

// New returns an engine configured by cfg.
func New(cfg config.SyncConfig) *Engine {
	interval := cfg.Interval.Duration
	if interval <= 0 {
		interval = config.DefaultSyncInterval
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = config.DefaultSyncRetries
	}
	return &Engine{
		interval:       interval,
		maxRetries:     retries,
		initialBackoff: time.Second,
	}
}

// Run syncs immediately and then on every interval until the signal
// stops running.
func (e *Engine) Run(a *app.App, sig *shutdown.Signal) error {
	ctx := sig.Context()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		metrics.NewCollector(libraryStats(a.Library), statsInterval).Run(sig.Done())
	}()
	defer wg.Wait()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		e.SyncAll(ctx, a)

		select {
		case <-ticker.C:
		case <-sig.Done():
			logging.Info("Sync engine stopped")
			return nil
		}
	}
}

// SyncAll runs one pass over the registry in order. Providers that are not
// ready are skipped; a provider that keeps failing after retries is logged
// and the pass continues.
func (e *Engine) SyncAll(ctx context.Context, a *app.App) Report {
	report := Report{
		Started: time.Now(),
		Results: make(map[string]provider.SyncResult),
		Errors:  make(map[string]string),
	}
	metrics.SyncRunsTotal.Inc()

	for _, p := range a.Providers.All() {
		if ctx.Err() != nil {
			break
		}

		title := p.Title()
		if state, _ := p.State(); state != provider.StateReady {
			logging.Debug("Skipping sync of %s provider (%s)", title, state)
			report.Skipped = append(report.Skipped, title)
			continue
		}

		res, err := e.syncOne(ctx, p, a.Library)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logging.Error("Sync of %s provider failed: %v", title, err)
			metrics.SyncErrorsTotal.WithLabelValues(title).Inc()
			report.Errors[title] = err.Error()
			continue
		}

		logging.Info("Synced %s provider: %d tracks, %d playlists", title, res.Tracks, res.Playlists)
		metrics.SyncTracksTotal.WithLabelValues(title).Add(float64(res.Tracks))
		report.Results[title] = res
	}

	report.Duration = time.Since(report.Started)
	metrics.SyncLastRunTimestamp.Set(float64(report.Started.Unix()))
	metrics.SyncLastRunDuration.Set(report.Duration.Seconds())
	return report
}

func (e *Engine) syncOne(ctx context.Context, p *provider.Shared, store library.Store) (provider.SyncResult, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.initialBackoff

	attempt := 0
	return backoff.Retry(ctx, func() (provider.SyncResult, error) {
		attempt++
		res, err := p.Sync(ctx, store)
		if err != nil && errors.Is(err, context.Canceled) {
			return res, backoff.Permanent(err)
		}
		return res, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(e.maxRetries)+1),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logging.Warn("Sync of %s provider failed (attempt %d), retrying in %v: %v", p.Title(), attempt, wait, err)
		}),
	)
}

func libraryStats(store library.Store) metrics.StatsProvider {
	return metrics.StatsProviderFunc(func(ctx context.Context) (metrics.Stats, error) {
		st, err := store.Stats(ctx)
		if err != nil {
			return metrics.Stats{}, err
		}
		return metrics.Stats{TracksByProvider: st.Providers, Playlists: st.Playlists}, nil
	})
}
