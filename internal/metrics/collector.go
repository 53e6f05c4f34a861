package metrics

import (
	"context"
	"time"

	"jukebox/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats(ctx context.Context) (Stats, error)
}

// StatsProviderFunc adapts a function to StatsProvider.
type StatsProviderFunc func(ctx context.Context) (Stats, error)

// GetStats implements StatsProvider.
func (f StatsProviderFunc) GetStats(ctx context.Context) (Stats, error) {
	return f(ctx)
}

// Stats holds the current library statistics
type Stats struct {
	TracksByProvider map[string]int
	Playlists        int
}

// Collector periodically collects and updates library gauges
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
	}
}

// Run collects immediately and then on every tick until done is closed.
func (c *Collector) Run(done <-chan struct{}) {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-done:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := c.statsProvider.GetStats(ctx)
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	total := 0
	for provider, n := range stats.TracksByProvider {
		LibraryTracks.WithLabelValues(provider).Set(float64(n))
		total += n
	}
	LibraryPlaylists.Set(float64(stats.Playlists))

	logging.Debug("Metrics collected: tracks=%d, playlists=%d", total, stats.Playlists)
}
