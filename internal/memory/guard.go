package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"jukebox/internal/logging"
	"jukebox/internal/metrics"
)

// GuardConfig holds the thresholds for a Guard.
type GuardConfig struct {
	// Limit in bytes. Zero means use GOMEMLIMIT, and no limit disables the guard.
	Limit int64

	// Resume is the usage ratio below which a paused guard resumes.
	Resume float64

	// Pause is the usage ratio at which the guard pauses.
	Pause float64

	CheckInterval time.Duration
}

// DefaultGuardConfig returns the thresholds used by the cover cache.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Resume:        0.7,
		Pause:         0.85,
		CheckInterval: 5 * time.Second,
	}
}

// Guard gives backpressure to memory heavy work such as image decoding.
// Workers call Wait before each unit of work; while heap usage is above the
// pause mark Wait blocks until usage drops below the resume mark.
type Guard struct {
	cfg   GuardConfig
	limit int64

	mu      sync.Mutex
	current uint64
	paused  bool
	resumed chan struct{}
}

// NewGuard creates a Guard. It does nothing until Run is called.
func NewGuard(cfg GuardConfig) *Guard {
	limit := cfg.Limit
	if limit == 0 {
		if current := debug.SetMemoryLimit(-1); current > 0 && current < 1<<62 {
			limit = current
		}
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultGuardConfig().CheckInterval
	}

	return &Guard{
		cfg:     cfg,
		limit:   limit,
		resumed: make(chan struct{}),
	}
}

// Enabled reports whether the guard has a limit to enforce.
func (g *Guard) Enabled() bool {
	return g != nil && g.limit > 0
}

// Run samples heap usage until ctx is done. It returns immediately when the
// guard has no limit.
func (g *Guard) Run(ctx context.Context) {
	if !g.Enabled() {
		return
	}

	ticker := time.NewTicker(g.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			g.observe(stats.Alloc)
		case <-ctx.Done():
			g.release()
			return
		}
	}
}

func (g *Guard) observe(alloc uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.current = alloc
	usage := float64(alloc) / float64(g.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case usage >= g.cfg.Pause && !g.paused:
		logging.Warn("Memory at %.1f%% of %s, pausing cover processing", usage*100, FormatBytes(g.limit))
		g.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryPausesTotal.Inc()
		go runtime.GC()
	case usage < g.cfg.Resume && g.paused:
		logging.Info("Memory back to %.1f%%, resuming cover processing", usage*100)
		g.unpauseLocked()
	}
}

// release unblocks every waiter, used when the guard stops.
func (g *Guard) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		g.unpauseLocked()
	}
}

func (g *Guard) unpauseLocked() {
	g.paused = false
	metrics.MemoryPaused.Set(0)
	close(g.resumed)
	g.resumed = make(chan struct{})
}

// Paused reports whether work is currently held back.
func (g *Guard) Paused() bool {
	if g == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Wait blocks while the guard is paused. A nil guard never blocks.
func (g *Guard) Wait(ctx context.Context) error {
	if g == nil {
		return nil
	}

	g.mu.Lock()
	if !g.paused {
		g.mu.Unlock()
		return nil
	}
	resumed := g.resumed
	g.mu.Unlock()

	select {
	case <-resumed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
