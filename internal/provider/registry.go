package provider

import (
	"context"
	"slices"
	"sync"

	"jukebox/internal/logging"
	"jukebox/internal/metrics"
)

// Registry is the ordered list of configured providers.
type Registry struct {
	mu      sync.RWMutex
	entries []*Shared
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends p and returns its shared handle.
func (r *Registry) Register(p Provider) *Shared {
	s := NewShared(p)
	r.mu.Lock()
	r.entries = append(r.entries, s)
	r.mu.Unlock()
	return s
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// All returns the providers in registration order.
func (r *Registry) All() []*Shared {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.entries)
}

// Lookup finds a provider by title.
func (r *Registry) Lookup(title string) (*Shared, bool) {
	for _, s := range r.All() {
		if s.Title() == title {
			return s, true
		}
	}
	return nil, false
}

// Titles lists provider titles in registration order.
func (r *Registry) Titles() []string {
	all := r.All()
	titles := make([]string, 0, len(all))
	for _, s := range all {
		titles = append(titles, s.Title())
	}
	return titles
}

// Failure is one provider whose setup failed.
type Failure struct {
	Title string
	Err   error
}

// SetupReport summarises a Registry.Setup pass.
type SetupReport struct {
	Attempted int
	Titles    []string
	Failures  []Failure
}

// Ready returns the number of providers that were set up.
func (r SetupReport) Ready() int {
	return r.Attempted - len(r.Failures)
}

// Setup runs every provider's Setup sequentially in registration order.
// Failures are logged and reported but never stop the pass, and the
// provider stays registered.
func (r *Registry) Setup(ctx context.Context) SetupReport {
	var report SetupReport

	for _, s := range r.All() {
		report.Attempted++
		title := s.Title()
		report.Titles = append(report.Titles, title)

		logging.Debug("Setting up %s provider", title)
		if err := s.Setup(ctx); err != nil {
			logging.Error("Can't setup %s provider: %v", title, err)
			report.Failures = append(report.Failures, Failure{Title: title, Err: err})
			continue
		}
		logging.Info("Provider %s ready", title)
	}

	metrics.ProvidersReady.Set(float64(report.Ready()))
	return report
}
