// Package bootstrap is the composition root. It turns a decoded
// configuration into a running server: providers set up in order, the
// library and backend selected by tag, the shared App assembled, the
// subsystems launched and finally joined.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"jukebox/internal/app"
	"jukebox/internal/backend"
	"jukebox/internal/cache"
	"jukebox/internal/config"
	"jukebox/internal/frontend/httpapi"
	"jukebox/internal/frontend/mpd"
	"jukebox/internal/library"
	"jukebox/internal/logging"
	"jukebox/internal/provider"
	"jukebox/internal/provider/local"
	"jukebox/internal/provider/pocketcasts"
	"jukebox/internal/provider/soundcloud"
	"jukebox/internal/provider/spotify"
	"jukebox/internal/shutdown"
	"jukebox/internal/startup"
	"jukebox/internal/subsystem"
	"jukebox/internal/syncengine"
)

// Options adjusts how the server is assembled.
type Options struct {
	// Backend builds the playback backend. Defaults to backend.New.
	Backend backend.Factory
	// Signal is shared by every subsystem. A fresh one is created when nil.
	Signal *shutdown.Signal
	// Interrupts, when set, are the OS signals that trigger shutdown.
	// Nil leaves interrupt handling to the caller.
	Interrupts []os.Signal
}

// Server is an assembled, not yet launched, jukebox.
type Server struct {
	cfg    *config.Config
	app    *app.App
	signal *shutdown.Signal
	report provider.SetupReport

	stopInterrupts func()
	launcher       *subsystem.Launcher
}

// Providers constructs the configured providers in registry order.
func Providers(cfg *config.Config) []provider.Provider {
	var ps []provider.Provider
	if cfg.Pocketcasts != nil {
		ps = append(ps, pocketcasts.New(cfg.Pocketcasts))
	}
	if cfg.Soundcloud != nil {
		ps = append(ps, soundcloud.New(cfg.Soundcloud))
	}
	if cfg.Spotify != nil {
		ps = append(ps, spotify.New(cfg.Spotify))
	}
	if cfg.Local != nil {
		ps = append(ps, local.New(cfg.Local))
	}
	return ps
}

// Build sets up providers and constructs the library, the backend and the
// App. Provider failures are reported, not returned; every other failure
// is fatal and leaves nothing running.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*Server, error) {
	if opts.Backend == nil {
		opts.Backend = backend.New
	}
	sig := opts.Signal
	if sig == nil {
		sig = shutdown.New()
	}

	registry := provider.NewRegistry()
	for _, p := range Providers(cfg) {
		registry.Register(p)
	}
	setupStart := time.Now()
	report := registry.Setup(ctx)
	startup.LogProviderSetup(report, time.Since(setupStart))

	libStart := time.Now()
	store, err := library.New(ctx, cfg.Library)
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	startup.LogLibraryInit(library.Kind(store), time.Since(libStart))

	b, err := opts.Backend(cfg.Backend)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create %s backend: %w", cfg.Backend, err)
	}
	startup.LogBackendInit(b.Name())

	a, err := app.New(store, registry, b)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to assemble application state: %w", err), b.Close(), store.Close())
	}

	s := &Server{
		cfg:            cfg,
		app:            a,
		signal:         sig,
		report:         report,
		stopInterrupts: func() {},
	}

	if opts.Interrupts != nil {
		stop, err := shutdown.HandleInterrupts(sig, opts.Interrupts...)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to register interrupt handler: %w", err), a.Close())
		}
		s.stopInterrupts = stop
	}
	return s, nil
}

// App returns the shared application state.
func (s *Server) App() *app.App { return s.app }

// Signal returns the shared shutdown signal.
func (s *Server) Signal() *shutdown.Signal { return s.signal }

// SetupReport returns the outcome of provider setup.
func (s *Server) SetupReport() provider.SetupReport { return s.report }

type entry struct {
	name string
	fn   subsystem.Func
}

// plan lists the subsystems to launch, in launch order.
func plan(cfg *config.Config) []entry {
	entries := []entry{
		{"sync", syncengine.New(cfg.Sync).Run},
		{"cache", cache.New(cfg.Cache).Run},
		{"player", func(a *app.App, sig *shutdown.Signal) error {
			return a.Player.Run(sig.Context())
		}},
	}
	if cfg.MPD != nil {
		entries = append(entries, entry{"mpd", mpd.Subsystem(cfg.MPD)})
	}
	if cfg.HTTP != nil {
		entries = append(entries, entry{"http", httpapi.Subsystem(cfg.HTTP, cfg.Cache.Path)})
	}
	return entries
}

// SubsystemNames lists the subsystems cfg will launch, in launch order.
func SubsystemNames(cfg *config.Config) []string {
	entries := plan(cfg)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
	}
	return names
}

// Launch starts every subsystem and returns their handles in launch order.
// It must be called once.
func (s *Server) Launch(started time.Time) []*subsystem.Handle {
	startup.LogSubsystemsLaunching(time.Since(started))

	s.launcher = subsystem.NewLauncher(s.app, s.signal)
	for _, e := range plan(s.cfg) {
		s.launcher.Launch(e.name, e.fn)
	}
	return s.launcher.Handles()
}

// Wait joins every handle, then releases the backend and the library.
// It returns the number of subsystems that failed.
func (s *Server) Wait(handles []*subsystem.Handle) int {
	failed := subsystem.JoinAll(handles)
	s.stopInterrupts()

	startup.LogShutdownStep("Closing library and backend")
	if err := s.app.Close(); err != nil {
		logging.Warn("Failed to release resources: %v", err)
	} else {
		startup.LogShutdownStepComplete("Library and backend closed")
	}

	startup.LogShutdownComplete(failed)
	return failed
}

// Run builds, launches and joins the server. It returns an error only for
// fatal startup failures; subsystem failures are logged by the join.
// Cancelling ctx triggers shutdown like an interrupt does.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	started := time.Now()

	s, err := Build(ctx, cfg, opts)
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-ctx.Done():
			if s.signal.Trigger() {
				startup.LogShutdownInitiated(ctx.Err().Error())
			}
		case <-s.signal.Done():
		}
	}()

	s.Wait(s.Launch(started))
	return nil
}
