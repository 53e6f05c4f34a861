// Package httpapi is the HTTP frontend: a JSON API over the library, the
// providers and the player, a websocket pushing player state, and the
// operational endpoints.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jukebox/internal/app"
	"jukebox/internal/config"
	"jukebox/internal/middleware"
	"jukebox/internal/shutdown"
	"jukebox/internal/startup"
	"jukebox/internal/subsystem"
)

const shutdownTimeout = 10 * time.Second

// Server serves the HTTP frontend for one App.
type Server struct {
	app      *app.App
	cfg      *config.HTTPConfig
	sig      *shutdown.Signal
	coverDir string
	upgrader websocket.Upgrader
}

// New returns a server over a. Covers are served from coverDir.
func New(a *app.App, cfg *config.HTTPConfig, sig *shutdown.Signal, coverDir string) *Server {
	return &Server{
		app:      a,
		cfg:      cfg,
		sig:      sig,
		coverDir: coverDir,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Subsystem returns the launcher entry point for the HTTP frontend.
func Subsystem(cfg *config.HTTPConfig, coverDir string) subsystem.Func {
	return func(a *app.App, sig *shutdown.Signal) error {
		ln, err := net.Listen("tcp", cfg.Addr())
		if err != nil {
			return fmt.Errorf("http frontend: %w", err)
		}
		return New(a, cfg, sig, coverDir).Serve(ln)
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.UseEncodedPath()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/livez", s.liveness).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", s.readiness).Methods(http.MethodGet)
	r.HandleFunc("/version", s.version).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/library/tracks", s.listTracks).Methods(http.MethodGet)
	api.HandleFunc("/library/tracks/{uri}", s.getTrack).Methods(http.MethodGet)
	api.HandleFunc("/library/playlists", s.listPlaylists).Methods(http.MethodGet)
	api.HandleFunc("/library/playlists/{id}", s.getPlaylist).Methods(http.MethodGet)
	api.HandleFunc("/library/stats", s.libraryStats).Methods(http.MethodGet)
	api.HandleFunc("/covers/{uri}", s.cover).Methods(http.MethodGet)
	api.HandleFunc("/providers", s.listProviders).Methods(http.MethodGet)
	api.HandleFunc("/player", s.playerStatus).Methods(http.MethodGet)
	api.HandleFunc("/player/{action}", s.playerAction).Methods(http.MethodPost)
	api.HandleFunc("/queue", s.listQueue).Methods(http.MethodGet)
	api.HandleFunc("/queue", s.enqueue).Methods(http.MethodPost)
	api.HandleFunc("/queue", s.clearQueue).Methods(http.MethodDelete)
	api.HandleFunc("/socket", s.socket).Methods(http.MethodGet)

	if s.cfg.StaticPath != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.cfg.StaticPath)))
	}
	return r
}

// Handler wraps the router in the middleware chain.
func (s *Server) Handler() http.Handler {
	router := s.Router()
	startup.LogHTTPRoutes(router)

	var h http.Handler = router
	h = middleware.BasicAuth(s.cfg.PasswordHash, "/health", "/livez", "/readyz", "/metrics")(h)
	h = middleware.Logger(middleware.DefaultLoggingConfig())(h)
	h = middleware.Compression(middleware.DefaultCompressionConfig())(h)
	return h
}

// Serve serves on ln until the shutdown signal fires, then drains.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	startup.LogListening("HTTP", ln.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http frontend: %w", err)
	case <-s.sig.Done():
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http frontend shutdown: %w", err)
	}
	<-errc
	startup.LogShutdownStepComplete("HTTP server stopped")
	return nil
}
