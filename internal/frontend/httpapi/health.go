package httpapi

import (
	"net/http"
	"runtime"
	"time"

	"jukebox/internal/backend"
	"jukebox/internal/provider"
	"jukebox/internal/startup"
)

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status         string        `json:"status"`
	Ready          bool          `json:"ready"`
	Version        string        `json:"version"`
	Uptime         string        `json:"uptime"`
	PlayerState    backend.State `json:"playerState"`
	Providers      int           `json:"providers"`
	ProvidersReady int           `json:"providersReady"`
	Tracks         int           `json:"tracks"`
	Playlists      int           `json:"playlists"`
	GoVersion      string        `json:"goVersion"`
	NumGoroutine   int           `json:"numGoroutine"`
	Error          string        `json:"error,omitempty"`
}

func (s *Server) ready() bool {
	select {
	case <-s.app.Player.Running():
		return s.sig.Running()
	default:
		return false
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:       "healthy",
		Ready:        s.ready(),
		Version:      startup.Version,
		Uptime:       s.app.Uptime().Round(time.Second).String(),
		PlayerState:  s.app.Player.Status().State,
		Providers:    s.app.Providers.Len(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
	}
	for _, p := range s.app.Providers.All() {
		if st, _ := p.State(); st == provider.StateReady {
			resp.ProvidersReady++
		}
	}

	code := http.StatusOK
	stats, err := s.app.Library.Stats(r.Context())
	if err != nil {
		resp.Status = "degraded"
		resp.Error = err.Error()
		code = http.StatusServiceUnavailable
	} else {
		resp.Tracks = stats.Tracks
		resp.Playlists = stats.Playlists
	}
	if !resp.Ready && code == http.StatusOK {
		resp.Status = "starting"
	}

	writeJSONStatus(w, code, resp)
}

func (s *Server) liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

func (s *Server) readiness(w http.ResponseWriter, _ *http.Request) {
	if s.ready() {
		writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}

func (s *Server) version(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, startup.GetBuildInfo())
}
