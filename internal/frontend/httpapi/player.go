package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"jukebox/internal/library"
	"jukebox/internal/logging"
	"jukebox/internal/player"
	"jukebox/internal/provider"
)

type providerInfo struct {
	Title string         `json:"title"`
	State provider.State `json:"state"`
	Error string         `json:"error,omitempty"`
}

func (s *Server) listProviders(w http.ResponseWriter, _ *http.Request) {
	infos := []providerInfo{}
	for _, p := range s.app.Providers.All() {
		st, err := p.State()
		info := providerInfo{Title: p.Title(), State: st}
		if err != nil {
			info.Error = err.Error()
		}
		infos = append(infos, info)
	}
	writeJSON(w, infos)
}

func (s *Server) playerStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.app.Player.Status())
}

func (s *Server) playerAction(w http.ResponseWriter, r *http.Request) {
	cmd, err := player.ParseCommand(mux.Vars(r)["action"])
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.app.Player.Do(r.Context(), cmd); err != nil {
		if errors.Is(err, player.ErrNotRunning) {
			writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		logging.Debug("Player command %s rejected: %v", cmd, err)
		writeJSONError(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, s.app.Player.Status())
}

type enqueueRequest struct {
	URI string `json:"uri"`
}

func (s *Server) queueTracks() []library.Track {
	tracks := s.app.Queue.List()
	if tracks == nil {
		tracks = []library.Track{}
	}
	return tracks
}

func (s *Server) listQueue(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.queueTracks())
}

func (s *Server) enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil || req.URI == "" {
		writeJSONError(w, "request body must be {\"uri\": \"...\"}", http.StatusBadRequest)
		return
	}

	t, err := s.app.Library.GetTrack(r.Context(), req.URI)
	switch {
	case errors.Is(err, library.ErrNotFound):
		writeJSONError(w, "track not found", http.StatusNotFound)
		return
	case err != nil:
		writeJSONError(w, "failed to get track", http.StatusInternalServerError)
		return
	}

	s.app.Queue.Add(*t)
	writeJSONStatus(w, http.StatusCreated, s.queueTracks())
}

func (s *Server) clearQueue(w http.ResponseWriter, _ *http.Request) {
	s.app.Queue.Clear()
	writeJSON(w, s.queueTracks())
}
