package httpapi

import (
	"errors"
	"net/http"
	"os"

	"jukebox/internal/cache"
	"jukebox/internal/library"
	"jukebox/internal/logging"
)

func (s *Server) listTracks(w http.ResponseWriter, r *http.Request) {
	var (
		tracks []library.Track
		err    error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		tracks, err = s.app.Library.SearchTracks(r.Context(), q)
	} else {
		tracks, err = s.app.Library.GetTracks(r.Context())
	}
	if err != nil {
		logging.Error("Failed to list tracks: %v", err)
		writeJSONError(w, "failed to list tracks", http.StatusInternalServerError)
		return
	}
	if tracks == nil {
		tracks = []library.Track{}
	}
	writeJSON(w, tracks)
}

func (s *Server) getTrack(w http.ResponseWriter, r *http.Request) {
	uri, ok := pathVar(r, "uri")
	if !ok {
		writeJSONError(w, "invalid track uri", http.StatusBadRequest)
		return
	}

	t, err := s.app.Library.GetTrack(r.Context(), uri)
	switch {
	case errors.Is(err, library.ErrNotFound):
		writeJSONError(w, "track not found", http.StatusNotFound)
	case err != nil:
		logging.Error("Failed to get track %s: %v", uri, err)
		writeJSONError(w, "failed to get track", http.StatusInternalServerError)
	default:
		writeJSON(w, t)
	}
}

func (s *Server) listPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := s.app.Library.GetPlaylists(r.Context())
	if err != nil {
		logging.Error("Failed to list playlists: %v", err)
		writeJSONError(w, "failed to list playlists", http.StatusInternalServerError)
		return
	}
	if playlists == nil {
		playlists = []library.Playlist{}
	}
	writeJSON(w, playlists)
}

func (s *Server) getPlaylist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathVar(r, "id")
	if !ok {
		writeJSONError(w, "invalid playlist id", http.StatusBadRequest)
		return
	}

	p, err := s.app.Library.GetPlaylist(r.Context(), id)
	switch {
	case errors.Is(err, library.ErrNotFound):
		writeJSONError(w, "playlist not found", http.StatusNotFound)
	case err != nil:
		logging.Error("Failed to get playlist %s: %v", id, err)
		writeJSONError(w, "failed to get playlist", http.StatusInternalServerError)
	default:
		writeJSON(w, p)
	}
}

func (s *Server) libraryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.app.Library.Stats(r.Context())
	if err != nil {
		writeJSONError(w, "failed to read library stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

// cover serves the cached thumbnail for a track.
func (s *Server) cover(w http.ResponseWriter, r *http.Request) {
	uri, ok := pathVar(r, "uri")
	if !ok || s.coverDir == "" {
		http.NotFound(w, r)
		return
	}

	path := cache.File(s.coverDir, uri)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}
