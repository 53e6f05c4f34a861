package mpd

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"jukebox/internal/backend"
	"jukebox/internal/library"
	"jukebox/internal/player"
)

type handler func(s *Server, ctx context.Context, args []string, out *response) *ackError

var commands map[string]handler

func noop(*Server, context.Context, []string, *response) *ackError { return nil }

func init() {
	commands = map[string]handler{
		"ping":             noop,
		"status":           (*Server).status,
		"currentsong":      (*Server).currentSong,
		"stats":            (*Server).stats,
		"play":             (*Server).play,
		"pause":            (*Server).pause,
		"stop":             playerCommand(player.CommandStop),
		"next":             playerCommand(player.CommandNext),
		"listplaylists":    (*Server).listPlaylists,
		"listplaylistinfo": (*Server).listPlaylistInfo,
		"add":              (*Server).add,
		"clear":            (*Server).clear,
		"playlistinfo":     (*Server).playlistInfo,
		"commands":         (*Server).listCommands,
		"notcommands":      noop,
		"tagtypes":         (*Server).tagTypes,
		"outputs":          (*Server).outputs,
		"urlhandlers":      (*Server).urlHandlers,
		"decoders":         noop,
	}
}

// mpdState maps player states to the protocol's names.
func mpdState(s backend.State) string {
	switch s {
	case backend.StatePlaying:
		return "play"
	case backend.StatePaused:
		return "pause"
	default:
		return "stop"
	}
}

func writeSong(out *response, t library.Track, pos int) {
	out.add("file", t.URI)
	if t.Title != "" {
		out.add("Title", t.Title)
	}
	if t.Artist != "" {
		out.add("Artist", t.Artist)
	}
	if t.Album != "" {
		out.add("Album", t.Album)
	}
	if t.Duration > 0 {
		out.add("Time", int(t.Duration.Seconds()))
		out.add("duration", strconv.FormatFloat(t.Duration.Seconds(), 'f', 3, 64))
	}
	if pos >= 0 {
		out.add("Pos", pos)
		out.add("Id", pos+1)
	}
}

func (s *Server) status(_ context.Context, _ []string, out *response) *ackError {
	st := s.app.Player.Status()

	out.add("volume", -1)
	out.add("repeat", 0)
	out.add("random", 0)
	out.add("single", 0)
	out.add("consume", 1)
	out.add("playlist", s.version.Load())
	out.add("playlistlength", st.QueueLength)
	out.add("state", mpdState(st.State))
	if st.Current != nil {
		out.add("song", 0)
		out.add("songid", 0)
		if st.Current.Duration > 0 {
			out.add("duration", strconv.FormatFloat(st.Current.Duration.Seconds(), 'f', 3, 64))
		}
	}
	return nil
}

func (s *Server) currentSong(_ context.Context, _ []string, out *response) *ackError {
	if st := s.app.Player.Status(); st.Current != nil {
		writeSong(out, *st.Current, -1)
	}
	return nil
}

func (s *Server) stats(ctx context.Context, _ []string, out *response) *ackError {
	tracks, err := s.app.Library.GetTracks(ctx)
	if err != nil {
		return ack(ackSystem, "stats", "%v", err)
	}

	artists := make(map[string]struct{})
	albums := make(map[string]struct{})
	var playtime time.Duration
	for _, t := range tracks {
		if t.Artist != "" {
			artists[t.Artist] = struct{}{}
		}
		if t.Album != "" {
			albums[t.Album] = struct{}{}
		}
		playtime += t.Duration
	}

	out.add("artists", len(artists))
	out.add("albums", len(albums))
	out.add("songs", len(tracks))
	out.add("uptime", int(s.app.Uptime().Seconds()))
	out.add("playtime", 0)
	out.add("db_playtime", int(playtime.Seconds()))
	return nil
}

func (s *Server) do(ctx context.Context, name string, cmd player.Command) *ackError {
	err := s.app.Player.Do(ctx, cmd)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, player.ErrNotRunning):
		return ack(ackSystem, name, "player is not running")
	default:
		return ack(ackPlayerSync, name, "%v", err)
	}
}

func playerCommand(cmd player.Command) handler {
	return func(s *Server, ctx context.Context, _ []string, _ *response) *ackError {
		return s.do(ctx, string(cmd), cmd)
	}
}

// play ignores the optional position; playback always starts at the head
// of the queue.
func (s *Server) play(ctx context.Context, args []string, _ *response) *ackError {
	if len(args) > 0 {
		if _, err := strconv.Atoi(args[0]); err != nil {
			return ack(ackArg, "play", "need a number")
		}
	}
	return s.do(ctx, "play", player.CommandPlay)
}

func (s *Server) pause(ctx context.Context, args []string, _ *response) *ackError {
	if len(args) == 0 {
		switch s.app.Player.Status().State {
		case backend.StatePlaying:
			return s.do(ctx, "pause", player.CommandPause)
		case backend.StatePaused:
			return s.do(ctx, "pause", player.CommandResume)
		default:
			return nil
		}
	}

	switch args[0] {
	case "1":
		if s.app.Player.Status().State != backend.StatePlaying {
			return nil
		}
		return s.do(ctx, "pause", player.CommandPause)
	case "0":
		if s.app.Player.Status().State != backend.StatePaused {
			return nil
		}
		return s.do(ctx, "pause", player.CommandResume)
	default:
		return ack(ackArg, "pause", "Boolean (0/1) expected: %s", args[0])
	}
}

func (s *Server) listPlaylists(ctx context.Context, _ []string, out *response) *ackError {
	playlists, err := s.app.Library.GetPlaylists(ctx)
	if err != nil {
		return ack(ackSystem, "listplaylists", "%v", err)
	}
	modified := s.app.Started().UTC().Format(time.RFC3339)
	for _, p := range playlists {
		out.add("playlist", playlistName(p))
		out.add("Last-Modified", modified)
	}
	return nil
}

func playlistName(p library.Playlist) string {
	if p.Title != "" {
		return p.Title
	}
	return p.ID
}

// findPlaylist matches by displayed name first, then by ID.
func (s *Server) findPlaylist(ctx context.Context, name string) (*library.Playlist, error) {
	playlists, err := s.app.Library.GetPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	for i := range playlists {
		if playlistName(playlists[i]) == name {
			return &playlists[i], nil
		}
	}
	return s.app.Library.GetPlaylist(ctx, name)
}

func (s *Server) listPlaylistInfo(ctx context.Context, args []string, out *response) *ackError {
	if len(args) != 1 {
		return ack(ackArg, "listplaylistinfo", "wrong number of arguments for \"listplaylistinfo\"")
	}

	p, err := s.findPlaylist(ctx, args[0])
	switch {
	case errors.Is(err, library.ErrNotFound):
		return ack(ackNoExist, "listplaylistinfo", "No such playlist")
	case err != nil:
		return ack(ackSystem, "listplaylistinfo", "%v", err)
	}

	for _, uri := range p.TrackURIs {
		t, err := s.app.Library.GetTrack(ctx, uri)
		if err != nil {
			out.add("file", uri)
			continue
		}
		writeSong(out, *t, -1)
	}
	return nil
}

func (s *Server) add(ctx context.Context, args []string, _ *response) *ackError {
	if len(args) != 1 {
		return ack(ackArg, "add", "wrong number of arguments for \"add\"")
	}

	t, err := s.app.Library.GetTrack(ctx, args[0])
	switch {
	case errors.Is(err, library.ErrNotFound):
		return ack(ackNoExist, "add", "No such song")
	case err != nil:
		return ack(ackSystem, "add", "%v", err)
	}
	s.app.Queue.Add(*t)
	s.version.Add(1)
	return nil
}

func (s *Server) clear(context.Context, []string, *response) *ackError {
	s.app.Queue.Clear()
	s.version.Add(1)
	return nil
}

func (s *Server) playlistInfo(_ context.Context, _ []string, out *response) *ackError {
	for i, t := range s.app.Queue.List() {
		writeSong(out, t, i)
	}
	return nil
}

func (s *Server) listCommands(_ context.Context, _ []string, out *response) *ackError {
	names := make([]string, 0, len(commands)+5)
	for name := range commands {
		names = append(names, name)
	}
	names = append(names, "close", "command_list_begin", "command_list_ok_begin", "command_list_end")
	sort.Strings(names)
	for _, name := range names {
		out.add("command", name)
	}
	return nil
}

func (s *Server) tagTypes(_ context.Context, _ []string, out *response) *ackError {
	for _, tag := range []string{"Artist", "Album", "Title"} {
		out.add("tagtype", tag)
	}
	return nil
}

func (s *Server) outputs(_ context.Context, _ []string, out *response) *ackError {
	out.add("outputid", 0)
	out.add("outputname", s.app.Backend.Name())
	out.add("outputenabled", 1)
	return nil
}

func (s *Server) urlHandlers(ctx context.Context, _ []string, out *response) *ackError {
	stats, err := s.app.Library.Stats(ctx)
	if err != nil {
		return ack(ackSystem, "urlhandlers", "%v", err)
	}
	names := make([]string, 0, len(stats.Providers))
	for name := range stats.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out.add("handler", name+"://")
	}
	return nil
}
