// Package mpd is the MPD frontend: a TCP server speaking the subset of the
// MPD protocol needed by common clients to browse playlists and drive the
// player.
package mpd

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"jukebox/internal/app"
	"jukebox/internal/config"
	"jukebox/internal/logging"
	"jukebox/internal/metrics"
	"jukebox/internal/shutdown"
	"jukebox/internal/startup"
	"jukebox/internal/subsystem"
)

// Greeting is the first line sent to every client.
const Greeting = "OK MPD 0.19.0"

const maxLine = 64 * 1024

// Server serves the MPD protocol for one App.
type Server struct {
	app *app.App
	sig *shutdown.Signal

	// version is reported as the queue version in status.
	version atomic.Uint32

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// New returns a server over a.
func New(a *app.App, sig *shutdown.Signal) *Server {
	return &Server{
		app:   a,
		sig:   sig,
		conns: make(map[net.Conn]struct{}),
	}
}

// Subsystem returns the launcher entry point for the MPD frontend.
func Subsystem(cfg *config.MPDConfig) subsystem.Func {
	return func(a *app.App, sig *shutdown.Signal) error {
		ln, err := net.Listen("tcp", cfg.Addr())
		if err != nil {
			return fmt.Errorf("mpd frontend: %w", err)
		}
		return New(a, sig).Serve(ln)
	}
}

// Serve accepts clients on ln until the shutdown signal fires. It then
// closes the listener and every open connection and waits for their
// handlers to return.
func (s *Server) Serve(ln net.Listener) error {
	startup.LogListening("MPD", ln.Addr().String())

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-s.sig.Done():
		case <-stopped:
		}
		_ = ln.Close()
		s.closeAll()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.closeAll()
			s.wg.Wait()
			if !s.sig.Running() {
				startup.LogShutdownStepComplete("MPD server stopped")
				return nil
			}
			return fmt.Errorf("mpd frontend: %w", err)
		}

		if !s.track(conn) {
			_ = conn.Close()
			continue
		}
		go s.handle(conn)
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for c := range s.conns {
		_ = c.Close()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.untrack(conn)
	defer conn.Close()

	metrics.MPDConnections.Inc()
	defer metrics.MPDConnections.Dec()
	logging.Debug("MPD client connected from %s", conn.RemoteAddr())

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(Greeting + "\n"); err != nil || w.Flush() != nil {
		return
	}

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 4096), maxLine)

	var (
		list   []string
		inList bool
		listOK bool
	)
	ctx := s.sig.Context()

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")

		if inList {
			if line != "command_list_end" {
				list = append(list, line)
				continue
			}
			inList = false
			closing := s.runList(ctx, w, list, listOK)
			list = nil
			if w.Flush() != nil || closing {
				return
			}
			continue
		}

		switch line {
		case "command_list_begin":
			inList, listOK = true, false
			continue
		case "command_list_ok_begin":
			inList, listOK = true, true
			continue
		}

		body, closing, err := s.execute(ctx, line, 0)
		if closing {
			return
		}
		if err != nil {
			_, _ = w.WriteString(err.Error() + "\n")
		} else {
			_, _ = w.WriteString(body + "OK\n")
		}
		if w.Flush() != nil {
			return
		}
	}

	if err := sc.Err(); err != nil && s.sig.Running() {
		logging.Debug("MPD client %s: %v", conn.RemoteAddr(), err)
	}
}

// runList executes a command list, stopping at the first failure.
func (s *Server) runList(ctx context.Context, w *bufio.Writer, list []string, listOK bool) bool {
	for i, line := range list {
		body, closing, err := s.execute(ctx, line, i)
		if closing {
			return true
		}
		if err != nil {
			_, _ = w.WriteString(err.Error() + "\n")
			return false
		}
		_, _ = w.WriteString(body)
		if listOK {
			_, _ = w.WriteString("list_OK\n")
		}
	}
	_, _ = w.WriteString("OK\n")
	return false
}

// execute runs one request line. index is its position in a command list.
func (s *Server) execute(ctx context.Context, line string, index int) (string, bool, *ackError) {
	args, err := splitArgs(line)
	if err != nil {
		return "", false, &ackError{code: ackArg, index: index, message: err.Error()}
	}
	if len(args) == 0 {
		return "", false, &ackError{code: ackUnknown, index: index, message: "No command given"}
	}

	name := args[0]
	if name == "close" {
		return "", true, nil
	}
	if strings.HasPrefix(name, "command_list_") {
		e := ack(ackNotList, name, "not in command list mode")
		e.index = index
		return "", false, e
	}

	h, ok := commands[name]
	if !ok {
		metrics.MPDCommandsTotal.WithLabelValues("unknown", "error").Inc()
		return "", false, &ackError{code: ackUnknown, index: index, command: name, message: "unknown command"}
	}

	out := &response{}
	if e := h(s, ctx, args[1:], out); e != nil {
		metrics.MPDCommandsTotal.WithLabelValues(name, "error").Inc()
		e.index = index
		return "", false, e
	}
	metrics.MPDCommandsTotal.WithLabelValues(name, "ok").Inc()
	return out.String(), false, nil
}
