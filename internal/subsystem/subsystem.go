// Package subsystem launches the jukebox's long-running parts and joins
// them at shutdown.
//
// Every subsystem receives the same [app.App] and [shutdown.Signal]. A
// launch never blocks; the returned [Handle] reports when the subsystem
// has returned and with what error. Panics are recovered and reported as
// errors so one faulty subsystem cannot take the process down.
package subsystem

import (
	"fmt"
	"runtime/debug"
	"sync"

	"jukebox/internal/app"
	"jukebox/internal/logging"
	"jukebox/internal/metrics"
	"jukebox/internal/shutdown"
	"jukebox/internal/startup"
)

// Func is a subsystem body. It must return once the signal stops running.
type Func func(*app.App, *shutdown.Signal) error

// Handle tracks one launched subsystem.
type Handle struct {
	name string
	done chan struct{}
	err  error
}

// Name returns the subsystem name.
func (h *Handle) Name() string { return h.name }

// Done is closed when the subsystem has returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the subsystem's error. Only meaningful after Done.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the subsystem returns and yields its error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Launcher starts subsystems against shared state.
type Launcher struct {
	app    *app.App
	signal *shutdown.Signal

	mu      sync.Mutex
	handles []*Handle
}

// NewLauncher binds a launcher to the state and signal every subsystem shares.
func NewLauncher(a *app.App, s *shutdown.Signal) *Launcher {
	return &Launcher{app: a, signal: s}
}

// Launch runs fn on its own goroutine and returns immediately.
func (l *Launcher) Launch(name string, fn Func) *Handle {
	h := &Handle{name: name, done: make(chan struct{})}

	l.mu.Lock()
	l.handles = append(l.handles, h)
	l.mu.Unlock()

	metrics.SubsystemsRunning.Inc()
	startup.LogSubsystemLaunched(name)

	go func() {
		status := "ok"
		defer func() {
			if r := recover(); r != nil {
				status = "panic"
				h.err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
			}
			metrics.SubsystemsRunning.Dec()
			metrics.SubsystemExitsTotal.WithLabelValues(name, status).Inc()
			close(h.done)
		}()

		h.err = fn(l.app, l.signal)
		if h.err != nil {
			status = "error"
		}
	}()

	return h
}

// Handles returns every launched handle in launch order.
func (l *Launcher) Handles() []*Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Handle(nil), l.handles...)
}

// JoinAll waits for every handle in order and logs each failure. It returns
// the number of subsystems that ended with an error or panic.
func JoinAll(handles []*Handle) int {
	failed := 0
	for _, h := range handles {
		if err := h.Wait(); err != nil {
			failed++
			logging.Error("Subsystem %s failed: %v", h.Name(), err)
			continue
		}
		logging.Debug("Subsystem %s stopped", h.Name())
	}
	return failed
}
