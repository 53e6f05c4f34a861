// Package shutdown coordinates a one-shot, process-wide stop request.
//
// A [Signal] starts Running and moves to Stopping exactly once. Every
// waiter, including ones that start waiting after the transition, observes
// it. Cancellation is cooperative: subsystems poll or select on the signal
// and return on their own.
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"jukebox/internal/logging"
	"jukebox/internal/metrics"
	"jukebox/internal/startup"
)

// Signal is the shared Running/Stopping flag.
type Signal struct {
	mu      sync.Mutex
	running bool
	handled bool
	done    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a Signal in the Running state.
func New() *Signal {
	ctx, cancel := context.WithCancel(context.Background())
	return &Signal{
		running: true,
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Trigger moves the signal to Stopping and wakes every waiter. It reports
// whether this call made the transition; later calls are no-ops.
func (s *Signal) Trigger() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}
	s.running = false
	close(s.done)
	s.cancel()
	return true
}

// Running reports whether Trigger has not been called yet.
func (s *Signal) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Wait blocks until the signal is Stopping.
func (s *Signal) Wait() {
	<-s.done
}

// Done is closed once the signal is Stopping.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Context is cancelled when the signal is triggered.
func (s *Signal) Context() context.Context {
	return s.ctx
}

// HandleInterrupts triggers sig on every delivery of the given OS signals
// (SIGINT and SIGTERM when none are given). Repeated deliveries are logged
// and otherwise ignored. The returned stop func unregisters the handler.
// Only one handler may be registered per Signal.
func HandleInterrupts(sig *Signal, signals ...os.Signal) (stop func(), err error) {
	if sig == nil {
		return nil, errors.New("nil shutdown signal")
	}
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}

	sig.mu.Lock()
	if sig.handled {
		sig.mu.Unlock()
		return nil, errors.New("interrupt handler already registered")
	}
	sig.handled = true
	sig.mu.Unlock()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)

	quit := make(chan struct{})
	go func() {
		for {
			select {
			case received := <-ch:
				metrics.ShutdownSignalsTotal.Inc()
				if sig.Trigger() {
					startup.LogShutdownInitiated("received " + received.String())
				} else {
					logging.Debug("Received %s, shutdown already in progress", received)
				}
			case <-quit:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(quit)
		})
	}, nil
}
