package player

import (
	"slices"
	"sync"

	"jukebox/internal/library"
	"jukebox/internal/metrics"
)

// Queue is the play queue shared by the player and the frontends.
type Queue struct {
	mu       sync.Mutex
	pending  []library.Track
	current  *library.Track
	onChange func()
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Add appends tracks to the end of the queue.
func (q *Queue) Add(tracks ...library.Track) {
	q.mu.Lock()
	q.pending = append(q.pending, tracks...)
	n := len(q.pending)
	q.mu.Unlock()

	metrics.PlayerQueueLength.Set(float64(n))
	q.changed()
}

// Next pops the head of the queue and makes it current.
func (q *Queue) Next() (library.Track, bool) {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.current = nil
		q.mu.Unlock()
		metrics.PlayerQueueLength.Set(0)
		return library.Track{}, false
	}
	t := q.pending[0]
	q.pending = q.pending[1:]
	q.current = &t
	n := len(q.pending)
	q.mu.Unlock()

	metrics.PlayerQueueLength.Set(float64(n))
	return t, true
}

// Clear drops every pending track. The current track is left alone.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()

	metrics.PlayerQueueLength.Set(0)
	q.changed()
}

// List returns the pending tracks in play order.
func (q *Queue) List() []library.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.pending)
}

// Len returns the number of pending tracks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Current returns the track last taken with Next, if it is still current.
func (q *Queue) Current() (library.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return library.Track{}, false
	}
	return *q.current, true
}

func (q *Queue) resetCurrent() {
	q.mu.Lock()
	q.current = nil
	q.mu.Unlock()
}

func (q *Queue) changed() {
	q.mu.Lock()
	fn := q.onChange
	q.mu.Unlock()
	if fn != nil {
		fn()
	}
}
