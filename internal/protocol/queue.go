package protocol

import (
	"slices"
	"sync"
	"time"

	"github.com/wagiedev/brainbridge/internal/message"
)

// entry is one request awaiting its response.
type entry struct {
	id      string
	kind    message.Kind
	started time.Time
	deliver func(Result)

	// Guarded by Queue.mu.
	timer   *time.Timer
	expired bool
}

// Queue holds pending entries in the order their requests were written.
type Queue struct {
	mu      sync.Mutex
	entries []*entry
}

// push appends e to the tail.
func (q *Queue) push(e *entry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = append(q.entries, e)
}

// arm starts e's deadline timer if e is still live.
func (q *Queue) arm(e *entry, d time.Duration, fire func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if slices.Contains(q.entries, e) && !e.expired {
		e.timer = time.AfterFunc(d, fire)
	}
}

// take removes the entry a response belongs to: the entry whose id matches,
// if id is non-empty and known, otherwise the head. ok is false when the
// queue is empty.
func (q *Queue) take(id string) (e *entry, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return nil, false
	}

	i := 0

	if id != "" {
		if j := slices.IndexFunc(q.entries, func(e *entry) bool { return e.id == id }); j >= 0 {
			i = j
		}
	}

	e = q.entries[i]
	q.entries = slices.Delete(q.entries, i, i+1)
	e.stopTimer()

	return e, true
}

// expire turns a live entry into a tombstone. It reports whether e was live.
func (q *Queue) expire(e *entry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if e.expired || !slices.Contains(q.entries, e) {
		return false
	}

	e.expired = true

	return true
}

// remove deletes e wherever it is. It reports whether e was live.
func (q *Queue) remove(e *entry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := slices.Index(q.entries, e)
	if i < 0 {
		return false
	}

	q.entries = slices.Delete(q.entries, i, i+1)
	e.stopTimer()

	return !e.expired
}

// drain empties the queue and returns the live entries in order.
func (q *Queue) drain() []*entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	live := make([]*entry, 0, len(q.entries))

	for _, e := range q.entries {
		e.stopTimer()

		if !e.expired {
			live = append(live, e)
		}
	}

	q.entries = nil

	return live
}

// Len returns the number of live entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.liveLocked()
}

// Tombstones returns the number of expired entries still queued.
func (q *Queue) Tombstones() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.entries) - q.liveLocked()
}

func (q *Queue) liveLocked() int {
	n := 0

	for _, e := range q.entries {
		if !e.expired {
			n++
		}
	}

	return n
}

func (e *entry) stopTimer() {
	if e.timer != nil {
		e.timer.Stop()
	}
}
