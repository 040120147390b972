// Package frameclock schedules callbacks on display refresh slots. A callback
// requested during one slot runs in the next slot, never in the current one,
// and callbacks of the same slot run in submission order on a single goroutine.
package frameclock

import (
	"sync"
	"time"
)

// FrameID identifies a pending request; zero is never issued
type FrameID uint64

// Callback receives the timestamp of the slot it runs in
type Callback func(now time.Time)

// Scheduler is the "run again before the next repaint" primitive
type Scheduler interface {
	RequestFrame(cb Callback) FrameID
	CancelFrame(id FrameID)
}

// queue is the shared bookkeeping of both schedulers
type queue struct {
	mu      sync.Mutex
	nextID  FrameID
	order   []FrameID
	pending map[FrameID]Callback
}

func newQueue() *queue {
	return &queue{pending: make(map[FrameID]Callback)}
}

func (q *queue) request(cb Callback) FrameID {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextID++
	id := q.nextID
	q.pending[id] = cb
	q.order = append(q.order, id)
	return id
}

func (q *queue) cancel(id FrameID) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}

// run executes the batch that was pending when the slot began. A callback
// cancelled by an earlier callback of the same batch is skipped.
func (q *queue) run(now time.Time) int {
	q.mu.Lock()
	batch := q.order
	q.order = nil
	q.mu.Unlock()

	ran := 0
	for _, id := range batch {
		q.mu.Lock()
		cb, ok := q.pending[id]
		delete(q.pending, id)
		q.mu.Unlock()

		if !ok {
			continue
		}
		cb(now)
		ran++
	}
	return ran
}

func (q *queue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
