package render

import (
	"sync"

	"github.com/roach88/ledforge/internal/pixel"
)

// DefaultQueueCapacity is the number of pending requests kept before the
// oldest is dropped.
const DefaultQueueCapacity = 10

// Request is one frame waiting to be rasterized. Pixels is owned by the
// queue once enqueued.
type Request struct {
	FrameIndex int
	Pixels     pixel.Buffer
	Width      int
	Height     int
}

// requestQueue is a bounded FIFO that drops its oldest entry on overflow.
//
// Only the newest previews matter, so a full queue never blocks or rejects
// a producer. Evicted requests are counted and never rendered.
//
// The signal channel has a buffer of one: enqueues coalesce into a single
// wakeup and the consumer drains with TryDequeue until empty.
type requestQueue struct {
	mu       sync.Mutex
	items    []Request
	capacity int
	dropped  uint64
	closed   bool
	signal   chan struct{}
}

func newRequestQueue(capacity int) *requestQueue {
	if capacity < 1 {
		capacity = DefaultQueueCapacity
	}
	return &requestQueue{
		items:    make([]Request, 0, capacity),
		capacity: capacity,
		signal:   make(chan struct{}, 1),
	}
}

// Enqueue appends r, evicting the oldest entry when full. Returns whether
// an entry was evicted, and false for ok once the queue is closed.
func (q *requestQueue) Enqueue(r Request) (evicted, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false, false
	}

	if len(q.items) >= q.capacity {
		q.items[0] = Request{}
		copy(q.items, q.items[1:])
		q.items = q.items[:len(q.items)-1]
		q.dropped++
		evicted = true
	}
	q.items = append(q.items, r)

	select {
	case q.signal <- struct{}{}:
	default:
	}

	return evicted, true
}

// TryDequeue pops the front request without blocking.
func (q *requestQueue) TryDequeue() (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Request{}, false
	}

	r := q.items[0]
	copy(q.items, q.items[1:])
	// Release the tail slot's buffer.
	q.items[len(q.items)-1] = Request{}
	q.items = q.items[:len(q.items)-1]
	return r, true
}

// Wait returns a channel that fires when requests may be available. It is
// closed by Close.
func (q *requestQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of pending requests.
func (q *requestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped returns how many requests were evicted unrendered.
func (q *requestQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Close rejects further enqueues, discards pending requests and wakes
// waiters.
func (q *requestQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	clear(q.items)
	q.items = q.items[:0]
	close(q.signal)
}
