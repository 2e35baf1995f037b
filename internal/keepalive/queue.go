package keepalive

import "sync"

// Queue carries closures onto the Keeper's loop. Post never blocks, so code
// already running on the loop may post to it as well.
type Queue struct {
	mu     sync.Mutex
	items  []func()
	wake   chan struct{}
	closed bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Post appends fn. After Close it is dropped.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Ready is signalled whenever new items were posted.
func (q *Queue) Ready() <-chan struct{} { return q.wake }

// Drain runs everything queued so far, including items posted while
// draining, and returns how many ran.
func (q *Queue) Drain() int {
	n := 0
	for {
		q.mu.Lock()
		items := q.items
		q.items = nil
		q.mu.Unlock()
		if len(items) == 0 {
			return n
		}
		for _, fn := range items {
			fn()
			n++
		}
	}
}

// Close stops accepting new items.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()
}
