package worker

import "sync"

// Queue feeds inbox paths to the worker pool. A path stays claimed from the
// moment it is offered until a worker reports it done, so a burst of
// filesystem events for the same file collapses into one conversion.
type Queue struct {
	ch      chan string
	mu      sync.Mutex
	claimed map[string]bool
	closed  bool
}

func NewQueue(buf int) *Queue {
	return &Queue{
		ch:      make(chan string, buf),
		claimed: make(map[string]bool),
	}
}

// Offer claims the path and queues it for conversion. It reports false for
// paths already claimed, a closed queue, or a full buffer; a full buffer
// drops the path rather than blocking the watcher.
func (q *Queue) Offer(path string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.claimed[path] {
		return false
	}
	select {
	case q.ch <- path:
		q.claimed[path] = true
		return true
	default:
		return false
	}
}

// Done releases the claim so a later event for the same path queues again.
func (q *Queue) Done(path string) {
	q.mu.Lock()
	delete(q.claimed, path)
	q.mu.Unlock()
}

// Close stops the queue from accepting further paths.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

func (q *Queue) Chan() <-chan string { return q.ch }

// Pending reports how many paths are currently claimed.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.claimed)
}
