// Package pushqueue implements the graph's receiver: the only cross-thread
// mutable state in the engine. It is modeled on the teacher's
// edge.channelEdge, generalized from kapacitor points to arbitrary
// (node index, payload) pairs, but is built as a mutex-guarded slice with a
// stopped flag rather than a channel with a separate abort signal.
package pushqueue

import (
	"sync"

	"github.com/reactiveflow/tsgraph/tserrors"
)

// Message is one pending delivery to a push-source node.
type Message struct {
	NodeIndex int
	Payload   interface{}
}

// Queue is a thread-safe FIFO of pending push messages. Producers call
// Enqueue from arbitrary goroutines; the evaluation goroutine is the sole
// consumer, draining it once per cycle via Drain. Enqueue never blocks the
// producer: once Stop has been called, further messages are dropped and
// ErrPushQueueClosed is returned, matching the push-queue-never-blocks
// guarantee in the concurrency model.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []Message
	stopped  bool
	onSignal func()
}

// New constructs an empty queue. onSignal, if non-nil, is called (without
// the queue's lock held) after every successful Enqueue, so a real-time
// clock can be woken via MarkPushNodeRequiresScheduling.
func New(onSignal func()) *Queue {
	q := &Queue{onSignal: onSignal}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends msg to the queue. It returns ErrPushQueueClosed without
// blocking if the queue has already been stopped.
func (q *Queue) Enqueue(msg Message) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return tserrors.ErrPushQueueClosed
	}
	q.buf = append(q.buf, msg)
	q.mu.Unlock()
	q.cond.Broadcast()
	if q.onSignal != nil {
		q.onSignal()
	}
	return nil
}

// Drain removes and returns every currently-buffered message, in FIFO
// order. Called once per cycle by the evaluation goroutine before
// scheduled nodes are processed, per the graph evaluation cycle.
func (q *Queue) Drain() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return nil
	}
	out := q.buf
	q.buf = nil
	return out
}

// Len reports the number of currently-buffered messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Stop flips the closed flag; subsequent Enqueue calls are dropped. Stop
// is idempotent.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopped = true
	q.cond.Broadcast()
}

// Stopped reports whether Stop has been called.
func (q *Queue) Stopped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stopped
}
