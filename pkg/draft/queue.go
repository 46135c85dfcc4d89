package draft

import (
	"sync"

	"tableflip.dev/journal/pkg/entry"
)

type opKind int

const (
	opUpsert opKind = iota
	opDelete
	opBarrier
)

type op struct {
	kind  opKind
	entry *entry.Entry
	// exit marks the reconciliation write issued by Close.
	exit bool
	// done, when set, receives the result once the op was applied.
	done chan error
}

// writeQueue is an unbounded FIFO drained by a single goroutine, so pushing
// never blocks the caller and ops apply in push order.
type writeQueue struct {
	mu      sync.Mutex
	ops     []op
	closed  bool
	wake    chan struct{}
	drained chan struct{}
}

func newWriteQueue() *writeQueue {
	return &writeQueue{
		wake:    make(chan struct{}, 1),
		drained: make(chan struct{}),
	}
}

// push appends o. It reports false once the queue is closed.
func (q *writeQueue) push(o op) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.ops = append(q.ops, o)
	q.mu.Unlock()
	q.signal()
	return true
}

// close stops accepting ops; the ones already queued are still applied.
func (q *writeQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *writeQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *writeQueue) run(apply func(op)) {
	defer close(q.drained)
	for {
		q.mu.Lock()
		if len(q.ops) > 0 {
			next := q.ops[0]
			q.ops[0] = op{}
			q.ops = q.ops[1:]
			q.mu.Unlock()
			apply(next)
			continue
		}
		if q.closed {
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()
		<-q.wake
	}
}
