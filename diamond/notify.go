package diamond

import (
	"context"
	"sync"
)

type pendingRecord struct {
	ctx context.Context
	rec *Record
}

// notifyQueue delivers records to one Notifier from its own goroutine, in
// the order they were pushed. push never blocks.
type notifyQueue struct {
	n Notifier

	mu      sync.Mutex
	pending []pendingRecord
	closed  bool

	wake chan struct{}
	done chan struct{}
}

func newNotifyQueue(n Notifier) *notifyQueue {
	q := &notifyQueue{
		n:    n,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *notifyQueue) push(ctx context.Context, rec *Record) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, pendingRecord{ctx: context.WithoutCancel(ctx), rec: rec})
	q.mu.Unlock()
	q.signal()
}

func (q *notifyQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *notifyQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		batch, closed := q.pending, q.closed
		q.pending = nil
		q.mu.Unlock()

		if len(batch) == 0 {
			if closed {
				return
			}
			<-q.wake
			continue
		}
		for _, p := range batch {
			q.n.Notify(p.ctx, p.rec)
		}
	}
}

// close stops accepting records and waits until the queued ones have been
// delivered.
func (q *notifyQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
	<-q.done
}
