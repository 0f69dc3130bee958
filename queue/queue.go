// Package queue implements the PlanTaskQueue: a closeable FIFO of
// plan.Key work items shared by every worker in the pool. No MPMC
// blocking-queue library turned up anywhere in the example pack, so
// this is the one place in the module a concurrency primitive is built
// directly on sync.Mutex/sync.Cond rather than on a third-party
// package — see DESIGN.md for why that stdlib use is justified here.
package queue

import (
	"sync"
	"sync/atomic"

	"github.com/sarchlab/rhgforge/plan"
)

// PlanTaskQueue is a closeable FIFO queue of plan.Key values. Push is
// non-blocking; WaitPop blocks until an item is available, the queue
// is closed, or the caller's cancellation flag is observed set.
type PlanTaskQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []plan.Key
	closed bool

	// outstanding counts tasks that have been pushed at least once but
	// have not yet fully completed their pipeline. Requeue (a worker
	// deferring a key until a child graph is ready) leaves it
	// unchanged; only Done retires it. The driver closes the queue
	// once this reaches zero, rather than whenever the queue is merely
	// momentarily empty — new child tasks can still appear while other
	// keys are mid-pipeline.
	outstanding atomic.Int64
}

// New creates an empty, open queue.
func New() *PlanTaskQueue {
	q := &PlanTaskQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends key to the back of the queue, waking one waiter.
// Pushing onto a closed queue is a no-op: the driver closes the queue
// only after every worker has been told to stop enqueuing new work.
func (q *PlanTaskQueue) Push(key plan.Key) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, key)
	q.mu.Unlock()
	q.outstanding.Add(1)
	q.cond.Signal()
}

// TryPush is Push's reporting counterpart: it returns false instead of
// silently dropping key when the queue is closed.
func (q *PlanTaskQueue) TryPush(key plan.Key) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, key)
	q.mu.Unlock()
	q.outstanding.Add(1)
	q.cond.Signal()
	return true
}

// Requeue re-enqueues key after a worker determines it cannot finish
// the key's pipeline yet (e.g. an instance op waiting on a child's
// graph to be published). Unlike Push/TryPush, it does not add to the
// outstanding count: the task was already counted on its first push.
func (q *PlanTaskQueue) Requeue(key plan.Key) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, key)
	q.mu.Unlock()
	q.cond.Signal()
}

// Done retires one outstanding task — its entire pipeline, not just
// one pop — and returns the remaining outstanding count.
func (q *PlanTaskQueue) Done() int64 { return q.outstanding.Add(-1) }

// Outstanding reports the number of tasks pushed but not yet retired
// via Done.
func (q *PlanTaskQueue) Outstanding() int64 { return q.outstanding.Load() }

// TryPop removes and returns the front item without blocking. Reports
// false if the queue is currently empty (whether or not it is closed).
func (q *PlanTaskQueue) TryPop() (plan.Key, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popFrontLocked()
}

func (q *PlanTaskQueue) popFrontLocked() (plan.Key, bool) {
	if len(q.items) == 0 {
		return plan.Key{}, false
	}
	k := q.items[0]
	q.items = q.items[1:]
	return k, true
}

// CancelFlag is a simple atomic flag WaitPop checks before parking and
// on every wakeup. Setting it does not itself wake a worker already
// parked in WaitPop; the driver's abort path (ConvertOptions.AbortOnError
// firing mid-run) also closes the queue, which does.
type CancelFlag struct {
	flagged atomic.Bool
}

func (f *CancelFlag) Set()          { f.flagged.Store(true) }
func (f *CancelFlag) IsSet() bool   { return f.flagged.Load() }

// WaitPop blocks until an item is available, the queue closes, or
// cancel (if non-nil) becomes set. It reports false in the latter two
// cases.
func (q *PlanTaskQueue) WaitPop(cancel *CancelFlag) (plan.Key, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		if cancel != nil && cancel.IsSet() {
			return plan.Key{}, false
		}
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return plan.Key{}, false
	}
	k := q.items[0]
	q.items = q.items[1:]
	return k, true
}

// Close marks the queue closed and wakes every blocked WaitPop caller.
// Closing an already-closed queue is a no-op.
func (q *PlanTaskQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Drain removes and discards every remaining item, returning the
// count removed. It neither closes the queue nor changes the
// outstanding count.
func (q *PlanTaskQueue) Drain() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = nil
	return n
}

// Closed reports whether Close has been called.
func (q *PlanTaskQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len reports the current queue depth.
func (q *PlanTaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Reset clears the queue and reopens it, for reuse across independent
// conversion runs sharing one PlanTaskQueue instance.
func (q *PlanTaskQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	q.closed = false
	q.outstanding.Store(0)
}
