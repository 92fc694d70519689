package core

import "sync/atomic"

// localQueue is the MPSC intrusive queue backing a single worker's local run
// queue (spec.md §3 "Local queue", §4.A): many producers push at the head
// with a release CAS; only the owning worker pops, walking to the tail for
// FIFO order. Producers only ever extend the list at the head, so the
// single-consumer tail walk never races with a concurrent push below the
// node it started from.
type localQueue struct {
	head atomic.Pointer[Link]
}

func (q *localQueue) push(u Unit) {
	n := u.LinkNode()
	for {
		old := q.head.Load()
		n.next.Store(old)
		if q.head.CompareAndSwap(old, n) {
			return
		}
	}
}

func (q *localQueue) pop() (Unit, bool) {
	head := q.head.Load()
	if head == nil {
		return nil, false
	}
	if head.next.Load() == nil {
		// Only node currently visible; try to claim the whole list.
		if q.head.CompareAndSwap(head, nil) {
			return head.Self, true
		}
		// A producer raced in between our load and the CAS; re-walk.
		return q.pop()
	}
	prev := head
	cur := head.next.Load()
	for cur.next.Load() != nil {
		prev = cur
		cur = cur.next.Load()
	}
	prev.next.Store(nil)
	return cur.Self, true
}

func (q *localQueue) drainAndFree() {
	for {
		u, ok := q.pop()
		if !ok {
			return
		}
		u.Deallocate()
	}
}

// len is a best-effort, non-atomic walk used only for observability
// snapshots (core.Pool.Stats); callers must tolerate a stale or racy count.
func (q *localQueue) len() int {
	n := 0
	for cur := q.head.Load(); cur != nil; cur = cur.next.Load() {
		n++
	}
	return n
}

// sharedQueue is the MPMC intrusive LIFO stack backing the central queue and
// the recycle queue (spec.md §3/§4.A): any worker may push or pop. Under
// contention, FIFO order is not preserved; callers tolerate this.
type sharedQueue struct {
	head atomic.Pointer[Link]
}

func (q *sharedQueue) push(u Unit) {
	n := u.LinkNode()
	for {
		old := q.head.Load()
		n.next.Store(old)
		if q.head.CompareAndSwap(old, n) {
			return
		}
	}
}

func (q *sharedQueue) pop() (Unit, bool) {
	for {
		old := q.head.Load()
		if old == nil {
			return nil, false
		}
		next := old.next.Load()
		if q.head.CompareAndSwap(old, next) {
			return old.Self, true
		}
	}
}

func (q *sharedQueue) drainAndFree() {
	for {
		u, ok := q.pop()
		if !ok {
			return
		}
		u.Deallocate()
	}
}

func (q *sharedQueue) len() int {
	n := 0
	for cur := q.head.Load(); cur != nil; cur = cur.next.Load() {
		n++
	}
	return n
}
