package core

import "sync/atomic"

// AnyWorker is the sentinel preferred-worker value meaning "not pinned to a
// particular worker, place on the central queue" (spec.md §3 "preferred_worker").
const AnyWorker int32 = -1

// Unit is the schedulable-unit abstraction shared by plain jobs and
// coroutine promises (spec.md §3/§4.B). The scheduler only ever talks to a
// Unit; Job (this package) and coro.Promise are its two concrete kinds.
//
// Every method is exported because coro.Promise, which implements Unit,
// lives in a different package — Go requires a cross-package implementer to
// satisfy the full, exported method set.
type Unit interface {
	// Run executes the unit once. For a Job this runs the callable to
	// completion; for a coroutine promise this resumes the frame until its
	// next suspension point.
	Run()

	// NotifyChildFinished is called by a child when its own children
	// counter reaches zero. The receiver decrements its own counter and, on
	// reaching zero itself, runs its completion path.
	NotifyChildFinished()

	// Deallocate releases the unit's storage. Used only on the shutdown
	// drain path, for every unit still on a queue: queued units that were
	// not run, and finished job carcasses on the recycle queue.
	Deallocate()

	Parent() Unit
	SetParent(Unit)
	PreferredWorker() int32

	// Children is the atomic pending-descendant counter (spec.md §3).
	Children() *atomic.Int32

	// LinkNode returns the intrusive queue-membership node embedded in the
	// concrete unit (spec.md §3 "next: intrusive link").
	LinkNode() *Link
}

// Link is the intrusive singly-linked queue node embedded directly in every
// concrete Unit implementation. A unit is reachable from exactly one queue
// (or the running-worker register, or its parent's child graph) at a time
// (spec.md §3 invariant); Self lets a queue recover the owning Unit from a
// bare *Link after a pop.
type Link struct {
	next atomic.Pointer[Link]
	Self Unit
}
