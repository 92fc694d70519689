// Package coro implements the coroutine promise and await protocol of
// spec.md §4.D/E: a structured-concurrency layer on top of core.Pool that
// lets a suspendable task fan out children, await them, migrate between
// worker threads, or yield a value to its parent.
//
// Go has no suspendable stack frame a scheduler can resume from another
// goroutine, so each Promise owns a dedicated goroutine parked on a resume
// channel. core.Pool's worker loop calls Run, which hands control to that
// goroutine and blocks until the coroutine reaches its next suspension
// point (initial, AwaitChildren/AwaitTuple, ResumeOn, Yield, or final) and
// signals back. The coroutine body itself is written as ordinary sequential
// Go code taking a *Ctx[T].
package coro

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/hlavacs/vgjs-go/allocator"
	"github.com/hlavacs/vgjs-go/core"
)

// sharedSlot is the reference-counted return-value cell shared between a
// Coro[T] handle and its Promise[T] (spec.md §3 "Shared return slot"): the
// coroutine body writes into it via Yield or its own return value; the
// outside world reads it via Coro[T].Get, even after the promise's final
// suspend. The last of the two owners to drop its reference lets the slot
// be collected.
type sharedSlot[T any] struct {
	mu    sync.Mutex
	value T
	ready bool
}

func (s *sharedSlot[T]) write(v T) {
	s.mu.Lock()
	s.value = v
	s.ready = true
	s.mu.Unlock()
}

func (s *sharedSlot[T]) read() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.ready
}

// Promise is a coroutine's scheduler-visible state (spec.md §3/§4.D): a
// shared return slot, parent link, pending-children counter, preferred
// worker and allocator hook. It implements core.Unit so core.Pool can
// schedule and run it exactly like a plain Job.
type Promise[T any] struct {
	lk core.Link

	pool       *core.Pool
	parentUnit core.Unit
	childCount atomic.Int32
	preferred  atomic.Int32

	slot  *sharedSlot[T]
	alloc allocator.Allocator

	// resumeCh/suspendedCh are the baton the worker loop (Run) and the
	// coroutine's dedicated goroutine pass back and forth. Exactly one side
	// is ever runnable at a time, so currentWorker needs no atomics: the
	// channel operations establish the happens-before edge that makes a
	// plain field access safe.
	resumeCh    chan struct{}
	suspendedCh chan struct{}
	closeCh     chan struct{}
	closed      atomic.Bool

	currentWorker int32
	finished      atomic.Bool
}

// newPromise allocates a Promise[T] wired to pool, not yet started. The
// allocator hook is consulted here exactly as spec.md §6 describes: a
// pointer to the resource is stored alongside the promise so the matching
// Deallocate call in Close, whenever it eventually runs, finds its
// allocator without a global lookup.
func newPromise[T any](pool *core.Pool, parent core.Unit, preferredWorker int32) *Promise[T] {
	p := &Promise[T]{
		pool:        pool,
		parentUnit:  parent,
		slot:        &sharedSlot[T]{},
		alloc:       allocator.Default(),
		resumeCh:    make(chan struct{}),
		suspendedCh: make(chan struct{}),
		closeCh:     make(chan struct{}),
	}
	p.lk.Self = p
	p.preferred.Store(preferredWorker)
	p.alloc.Allocate(int(unsafe.Sizeof(*p)), int(unsafe.Alignof(*p)))
	return p
}

// suspend hands control back to whichever worker is blocked inside Run,
// then parks until the next Run call resumes this coroutine.
func (p *Promise[T]) suspend() {
	p.suspendedCh <- struct{}{}
	<-p.resumeCh
}

func (p *Promise[T]) notifyParent() {
	if p.parentUnit != nil {
		p.parentUnit.NotifyChildFinished()
	}
}

// finalSuspend runs once the coroutine body returns (spec.md §4.D "Final
// suspend"): the return value is already in result, parent notification
// fires exactly as it does for Yield, and the promise parks permanently —
// it must stay alive so the outside world can still read the slot via
// Coro[T].Get — until Close tears the goroutine down.
func (p *Promise[T]) finalSuspend(result T) {
	p.slot.write(result)
	p.notifyParent()
	p.finished.Store(true)
	p.pool.Metrics().DecCoroutinesInFlight()
	p.suspendedCh <- struct{}{}
	<-p.closeCh
}

// yield implements spec.md §4.D "co_yield v": write v into the shared slot
// and notify the parent exactly as a plain-job completion would, but suspend
// (not terminate) so a later Run resumes this goroutine right after the
// yield call. Unlike finalSuspend this is an ordinary suspension point, not
// a permanent park.
func (p *Promise[T]) yield(v T) {
	p.slot.write(v)
	p.notifyParent()
	p.suspend()
}

// awaitUnits implements the single pre-increment-then-schedule-then-suspend
// protocol shared by every await flavor (spec.md §4.D "Await children"): the
// pending-children counter absorbs len(units) in one atomic add before any
// of them can possibly finish and race the count down, then each is handed
// to the pool, then this coroutine parks until NotifyChildFinished reaches
// zero and reschedules it. A nil/empty slice is a documented no-op boundary
// (spec.md §8) — awaiting nothing never suspends.
func (p *Promise[T]) awaitUnits(units []core.Unit) {
	if len(units) == 0 {
		return
	}
	p.childCount.Add(int32(len(units)))
	for _, u := range units {
		p.pool.SubmitUnit(u)
	}
	p.suspend()
}

// Close tears down the parked coroutine goroutine. Safe to call more than
// once and safe to call concurrently with the coroutine still running (in
// which case it takes effect once the coroutine reaches final suspend). This
// is the frame's actual destruction point (spec.md §4.D "Destruction
// responsibility"), so the allocator hook is released here rather than at
// finalSuspend — the promise must stay allocated between the two so the
// outside world can still read the slot.
func (p *Promise[T]) Close() {
	if p.closed.CompareAndSwap(false, true) {
		p.alloc.Deallocate(int(unsafe.Sizeof(*p)), int(unsafe.Alignof(*p)))
		close(p.closeCh)
	}
}

// Run implements core.Unit: hand control to the coroutine's dedicated
// goroutine and block until it reaches its next suspension point.
func (p *Promise[T]) Run() {
	if idx, ok := p.pool.CurrentWorker(); ok {
		p.currentWorker = idx
	}
	p.resumeCh <- struct{}{}
	<-p.suspendedCh
}

// NotifyChildFinished implements core.Unit for the case where this promise
// is itself a parent: decrement the pending-children counter, and on
// reaching zero reschedule the promise so its goroutine resumes past the
// AwaitChildren/AwaitTuple call that suspended it (spec.md §4.D).
func (p *Promise[T]) NotifyChildFinished() {
	if p.childCount.Add(-1) == 0 {
		p.pool.SubmitUnit(p)
	}
}

// Deallocate is the scheduler-initiated shutdown path (spec.md §4.D
// "Destruction responsibility"): it calls Close even if the external
// Coro[T] handle has already been dropped. As with Close, a coroutine that
// has not reached final suspend keeps its goroutine parked.
func (p *Promise[T]) Deallocate() { p.Close() }

func (p *Promise[T]) Parent() core.Unit       { return p.parentUnit }
func (p *Promise[T]) SetParent(u core.Unit)   { p.parentUnit = u }
func (p *Promise[T]) PreferredWorker() int32  { return p.preferred.Load() }
func (p *Promise[T]) Children() *atomic.Int32 { return &p.childCount }
func (p *Promise[T]) LinkNode() *core.Link    { return &p.lk }

var _ core.Unit = (*Promise[int])(nil)
