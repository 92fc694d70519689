package coro

import (
	"github.com/hlavacs/vgjs-go/core"
)

// Coro is the external handle to a running or finished coroutine (spec.md
// §3 "coroutine object"): it shares the promise's return slot so Get keeps
// working after the promise itself has parked at final suspend or been torn
// down, and it is the unit other code awaits or hands to the pool.
type Coro[T any] struct {
	p    *Promise[T]
	slot *sharedSlot[T]
}

// Go starts a new coroutine on pool (spec.md §4.D "Coroutine creation"). The
// body runs on its own dedicated goroutine, parked until the pool first
// schedules the returned handle's unit; preferredWorker pins every
// resumption to one worker, or core.AnyWorker to let the pool pick. The
// caller is responsible for giving the coroutine a parent and scheduling it
// (see package vgjs's Schedule, or AwaitChild/AwaitChildren for a coroutine
// spawning its own children).
func Go[T any](pool *core.Pool, preferredWorker int32, body func(*Ctx[T]) T) *Coro[T] {
	p := newPromise[T](pool, nil, preferredWorker)
	c := &Coro[T]{p: p, slot: p.slot}

	pool.Metrics().IncCoroutinesInFlight()
	go func() {
		<-p.resumeCh
		ctx := &Ctx[T]{promise: p}
		result := body(ctx)
		p.finalSuspend(result)
	}()

	return c
}

// AsUnit exposes the coroutine's promise as a core.Unit for scheduling.
func (c *Coro[T]) AsUnit() core.Unit { return c.p }

// SetParent assigns (or reassigns) the coroutine's parent. Callers must do
// this, and increment the parent's child count, before the coroutine is
// first scheduled.
func (c *Coro[T]) SetParent(parent core.Unit) { c.p.SetParent(parent) }

// Get returns the most recent value written to the shared slot (by a prior
// Yield or the final return) and whether any value has been written yet.
func (c *Coro[T]) Get() (T, bool) { return c.slot.read() }

// Done reports whether the coroutine has reached final suspend.
func (c *Coro[T]) Done() bool { return c.p.finished.Load() }

// Close tears down the coroutine's dedicated goroutine once it is parked at
// final suspend (spec.md §4.D "Destruction responsibility"). Safe to call
// more than once and before the coroutine finishes. Close does not stop a
// coroutine that never reaches final suspend: a goroutine waiting to be
// started or resumed stays parked.
func (c *Coro[T]) Close() { c.p.Close() }
