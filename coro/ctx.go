package coro

import "github.com/hlavacs/vgjs-go/core"

// Ctx is the handle a coroutine body uses to await children, migrate
// worker, or yield a value (spec.md §4.E "Awaiter family"). It wraps the
// coroutine's own promise; every method here may only be called from inside
// the coroutine body it was handed to.
type Ctx[T any] struct {
	promise *Promise[T]
}

// AwaitChild suspends until child finishes (or next yields) and returns its
// current value (spec.md §8 "Yield loop": repeated AwaitChild calls resume
// a yielding child one step at a time).
func AwaitChild[T, C any](ctx *Ctx[T], child *Coro[C]) C {
	child.SetParent(ctx.promise)
	ctx.promise.awaitUnits([]core.Unit{child.AsUnit()})
	v, _ := child.Get()
	return v
}

// AwaitChildren suspends until every child in children has finished (or
// yielded), then returns their current values in the same order. An empty
// slice is a documented no-op: awaiting nothing never suspends (spec.md
// §8).
func AwaitChildren[T, C any](ctx *Ctx[T], children []*Coro[C]) []C {
	if len(children) == 0 {
		return nil
	}
	units := make([]core.Unit, len(children))
	for i, c := range children {
		c.SetParent(ctx.promise)
		units[i] = c.AsUnit()
	}
	ctx.promise.awaitUnits(units)

	out := make([]C, len(children))
	for i, c := range children {
		out[i], _ = c.Get()
	}
	return out
}

// AwaitCallables suspends until every plain callable in callables has run
// to completion (spec.md §4.D: a coroutine may await plain jobs exactly
// like it awaits other coroutines).
func AwaitCallables[T any](ctx *Ctx[T], callables []func()) {
	if len(callables) == 0 {
		return
	}
	units := make([]core.Unit, len(callables))
	for i, cb := range callables {
		units[i] = ctx.promise.pool.AcquireJob(ctx.promise, cb, core.AnyWorker)
	}
	ctx.promise.awaitUnits(units)
}

// Group is one homogeneous batch within a heterogeneous AwaitTuple call
// (spec.md §4.D "await heterogeneous tuple"): a group of coroutines and a
// group of plain callables both flatten to a []core.Unit, built against the
// awaiting coroutine's promise once AwaitTuple knows it, so the whole tuple
// shares one pre-increment.
type Group struct {
	build func(parent core.Unit, pool *core.Pool) []core.Unit
}

// CoroGroup wraps a slice of same-typed coroutines as one AwaitTuple group.
func CoroGroup[C any](children []*Coro[C]) Group {
	return Group{build: func(parent core.Unit, pool *core.Pool) []core.Unit {
		units := make([]core.Unit, len(children))
		for i, c := range children {
			c.SetParent(parent)
			units[i] = c.AsUnit()
		}
		return units
	}}
}

// CallableGroup wraps a slice of plain callables as one AwaitTuple group.
func CallableGroup(callables []func()) Group {
	return Group{build: func(parent core.Unit, pool *core.Pool) []core.Unit {
		units := make([]core.Unit, len(callables))
		for i, cb := range callables {
			units[i] = pool.AcquireJob(parent, cb, core.AnyWorker)
		}
		return units
	}}
}

// AwaitTuple suspends until every unit across every group has finished
// (spec.md §4.D "await heterogeneous tuple"): all groups are flattened and
// scheduled together behind a single pre-increment, so no child can finish
// and race the shared counter down before every sibling has been counted.
func AwaitTuple[T any](ctx *Ctx[T], groups ...Group) {
	var units []core.Unit
	for _, g := range groups {
		units = append(units, g.build(ctx.promise, ctx.promise.pool)...)
	}
	ctx.promise.awaitUnits(units)
}

// ResumeOn migrates the coroutine so its next resumption runs on
// workerIndex (spec.md §4.E "await_resume_on(worker_index)"): the promise's
// preferred worker is updated, the promise is rescheduled immediately, and
// the coroutine suspends until that reschedule's Run call resumes it — on
// the requested worker. The ready-check is the current worker already being
// workerIndex: that case must not suspend (spec.md §4.E/§8 boundary case).
func ResumeOn[T any](ctx *Ctx[T], workerIndex int32) {
	if ctx.promise.currentWorker == workerIndex {
		return
	}
	ctx.promise.preferred.Store(workerIndex)
	ctx.promise.pool.SubmitUnit(ctx.promise)
	ctx.promise.suspend()
}

// Yield writes v into the shared return slot, notifies the parent exactly
// as a completed child would, and suspends — the coroutine remains
// resumable, unlike a final return (spec.md §4.D "co_yield v").
func Yield[T any](ctx *Ctx[T], v T) {
	ctx.promise.yield(v)
}

// CurrentWorker reports which worker most recently resumed this coroutine.
func CurrentWorker[T any](ctx *Ctx[T]) int32 {
	return ctx.promise.currentWorker
}
