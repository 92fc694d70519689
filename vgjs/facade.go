// Package vgjs is the public surface of the job system (spec.md §4.G/§6):
// a thin façade over core.Pool that also knows how to schedule a
// coro.Coro[T] with its parent bookkeeping done correctly. Most programs
// only ever import this package plus coro for the await family.
package vgjs

import (
	"sync"

	"github.com/hlavacs/vgjs-go/core"
)

// System is an explicit scheduler instance (spec.md §9 Design Notes:
// "prefer an explicit scheduler value... process-wide mutable state is not
// a requirement"). Construct one with New and keep it alive for the
// program's lifetime; the package-level functions below are convenience
// wrappers over a lazily-initialized default System for callers who don't
// need more than one.
type System struct {
	pool *core.Pool
}

// New builds and starts a System per cfg.
func New(cfg core.PoolConfig) *System {
	return &System{pool: core.NewPool(cfg)}
}

// Pool exposes the underlying core.Pool for callers that need lower-level
// access (e.g. AcquireJob, or passing the pool into coro.Go).
func (s *System) Pool() *core.Pool { return s.pool }

// Submit posts callable as a plain job, pinned to workerHint[0] if given.
func (s *System) Submit(callable func(), workerHint ...int32) {
	s.pool.Submit(callable, workerHint...)
}

// SubmitBatch posts every callable in callables via Submit.
func (s *System) SubmitBatch(callables []func(), workerHint ...int32) {
	s.pool.SubmitBatch(callables, workerHint...)
}

// SubmitUnit schedules an already-constructed core.Unit.
func (s *System) SubmitUnit(u core.Unit) { s.pool.SubmitUnit(u) }

// SubmitUnitBatch schedules every unit in units.
func (s *System) SubmitUnitBatch(units []core.Unit) { s.pool.SubmitUnitBatch(units) }

// CurrentUnit reports the Unit the calling goroutine is currently running
// on behalf of, if any.
func (s *System) CurrentUnit() (core.Unit, bool) { return s.pool.CurrentUnit() }

// Terminate requests shutdown (spec.md §7): queued work is drained without
// execution, in-flight units finish naturally.
func (s *System) Terminate() { s.pool.Terminate() }

// WaitForTermination blocks until every worker the pool spawned itself has
// exited; a worker the embedder runs via RunWorker is not waited on.
func (s *System) WaitForTermination() { s.pool.WaitForTermination() }

// Stats returns a point-in-time queue-depth snapshot, suitable for periodic
// export via observability/prometheus.SnapshotPoller.
func (s *System) Stats() core.PoolStats { return s.pool.Stats() }

// Schedulable is anything that exposes itself as a core.Unit and accepts a
// parent assignment — coro.Coro[T] satisfies this for any T. Schedule uses
// it to wire a coroutine into the structured-concurrency parent/child
// protocol before handing it to the pool.
type Schedulable interface {
	AsUnit() core.Unit
	SetParent(core.Unit)
}

// Schedule wires a coroutine (or anything else satisfying Schedulable) in
// as a child of parent and hands it to the pool (spec.md §4.G "schedule a
// coroutine with nChildren owed notifications"). nChildren lets a caller
// credit the parent's pending-children counter by more than one in a
// single call — e.g. when the parent is about to schedule several
// coroutines back to back and wants one atomic increment covering all of
// them, matching the await protocol's single-pre-increment discipline.
func Schedule[S Schedulable](s *System, c S, parent core.Unit, nChildren int32) {
	if parent != nil && nChildren > 0 {
		parent.Children().Add(nChildren)
	}
	c.SetParent(parent)
	s.SubmitUnit(c.AsUnit())
}

var (
	defaultOnce sync.Once
	defaultSys  *System
)

func defaultSystem() *System {
	defaultOnce.Do(func() {
		defaultSys = New(core.DefaultPoolConfig())
	})
	return defaultSys
}

// Submit posts callable on the package-level default System.
func Submit(callable func(), workerHint ...int32) { defaultSystem().Submit(callable, workerHint...) }

// SubmitBatch posts every callable in callables on the default System.
func SubmitBatch(callables []func(), workerHint ...int32) {
	defaultSystem().SubmitBatch(callables, workerHint...)
}

// SubmitUnit schedules u on the default System.
func SubmitUnit(u core.Unit) { defaultSystem().SubmitUnit(u) }

// SubmitUnitBatch schedules every unit in units on the default System.
func SubmitUnitBatch(units []core.Unit) { defaultSystem().SubmitUnitBatch(units) }

// CurrentUnit reports the currently running Unit on the default System.
func CurrentUnit() (core.Unit, bool) { return defaultSystem().CurrentUnit() }

// Terminate requests shutdown of the default System.
func Terminate() { defaultSystem().Terminate() }

// WaitForTermination blocks until the default System's workers have exited.
func WaitForTermination() { defaultSystem().WaitForTermination() }
