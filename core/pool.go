package core

import (
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	noopSleepThreshold = 20
	noopSleepDuration  = time.Microsecond
)

// Pool owns N workers, a local queue per worker, one shared central queue
// and one shared recycle queue (spec.md §4.F). It is the concrete scheduler
// behind the public façade in package vgjs.
type Pool struct {
	cfg PoolConfig

	locals  []*localQueue
	central sharedQueue
	recycle sharedQueue

	wg            sync.WaitGroup
	startupLeft   atomic.Int32
	activeWorkers atomic.Int32
	terminating   atomic.Bool

	wlocal *workerLocal
}

// NewPool builds and starts a Pool per cfg. Workers <= 0 default to
// runtime.NumCPU(); the pool spawns Workers-StartIndex goroutines itself and
// leaves worker indices [0, StartIndex) for the caller to drive manually via
// RunWorker (spec.md §4.F "start_index").
func NewPool(cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = int32(runtime.NumCPU())
	}
	if cfg.Logger == nil {
		cfg.Logger = NewDefaultLogger()
	}
	if cfg.PanicHandler == nil {
		cfg.PanicHandler = &DefaultPanicHandler{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &NilMetrics{}
	}

	p := &Pool{
		cfg:    cfg,
		locals: make([]*localQueue, cfg.Workers),
		wlocal: newWorkerLocal(),
	}
	for i := range p.locals {
		p.locals[i] = &localQueue{}
	}
	p.activeWorkers.Store(cfg.Workers)
	p.startupLeft.Store(cfg.Workers)

	for i := cfg.StartIndex; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go func(idx int32) {
			defer p.wg.Done()
			p.RunWorker(idx)
		}(i)
	}
	return p
}

// RunWorker executes the worker loop for workerIndex on the calling
// goroutine. The pool calls this itself for every internally spawned
// worker; an embedder using StartIndex=1 calls it directly (blocking) for
// worker 0, matching the C++ source's "embedding thread serves as worker 0".
func (p *Pool) RunWorker(workerIndex int32) {
	p.startupLeft.Add(-1)
	for p.startupLeft.Load() > 0 {
		runtime.Gosched()
	}
	p.cfg.Logger.Debug("worker started", F("worker", workerIndex))

	noops := 0
	for !p.terminating.Load() {
		u, ok := p.locals[workerIndex].pop()
		if !ok {
			u, ok = p.central.pop()
		}
		if ok {
			p.invoke(workerIndex, u)
			noops = 0
			continue
		}

		noops++
		if noops >= noopSleepThreshold {
			if workerIndex != 0 {
				time.Sleep(noopSleepDuration)
			}
			noops = 0
		}
	}

	p.cfg.Logger.Debug("worker exiting", F("worker", workerIndex))
	if p.activeWorkers.Add(-1) == 0 {
		p.drainAll()
	}
}

// invoke runs u on behalf of workerIndex, registering worker-local state,
// recording duration metrics and recovering panics (spec.md §7 "Uncaught
// exception inside a unit: fatal"). A panicking unit still runs its
// notify-parent path once before the process aborts, so already-waiting
// parents are not left hung by a defect the process is about to crash from
// anyway.
func (p *Pool) invoke(workerIndex int32, u Unit) {
	p.wlocal.set(workerIndex, u)
	defer p.wlocal.clear()

	start := time.Now()
	defer func() {
		p.cfg.Metrics.RecordJobDuration(time.Since(start))
		if r := recover(); r != nil {
			p.cfg.Metrics.RecordJobPanic()
			stack := debug.Stack()
			p.cfg.PanicHandler.HandlePanic(workerIndex, u, r, stack)
			u.NotifyChildFinished()
			panic(r)
		}
	}()
	u.Run()
}

// schedule routes u to its preferred worker's local queue, or the central
// queue when unpinned (spec.md §4.F "Scheduling decision").
func (p *Pool) schedule(u Unit) {
	pw := u.PreferredWorker()
	if pw >= 0 && pw < int32(len(p.locals)) {
		p.locals[pw].push(u)
		return
	}
	p.central.push(u)
}

// scheduleCallable implements "Scheduling a callable" (spec.md §4.F): a job
// carcass is acquired (recycled or fresh), parented on the currently running
// unit if there is one, and pushed via schedule.
func (p *Pool) scheduleCallable(callable func(), preferredWorker int32) {
	parent, _ := p.CurrentUnit()
	j := p.AcquireJob(parent, callable, preferredWorker)
	if parent != nil {
		parent.Children().Add(1)
	}
	p.schedule(j)
}

// AcquireJob obtains a Job carcass (recycled or freshly allocated), reset to
// run callable on behalf of parent, pinned to preferredWorker. Exported so
// package coro can schedule plain-callable children of a coroutine through
// the same recycle path plain jobs use.
func (p *Pool) AcquireJob(parent Unit, callable func(), preferredWorker int32) *Job {
	if u, ok := p.recycle.pop(); ok {
		j := u.(*Job)
		j.reset(parent, callable, preferredWorker)
		return j
	}
	j := newJob(parent, callable, preferredWorker)
	j.pool = p
	return j
}

func (p *Pool) pushRecycle(j *Job) {
	p.recycle.push(j)
}

func (p *Pool) drainAll() {
	p.central.drainAndFree()
	p.recycle.drainAndFree()
	for _, lq := range p.locals {
		lq.drainAndFree()
	}
	p.cfg.Logger.Info("pool drained", F("workers", p.cfg.Workers))
}

// Submit posts callable as a plain job, pinned to workerHint[0] if given
// (spec.md §4.G "submit(callable, worker_hint?)").
func (p *Pool) Submit(callable func(), workerHint ...int32) {
	pw := AnyWorker
	if len(workerHint) > 0 {
		pw = workerHint[0]
	}
	p.scheduleCallable(callable, pw)
}

// SubmitBatch posts every callable in callables via Submit.
func (p *Pool) SubmitBatch(callables []func(), workerHint ...int32) {
	for _, c := range callables {
		p.Submit(c, workerHint...)
	}
}

// SubmitUnit schedules an already-constructed Unit whose parent/children
// bookkeeping the caller has already arranged (e.g. a coroutine promise via
// the await protocol or the façade's Schedule helper).
func (p *Pool) SubmitUnit(u Unit) {
	p.schedule(u)
}

// SubmitUnitBatch schedules every unit in units.
func (p *Pool) SubmitUnitBatch(units []Unit) {
	for _, u := range units {
		p.schedule(u)
	}
}

// CurrentUnit reports the Unit the calling goroutine is currently running on
// behalf of, if any (spec.md §4.G "current_unit()").
func (p *Pool) CurrentUnit() (Unit, bool) {
	s, ok := p.wlocal.get()
	if !ok {
		return nil, false
	}
	return s.unit, true
}

// Metrics exposes the pool's configured Metrics sink so collaborating
// packages (coro, tracking coroutines-in-flight) can record against the
// same instance the worker loop does, without the caller needing to thread
// a Metrics value through separately.
func (p *Pool) Metrics() Metrics { return p.cfg.Metrics }

// CurrentWorker reports the worker index the calling goroutine is currently
// executing on, if any.
func (p *Pool) CurrentWorker() (int32, bool) {
	s, ok := p.wlocal.get()
	if !ok {
		return 0, false
	}
	return s.workerIndex, true
}

// Terminate requests shutdown: queued work is drained without execution;
// in-flight units finish naturally (spec.md §7).
func (p *Pool) Terminate() {
	p.terminating.Store(true)
}

// WaitForTermination blocks until every internally spawned worker has
// exited. It does not wait on a worker the embedder runs manually via
// RunWorker for StartIndex > 0 — that call itself blocks until termination.
func (p *Pool) WaitForTermination() {
	p.wg.Wait()
}

// PoolStats is a point-in-time observability snapshot (spec.md §4.F).
type PoolStats struct {
	Workers      int32
	CentralDepth int
	RecycleDepth int
	LocalDepths  []int
}

// Stats returns a best-effort snapshot of queue depths, suitable for periodic
// export (see observability/prometheus.SnapshotPoller). Each depth it walks
// is also handed to the configured Metrics sink, piggy-backing on work this
// call already does rather than re-walking the queues on a separate timer.
func (p *Pool) Stats() PoolStats {
	central := p.central.len()
	recycle := p.recycle.len()
	p.cfg.Metrics.RecordQueueDepth("central", central)
	p.cfg.Metrics.RecordQueueDepth("recycle", recycle)

	locals := make([]int, len(p.locals))
	for i, lq := range p.locals {
		locals[i] = lq.len()
		p.cfg.Metrics.RecordQueueDepth("local:"+strconv.Itoa(i), locals[i])
	}
	return PoolStats{
		Workers:      p.cfg.Workers,
		CentralDepth: central,
		RecycleDepth: recycle,
		LocalDepths:  locals,
	}
}
