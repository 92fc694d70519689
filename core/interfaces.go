package core

import (
	"fmt"
	"time"
)

// =============================================================================
// PanicHandler: called when a unit panics inside a worker's Run call
// =============================================================================

// PanicHandler is invoked by a worker when a unit panics while running. Only
// panics raised on the worker goroutine reach it (a plain job's callable); a
// coroutine body runs on its own goroutine, so a panic there is not recovered
// by the worker and ends the process without calling the handler.
// Implementations should be thread-safe; they may be called concurrently by
// different workers.
type PanicHandler interface {
	// HandlePanic is called with the worker that observed the panic, the unit
	// that was running, the recovered panic value and the stack trace.
	HandlePanic(workerIndex int32, u Unit, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler prints panic information to stdout. It does not stop
// the panic: once the handler returns, Pool.invoke runs the unit's
// notify-parent path and re-panics, which ends the process; a panicking unit
// is never retried or rescheduled.
type DefaultPanicHandler struct{}

func (h *DefaultPanicHandler) HandlePanic(workerIndex int32, u Unit, panicInfo any, stackTrace []byte) {
	fmt.Printf("[worker %d] unit panic: %v\n%s", workerIndex, panicInfo, stackTrace)
}

// =============================================================================
// Metrics: observability hooks, implemented by observability/prometheus
// =============================================================================

// Metrics collects scheduler-level measurements. All methods must be
// non-blocking and safe to call from any worker goroutine concurrently.
type Metrics interface {
	// RecordJobDuration records the wall-clock time a single Run invocation
	// occupied a worker (one synchronous segment, not a whole subtree).
	RecordJobDuration(d time.Duration)

	// RecordJobPanic records that a unit panicked during Run.
	RecordJobPanic()

	// RecordQueueDepth records the current length of a named queue
	// ("central", "recycle", or "local:<n>").
	RecordQueueDepth(queue string, depth int)

	// IncCoroutinesInFlight / DecCoroutinesInFlight track coroutines that
	// have been created (coro.Go) but have not yet reached final suspend.
	IncCoroutinesInFlight()
	DecCoroutinesInFlight()
}

// NilMetrics is the default no-op Metrics implementation.
type NilMetrics struct{}

func (m *NilMetrics) RecordJobDuration(d time.Duration)         {}
func (m *NilMetrics) RecordJobPanic()                           {}
func (m *NilMetrics) RecordQueueDepth(queue string, depth int)  {}
func (m *NilMetrics) IncCoroutinesInFlight()                    {}
func (m *NilMetrics) DecCoroutinesInFlight()                    {}

// =============================================================================
// PoolConfig
// =============================================================================

// PoolConfig configures a Pool. Zero values select sensible defaults: Workers
// defaults to runtime.NumCPU(), StartIndex 0 means the pool spawns every worker
// goroutine itself; StartIndex 1 reserves worker 0 for the caller, who must
// then run it with Pool.RunWorker(0).
type PoolConfig struct {
	Workers      int32
	StartIndex   int32
	Logger       Logger
	PanicHandler PanicHandler
	Metrics      Metrics
}

// DefaultPoolConfig returns a config with every field defaulted.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Workers:      0,
		StartIndex:   0,
		Logger:       NewDefaultLogger(),
		PanicHandler: &DefaultPanicHandler{},
		Metrics:      &NilMetrics{},
	}
}
