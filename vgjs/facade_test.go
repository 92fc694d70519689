package vgjs

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/hlavacs/vgjs-go/core"
	"github.com/hlavacs/vgjs-go/coro"
)

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	if !cond() {
		t.Fatal("condition never became true")
	}
}

func TestSystemSubmitRunsCallable(t *testing.T) {
	s := New(core.PoolConfig{Workers: 2, Logger: core.NewNoOpLogger()})
	defer func() {
		s.Terminate()
		s.WaitForTermination()
	}()

	var ran atomic.Bool
	done := make(chan struct{})
	s.Submit(func() {
		ran.Store(true)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callable never ran")
	}
	if !ran.Load() {
		t.Fatal("callable did not run")
	}
}

// TestScheduleRunsRootCoroutineWithoutParent runs a fan-out end to end
// through the façade: Schedule with a nil parent and no child credit hands
// a root coroutine to the pool, and the root sums its 10 awaited leaves.
func TestScheduleRunsRootCoroutineWithoutParent(t *testing.T) {
	s := New(core.PoolConfig{Workers: 4, Logger: core.NewNoOpLogger()})
	defer func() {
		s.Terminate()
		s.WaitForTermination()
	}()

	root := coro.Go[int](s.Pool(), core.AnyWorker, func(ctx *coro.Ctx[int]) int {
		const n = 10
		leaves := make([]*coro.Coro[int], n)
		for i := range leaves {
			leaves[i] = coro.Go[int](s.Pool(), core.AnyWorker, func(*coro.Ctx[int]) int { return 1 })
		}
		vals := coro.AwaitChildren(ctx, leaves)
		sum := 0
		for _, v := range vals {
			sum += v
		}
		return sum
	})

	Schedule(s, root, nil, 0)

	waitUntil(t, 3*time.Second, root.Done)
	got, _ := root.Get()
	if got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
}

// TestDefaultSystemPackageLevelHelpers exercises the lazily-initialized
// default System convenience wrappers.
func TestDefaultSystemPackageLevelHelpers(t *testing.T) {
	defer func() {
		Terminate()
		WaitForTermination()
	}()

	var count atomic.Int32
	callables := make([]func(), 10)
	for i := range callables {
		callables[i] = func() { count.Add(1) }
	}
	SubmitBatch(callables)

	waitUntil(t, 2*time.Second, func() bool { return count.Load() == int32(len(callables)) })
}

// TestShutdownDrainsSystemQueues mirrors spec.md §8 scenario 6.
func TestShutdownDrainsSystemQueues(t *testing.T) {
	s := New(core.PoolConfig{Workers: 2, Logger: core.NewNoOpLogger()})

	var count atomic.Int32
	for i := 0; i < 200; i++ {
		s.Submit(func() { count.Add(1) })
	}

	s.Terminate()
	s.WaitForTermination()

	stats := s.Stats()
	if stats.CentralDepth != 0 || stats.RecycleDepth != 0 {
		t.Fatalf("expected empty queues after shutdown, got %+v", stats)
	}
	for i, d := range stats.LocalDepths {
		if d != 0 {
			t.Fatalf("expected local queue %d empty after shutdown, got %d", i, d)
		}
	}
}
