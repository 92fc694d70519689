package coro

import (
	"testing"
	"time"

	"github.com/hlavacs/vgjs-go/core"
)

// TestYieldWhileParentAlsoYielding exercises SPEC_FULL.md's Open Question 2:
// a parent that yields once itself, then awaits a child that also yields.
// Because the pending-children counter is purely atomic and parent-agnostic
// (core.Unit.Children/NotifyChildFinished never inspect what suspension
// point the parent happens to be sitting at), the parent is rescheduled
// exactly once per child notification regardless of whether the parent's
// own most recent suspension was a yield or an await. A driver coroutine is
// what actually resumes the yielding parent past its own yield point — the
// pool never reschedules a yielded coroutine on its own.
func TestYieldWhileParentAlsoYielding(t *testing.T) {
	pool := core.NewPool(core.PoolConfig{Workers: 4, Logger: core.NewNoOpLogger()})
	defer func() {
		pool.Terminate()
		pool.WaitForTermination()
	}()

	child := Go[int](pool, core.AnyWorker, func(ctx *Ctx[int]) int {
		Yield(ctx, 10)
		return 20
	})

	parent := Go[int](pool, core.AnyWorker, func(ctx *Ctx[int]) int {
		Yield(ctx, 1)

		a := AwaitChild(ctx, child)
		b := AwaitChild(ctx, child)
		return a*100 + b
	})

	var stages []int
	driver := Go[int](pool, core.AnyWorker, func(ctx *Ctx[int]) int {
		first := AwaitChild(ctx, parent)
		stages = append(stages, first)
		second := AwaitChild(ctx, parent)
		stages = append(stages, second)
		return second
	})
	pool.SubmitUnit(driver.AsUnit())

	waitUntil(t, 3*time.Second, driver.Done)

	if len(stages) != 2 || stages[0] != 1 {
		t.Fatalf("expected parent's yielded 1 observed first, got %v", stages)
	}
	if stages[1] != 1020 {
		t.Fatalf("expected parent's final value 10*100+20=1020, got %d", stages[1])
	}
}
