// Command vgjsdemo drives the six end-to-end scenarios of spec.md §8's
// testable-properties table against a real core.Pool, printing the observed
// invariant for each. It exists to give a human a way to watch the scheduler
// behave without writing a test (SPEC_FULL.md §2 cmd/vgjsdemo).
package main

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/hlavacs/vgjs-go/core"
	"github.com/hlavacs/vgjs-go/coro"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "vgjsdemo",
		Usage: "run a vgjs-go scheduler scenario and print its observed invariant",
		Commands: []*cli.Command{
			fanoutCommand(),
			continuationCommand(),
			migrateCommand(),
			tupleCommand(),
			yieldCommand(),
			shutdownCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func workersFlag() *cli.Int64Flag {
	return &cli.Int64Flag{
		Name:  "workers",
		Value: 4,
		Usage: "worker pool size",
	}
}

func newDemoPool(c *cli.Context) *core.Pool {
	return core.NewPool(core.PoolConfig{
		Workers: int32(c.Int64("workers")),
		Logger:  core.NewNoOpLogger(),
	})
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}

// fanoutCommand mirrors spec.md §8 scenario 1: a parent coroutine awaits a
// vector of 100 children each returning 1; the parent's Get() must equal 100
// and exactly 101 units (1 parent + 100 children) must have completed.
func fanoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "fanout",
		Usage: "parent awaits 100 children each returning 1, expects sum 100",
		Flags: []cli.Flag{workersFlag()},
		Action: func(c *cli.Context) error {
			pool := newDemoPool(c)
			defer func() { pool.Terminate(); pool.WaitForTermination() }()

			var completed atomic.Int32
			root := coro.Go[int](pool, core.AnyWorker, func(ctx *coro.Ctx[int]) int {
				defer completed.Add(1)
				const n = 100
				leaves := make([]*coro.Coro[int], n)
				for i := range leaves {
					leaves[i] = coro.Go[int](pool, core.AnyWorker, func(*coro.Ctx[int]) int {
						defer completed.Add(1)
						return 1
					})
				}
				vals := coro.AwaitChildren(ctx, leaves)
				sum := 0
				for _, v := range vals {
					sum += v
				}
				return sum
			})
			pool.SubmitUnit(root.AsUnit())

			if !waitFor(3*time.Second, root.Done) {
				return cli.Exit("timed out waiting for fan-out", 1)
			}
			got, _ := root.Get()
			fmt.Printf("fanout: parent.Get() = %d, units completed = %d\n", got, completed.Load())
			return nil
		},
	}
}

// continuationCommand mirrors spec.md §8 scenario 2: plain job A spawns 10
// children and has continuation B; B must observe the 10-child counter
// before B itself runs.
func continuationCommand() *cli.Command {
	return &cli.Command{
		Name:  "continuation",
		Usage: "job A spawns 10 children, continuation B must run after all of them",
		Flags: []cli.Flag{workersFlag()},
		Action: func(c *cli.Context) error {
			pool := newDemoPool(c)
			defer func() { pool.Terminate(); pool.WaitForTermination() }()

			var counter atomic.Int32
			var observedByB atomic.Int32
			done := make(chan struct{})

			cont := pool.AcquireJob(nil, func() {
				observedByB.Store(counter.Load())
				close(done)
			}, core.AnyWorker)

			a := pool.AcquireJob(nil, func() {
				for i := 0; i < 10; i++ {
					pool.Submit(func() { counter.Add(1) })
				}
			}, core.AnyWorker)
			a.WithContinuation(cont)
			pool.SubmitUnit(a)

			select {
			case <-done:
			case <-time.After(3 * time.Second):
				return cli.Exit("timed out waiting for continuation", 1)
			}
			fmt.Printf("continuation: B observed counter = %d (want 10)\n", observedByB.Load())
			return nil
		},
	}
}

// migrateCommand mirrors spec.md §8 scenario 3: a coroutine calls ResumeOn(3)
// then records its worker id, which must equal 3.
func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "coroutine migrates to worker 3 via ResumeOn",
		Flags: []cli.Flag{workersFlag()},
		Action: func(c *cli.Context) error {
			pool := newDemoPool(c)
			defer func() { pool.Terminate(); pool.WaitForTermination() }()

			observed := make(chan int32, 1)
			root := coro.Go[int](pool, core.AnyWorker, func(ctx *coro.Ctx[int]) int {
				coro.ResumeOn(ctx, 3)
				observed <- coro.CurrentWorker(ctx)
				return 0
			})
			pool.SubmitUnit(root.AsUnit())

			select {
			case idx := <-observed:
				fmt.Printf("migrate: resumed on worker %d (want 3)\n", idx)
			case <-time.After(3 * time.Second):
				return cli.Exit("coroutine never resumed", 1)
			}
			return nil
		},
	}
}

// tupleCommand mirrors spec.md §8 scenario 4: awaiting a tuple of (3
// coroutines, 2 callables); all 5 children must complete and the parent must
// resume exactly once.
func tupleCommand() *cli.Command {
	return &cli.Command{
		Name:  "tuple",
		Usage: "await a heterogeneous tuple of 3 coroutines and 2 callables",
		Flags: []cli.Flag{workersFlag()},
		Action: func(c *cli.Context) error {
			pool := newDemoPool(c)
			defer func() { pool.Terminate(); pool.WaitForTermination() }()

			var resumes atomic.Int32
			var callablesRun atomic.Int32
			root := coro.Go[int](pool, core.AnyWorker, func(ctx *coro.Ctx[int]) int {
				leaves := []*coro.Coro[int]{
					coro.Go[int](pool, core.AnyWorker, func(*coro.Ctx[int]) int { return 1 }),
					coro.Go[int](pool, core.AnyWorker, func(*coro.Ctx[int]) int { return 2 }),
					coro.Go[int](pool, core.AnyWorker, func(*coro.Ctx[int]) int { return 3 }),
				}
				callables := []func(){
					func() { callablesRun.Add(1) },
					func() { callablesRun.Add(1) },
				}
				coro.AwaitTuple(ctx, coro.CoroGroup(leaves), coro.CallableGroup(callables))
				resumes.Add(1)

				sum := 0
				for _, c := range leaves {
					v, _ := c.Get()
					sum += v
				}
				return sum
			})
			pool.SubmitUnit(root.AsUnit())

			if !waitFor(3*time.Second, root.Done) {
				return cli.Exit("timed out waiting for tuple await", 1)
			}
			got, _ := root.Get()
			fmt.Printf("tuple: parent.Get() = %d, callables run = %d, parent resumed %d time(s)\n",
				got, callablesRun.Load(), resumes.Load())
			return nil
		},
	}
}

// yieldCommand mirrors spec.md §8 scenario 5: a coroutine yields 1..5 then
// returns 0, driven by five AwaitChild calls plus a final one.
func yieldCommand() *cli.Command {
	return &cli.Command{
		Name:  "yield",
		Usage: "coroutine yields 1..5 then returns 0, driver resumes it six times",
		Flags: []cli.Flag{workersFlag()},
		Action: func(c *cli.Context) error {
			pool := newDemoPool(c)
			defer func() { pool.Terminate(); pool.WaitForTermination() }()

			child := coro.Go[int](pool, core.AnyWorker, func(ctx *coro.Ctx[int]) int {
				for i := 1; i <= 5; i++ {
					coro.Yield(ctx, i)
				}
				return 0
			})

			var seen []int
			driver := coro.Go[int](pool, core.AnyWorker, func(ctx *coro.Ctx[int]) int {
				for i := 0; i < 5; i++ {
					seen = append(seen, coro.AwaitChild(ctx, child))
				}
				final := coro.AwaitChild(ctx, child)
				seen = append(seen, final)
				return final
			})
			pool.SubmitUnit(driver.AsUnit())

			if !waitFor(3*time.Second, driver.Done) {
				return cli.Exit("timed out waiting for yield loop", 1)
			}
			fmt.Printf("yield: observed sequence %v (want [1 2 3 4 5 0])\n", seen)
			return nil
		},
	}
}

// shutdownCommand mirrors spec.md §8 scenario 6: submit 1000 jobs, terminate
// immediately, and confirm every queue is empty once WaitForTermination
// returns.
func shutdownCommand() *cli.Command {
	return &cli.Command{
		Name:  "shutdown",
		Usage: "submit 1000 jobs, terminate immediately, confirm queues drained",
		Flags: []cli.Flag{workersFlag()},
		Action: func(c *cli.Context) error {
			pool := newDemoPool(c)

			var ran atomic.Int32
			for i := 0; i < 1000; i++ {
				pool.Submit(func() { ran.Add(1) })
			}

			pool.Terminate()
			pool.WaitForTermination()

			stats := pool.Stats()
			emptyLocals := true
			for _, d := range stats.LocalDepths {
				if d != 0 {
					emptyLocals = false
				}
			}
			fmt.Printf("shutdown: ran = %d, central depth = %d, recycle depth = %d, locals empty = %v\n",
				ran.Load(), stats.CentralDepth, stats.RecycleDepth, emptyLocals)
			return nil
		},
	}
}
