package core

import (
	"sync"
	"testing"
)

func TestLocalQueuePushPopFIFO(t *testing.T) {
	q := &localQueue{}
	jobs := make([]*Job, 5)
	for i := range jobs {
		jobs[i] = newJob(nil, func() {}, AnyWorker)
		q.push(jobs[i])
	}

	for i := 0; i < len(jobs); i++ {
		u, ok := q.pop()
		if !ok {
			t.Fatalf("pop %d: expected a unit", i)
		}
		if u.(*Job) != jobs[i] {
			t.Fatalf("pop %d: expected FIFO order, got a different job", i)
		}
	}
	if _, ok := q.pop(); ok {
		t.Fatal("expected queue to be empty")
	}
}

func TestLocalQueueConcurrentProducers(t *testing.T) {
	q := &localQueue{}
	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.push(newJob(nil, func() {}, AnyWorker))
			}
		}()
	}
	wg.Wait()

	seen := 0
	for {
		_, ok := q.pop()
		if !ok {
			break
		}
		seen++
	}
	if seen != producers*perProducer {
		t.Fatalf("expected %d nodes, popped %d", producers*perProducer, seen)
	}
}

func TestSharedQueueMultisetRoundTrip(t *testing.T) {
	q := &sharedQueue{}
	jobs := make(map[*Job]bool)
	for i := 0; i < 10; i++ {
		j := newJob(nil, func() {}, AnyWorker)
		jobs[j] = true
		q.push(j)
	}

	popped := make(map[*Job]bool)
	for i := 0; i < 10; i++ {
		u, ok := q.pop()
		if !ok {
			t.Fatalf("pop %d: expected a unit", i)
		}
		popped[u.(*Job)] = true
	}
	if len(popped) != len(jobs) {
		t.Fatalf("expected %d distinct jobs, got %d", len(jobs), len(popped))
	}
	for j := range jobs {
		if !popped[j] {
			t.Fatalf("job %p missing from popped set", j)
		}
	}
	if _, ok := q.pop(); ok {
		t.Fatal("expected queue to be empty")
	}
}

func TestSharedQueueConcurrentPushPop(t *testing.T) {
	q := &sharedQueue{}
	const n = 500

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.push(newJob(nil, func() {}, AnyWorker))
		}()
	}
	wg.Wait()

	var mu sync.Mutex
	count := 0
	var popWg sync.WaitGroup
	for i := 0; i < 8; i++ {
		popWg.Add(1)
		go func() {
			defer popWg.Done()
			for {
				_, ok := q.pop()
				if !ok {
					return
				}
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	popWg.Wait()

	if count != n {
		t.Fatalf("expected %d pops, got %d", n, count)
	}
}

func TestDrainAndFree(t *testing.T) {
	q := &sharedQueue{}
	for i := 0; i < 5; i++ {
		q.push(newJob(nil, func() {}, AnyWorker))
	}
	q.drainAndFree()
	if _, ok := q.pop(); ok {
		t.Fatal("expected queue empty after drain")
	}
}
