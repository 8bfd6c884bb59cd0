// Package parallel runs an island's velocity/position solver phases
// either sequentially or across a fixed worker pool using lock-free
// atomic cursors, following the original source's
// parallel_island_solver.rs ThreadContext design (spec §4.6): each
// phase is a flat array of independent work items; workers race to
// claim batches via atomic fetch-add on a shared cursor, and RunPhase
// returns only once every worker has finished (a WaitGroup), so no
// phase N+1 work starts before phase N is done.
package parallel

import (
	"sync"
	"sync/atomic"
)

// BatchSize is the number of work items a single fetch-add claims,
// following the original source's WORK_UNIT choice of batching several
// items per atomic op to keep contention on the cursor itself low.
const BatchSize = 4

// ThreadContext coordinates a fixed pool of worker goroutines across a
// sequence of phases within one island's solve. It is built fresh per
// island (islands never share a ThreadContext) and reused across every
// phase of that island's step, mirroring the original source reusing
// one ThreadContext across all of an island's velocity/position
// iterations instead of allocating per phase.
type ThreadContext struct {
	numWorkers int

	cursor    atomic.Uint64
	completed atomic.Int64
	total     int
}

// NewThreadContext returns a context sized for numWorkers goroutines;
// numWorkers < 1 is treated as 1 (never spawn zero workers).
func NewThreadContext(numWorkers int) *ThreadContext {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &ThreadContext{numWorkers: numWorkers}
}

// RunPhase partitions [0,n) into BatchSize-sized batches and runs fn
// over every index, using numWorkers goroutines racing on an atomic
// cursor to claim batches; it blocks until every item has been
// processed by some worker (the "lock_until_ge" fence in the original
// source, implemented here with a WaitGroup since Go has no portable
// user-space futex).
func (tc *ThreadContext) RunPhase(n int, fn func(index int)) {
	if n == 0 {
		return
	}
	tc.cursor.Store(0)
	tc.completed.Store(0)
	tc.total = n

	workers := tc.numWorkers
	if workers > n {
		workers = n
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				start := tc.cursor.Add(BatchSize) - BatchSize
				if int(start) >= n {
					return
				}
				end := int(start) + BatchSize
				if end > n {
					end = n
				}
				for i := int(start); i < end; i++ {
					fn(i)
				}
				tc.completed.Add(int64(end - int(start)))
			}
		}()
	}
	wg.Wait()
}

// SequentialContext is the reference single-threaded execution mode
// required to coexist with ThreadContext and produce results
// equivalent at equal iteration counts (spec §5): it runs every index
// in order on the calling goroutine, with no atomics at all.
type SequentialContext struct{}

func (SequentialContext) RunPhase(n int, fn func(index int)) {
	for i := 0; i < n; i++ {
		fn(i)
	}
}

// Runner is satisfied by both ThreadContext and SequentialContext, so
// package step can select between them via IntegrationParameters.
// Parallel without branching its own call sites.
type Runner interface {
	RunPhase(n int, fn func(index int))
}

// NewRunner returns a ThreadContext if parallel is requested and
// numWorkers > 1, else the sequential reference path.
func NewRunner(parallelMode bool, numWorkers int) Runner {
	if parallelMode && numWorkers > 1 {
		return NewThreadContext(numWorkers)
	}
	return SequentialContext{}
}
