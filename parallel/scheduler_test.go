package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThreadContextVisitsEveryIndexExactlyOnce(t *testing.T) {
	const n = 137 // deliberately not a multiple of BatchSize
	var seen [n]atomic.Int32

	tc := NewThreadContext(4)
	tc.RunPhase(n, func(i int) {
		seen[i].Add(1)
	})

	for i := 0; i < n; i++ {
		if got := seen[i].Load(); got != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, got)
		}
	}
}

func TestSequentialContextRunsInOrder(t *testing.T) {
	var order []int
	SequentialContext{}.RunPhase(5, func(i int) {
		order = append(order, i)
	})
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestNewRunnerSelectsSequentialByDefault(t *testing.T) {
	r := NewRunner(false, 8)
	if _, ok := r.(SequentialContext); !ok {
		t.Errorf("expected SequentialContext when parallelMode is false")
	}

	r = NewRunner(true, 1)
	if _, ok := r.(SequentialContext); !ok {
		t.Errorf("expected SequentialContext when numWorkers <= 1")
	}

	r = NewRunner(true, 4)
	if _, ok := r.(*ThreadContext); !ok {
		t.Errorf("expected *ThreadContext when parallelMode and numWorkers > 1")
	}
}

func TestRunPhaseNoOpOnEmpty(t *testing.T) {
	tc := NewThreadContext(4)
	called := false
	tc.RunPhase(0, func(i int) { called = true })
	if called {
		t.Errorf("RunPhase must not invoke fn for n == 0")
	}
}
