package reactor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStartStopLifecycle(t *testing.T) {
	var startedCount, stoppedCount atomic.Int32
	r := NewReactor(WithHooks(Hooks{
		OnStarted: func() { startedCount.Add(1) },
		OnStopped: func() { stoppedCount.Add(1) },
	}))
	if r.IsStarted() {
		t.Fatalf("reactor must not be started before Start")
	}
	if err := r.Start(2, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !r.IsStarted() {
		t.Fatalf("reactor must be started after Start")
	}
	if err := r.Start(2, false); err != ErrAlreadyStarted {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if r.IsStarted() {
		t.Fatalf("reactor must not be started after Stop")
	}
	if startedCount.Load() != 1 || stoppedCount.Load() != 1 {
		t.Fatalf("expected one Start/Stop hook each, got %d/%d", startedCount.Load(), stoppedCount.Load())
	}
}

func TestPostRejectedWhenStopped(t *testing.T) {
	r := NewReactor()
	if ok := r.Post(func() {}); ok {
		t.Fatalf("Post must reject work before Start")
	}
	if err := r.Start(1, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	r.Stop()
	if ok := r.Post(func() {}); ok {
		t.Fatalf("Post must reject work after Stop")
	}
}

func TestPostRunsTask(t *testing.T) {
	r := NewReactor()
	if err := r.Start(2, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	done := make(chan struct{})
	if !r.Post(func() { close(done) }) {
		t.Fatalf("Post should have accepted the task")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("task never ran")
	}
}

func TestDispatchInlineWhenOnLoop(t *testing.T) {
	r := NewReactor()
	if err := r.Start(1, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	outer := make(chan bool, 1)
	r.Post(func() {
		ran := false
		r.Dispatch(func() { ran = true })
		outer <- ran
	})
	select {
	case ran := <-outer:
		if !ran {
			t.Fatalf("Dispatch from within a loop must run inline")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for outer task")
	}
}

func TestStrandOrdering(t *testing.T) {
	r := NewReactor()
	if err := r.Start(4, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	s := r.NewStrand()
	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	const n = 200
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		s.Post(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	if len(order) != n {
		t.Fatalf("expected %d tasks to run, got %d", n, len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("strand reordered tasks: order[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestTimerFiresOnce(t *testing.T) {
	r := NewReactor()
	if err := r.Start(1, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	fired := make(chan bool, 1)
	timer := NewTimer(r, func(canceled bool) { fired <- canceled })
	timer.SetupAfter(10 * time.Millisecond)
	timer.WaitAsync()

	select {
	case canceled := <-fired:
		if canceled {
			t.Fatalf("timer should not report cancellation when it fires naturally")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timer never fired")
	}
}

func TestTimerCancel(t *testing.T) {
	r := NewReactor()
	if err := r.Start(1, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	fired := make(chan bool, 1)
	timer := NewTimer(r, func(canceled bool) { fired <- canceled })
	timer.SetupAfter(200 * time.Millisecond)
	timer.WaitAsync()
	timer.Cancel()

	select {
	case canceled := <-fired:
		if !canceled {
			t.Fatalf("expected cancellation notice")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancellation notice never arrived")
	}
}

func TestArenaReuseAndFallback(t *testing.T) {
	var a Arena
	first := a.Allocate(64)
	if len(first) != 64 {
		t.Fatalf("expected 64-byte slice, got %d", len(first))
	}
	second := a.Allocate(64)
	if &second[0] == &first[0] {
		t.Fatalf("reentrant allocation must not reuse the in-use block")
	}
	a.Release(first)
	third := a.Allocate(64)
	if &third[0] != &a.block[0] {
		t.Fatalf("allocation after release should reuse the arena block")
	}
}
