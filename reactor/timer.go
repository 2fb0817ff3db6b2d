// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Timer implements spec.md §4.8: a one-shot deadline bound to a reactor,
// with async and blocking wait. Grounded on the teacher's
// core/concurrency/eventloop.go, which already arms/disarms a single
// time.Timer per iteration for its adaptive backoff — the same primitive,
// here exposed as a standalone endpoint-scoped facility and run through a
// Strand so the action callback is serialized with whatever endpoint owns
// the timer.

package reactor

import (
	"sync"
	"time"
)

// TimerFunc is invoked when the timer fires or is cancelled. canceled is
// true only when Cancel() was called before the deadline elapsed.
type TimerFunc func(canceled bool)

// Timer is a single-shot deadline. Construct with NewTimer, arm it with
// Setup, then either WaitAsync (non-blocking, delivers via action
// through the bound strand) or WaitSync (blocks the caller).
type Timer struct {
	strand *Strand
	action TimerFunc

	mu       sync.Mutex
	deadline time.Time
	timer    *time.Timer
	gen      uint64 // bumped on every Setup/Cancel to invalidate stale fires
}

// NewTimer constructs a Timer bound to reactor (via a dedicated strand so
// firing never races another handler of the same logical owner) with the
// given action callback, which may be nil if the caller only uses
// WaitSync.
func NewTimer(r *Reactor, action TimerFunc) *Timer {
	return &Timer{
		strand: r.NewStrand(),
		action: action,
	}
}

// Setup re-arms the timer for an absolute deadline.
func (t *Timer) Setup(deadline time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deadline = deadline
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// SetupAfter re-arms the timer for now+duration.
func (t *Timer) SetupAfter(d time.Duration) {
	t.Setup(time.Now().Add(d))
}

// WaitAsync schedules delivery of the fire (or cancel) notification via the
// timer's bound strand, so it never races other handlers for the same
// endpoint. Returns immediately.
func (t *Timer) WaitAsync() {
	t.mu.Lock()
	d := time.Until(t.deadline)
	myGen := t.gen
	t.mu.Unlock()
	if d < 0 {
		d = 0
	}
	t.mu.Lock()
	t.timer = time.AfterFunc(d, func() { t.fire(myGen) })
	t.mu.Unlock()
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	canceled := gen != t.gen
	t.mu.Unlock()
	t.strand.Dispatch(func() {
		if t.action != nil {
			t.action(canceled)
		}
	})
}

// WaitSync blocks the calling goroutine until the deadline elapses or
// Cancel is called, then returns whether it was cancelled. It does not go
// through the strand — the caller is, by definition, not running as a
// reactor handler while blocked here.
func (t *Timer) WaitSync() (canceled bool) {
	t.mu.Lock()
	d := time.Until(t.deadline)
	myGen := t.gen
	t.mu.Unlock()
	if d < 0 {
		d = 0
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-timer.C:
			t.mu.Lock()
			canceled = myGen != t.gen
			t.mu.Unlock()
			return canceled
		case <-ticker.C:
			t.mu.Lock()
			if myGen != t.gen {
				t.mu.Unlock()
				return true
			}
			t.mu.Unlock()
		}
	}
}

// Cancel aborts a pending WaitAsync/WaitSync. A pending WaitAsync delivers
// action(canceled=true) through the bound strand; the cancellation is never
// surfaced as an error, per spec.md §5 "Cancellation semantics".
func (t *Timer) Cancel() {
	t.mu.Lock()
	t.gen++
	stopped := t.timer != nil && t.timer.Stop()
	t.mu.Unlock()
	if stopped {
		t.strand.Dispatch(func() {
			if t.action != nil {
				t.action(true)
			}
		})
	}
}
