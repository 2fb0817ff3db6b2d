// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Strand is the per-endpoint serialization primitive spec.md §5 requires
// ("All handlers for a given endpoint execute in a happens-before chain").
// It is bound to exactly one reactor loop for its lifetime (spec.md §3,
// "Reactor") and implements the classic actor mailbox spec.md's Design
// Notes §9 describe: a FIFO queue keyed per endpoint. The FIFO is backed by
// github.com/eapache/queue, the teacher's own dependency
// (internal/concurrency/executor.go), repurposed here from a global task
// queue into a per-endpoint mailbox.

package reactor

import (
	"sync"

	"github.com/eapache/queue"
)

// Strand serializes task execution for a single endpoint across however
// many worker loops the owning Reactor runs.
type Strand struct {
	reactor *Reactor
	loopIdx int

	mu       sync.Mutex
	mailbox  *queue.Queue
	draining bool
}

func newStrand(r *Reactor, loopIdx int) *Strand {
	return &Strand{
		reactor: r,
		loopIdx: loopIdx,
		mailbox: newMailbox(),
	}
}

func newMailbox() *queue.Queue {
	return queue.New()
}

// Post appends task to the strand's mailbox. It never blocks: if nothing is
// currently draining the mailbox, it schedules a drain on the strand's bound
// loop. It returns false when that loop is not running; the task then stays
// in the mailbox and runs with the next drain a later Post schedules.
func (s *Strand) Post(task func()) bool {
	s.mu.Lock()
	s.mailbox.Add(task)
	needDrain := !s.draining
	if needDrain {
		s.draining = true
	}
	s.mu.Unlock()

	if needDrain {
		l := s.reactor.loopAt(s.loopIdx)
		if l == nil || !s.reactor.IsStarted() {
			s.mu.Lock()
			s.draining = false
			s.mu.Unlock()
			return false
		}
		if !l.post(s.drain) {
			// Inbox momentarily full: fall back to spawning the drain
			// directly so the mailbox is never stranded un-drained.
			go s.drain()
		}
	}
	return true
}

// Dispatch runs task inline if the caller is already executing on this
// strand's bound loop (so, transitively, already serialized with respect to
// this endpoint's other handlers); otherwise it behaves exactly like Post.
func (s *Strand) Dispatch(task func()) bool {
	if l := loopForCurrentGoroutine(); l != nil && l.index == s.loopIdx && l.reactor == s.reactor {
		task()
		return true
	}
	return s.Post(task)
}

// drain runs queued tasks until the mailbox is empty, then clears the
// draining flag so a subsequent Post reschedules a drain.
func (s *Strand) drain() {
	for {
		s.mu.Lock()
		if s.mailbox.Length() == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		task := s.mailbox.Peek().(func())
		s.mailbox.Remove()
		s.mu.Unlock()

		func() {
			defer func() { recover() }()
			task()
		}()
	}
}
