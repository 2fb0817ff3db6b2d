// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package reactor implements the shared event-loop + worker-pool service
// (spec.md §4.1) that every transport in netcore schedules its I/O and
// handler callbacks through. It is the Go-native restatement of the
// teacher's core/concurrency package (EventLoop + Executor) generalized
// from a single flat worker pool into named, independently addressable
// loops so that per-endpoint strands can be bound to one loop for life.
package reactor

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Hooks are the optional lifecycle overrides of spec.md §4.1. Any field left
// nil is simply not invoked.
type Hooks struct {
	OnThreadInitialize func(workerIndex int)
	OnThreadCleanup    func(workerIndex int)
	OnStarted          func()
	OnStopped          func()
	OnIdle             func(workerIndex int)
	OnError            func(code int, category Category, message string)
}

// Option configures a Reactor at construction time.
type Option func(*Reactor)

// WithHooks installs lifecycle hooks.
func WithHooks(h Hooks) Option {
	return func(r *Reactor) { r.hooks = h }
}

// WithLogger overrides the default stdlib logger.
func WithLogger(l Logger) Option {
	return func(r *Reactor) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithInboxSize overrides the per-loop task inbox capacity (default 4096).
func WithInboxSize(size int) Option {
	return func(r *Reactor) {
		if size > 0 {
			r.inboxSize = size
		}
	}
}

// WithCPUAffinity pins worker loop i's OS thread to cpus[i] (Linux only;
// elsewhere every pin fails with ErrNotSupported). Each loop whose pin fails
// reports it once through OnError and keeps running unpinned. Loops
// beyond len(cpus) are left unpinned. Grounded on the teacher's
// transport/tcp CPU-affinity helpers, generalized from one fixed worker to
// the reactor's whole loop set.
func WithCPUAffinity(cpus []int) Option {
	return func(r *Reactor) { r.affinity = cpus }
}

// Reactor owns N worker loops and dispatches tasks and per-endpoint strands
// across them (spec.md §3 "Reactor").
type Reactor struct {
	hooks     Hooks
	logger    Logger
	inboxSize int
	affinity  []int

	mu       sync.Mutex
	loops    []*loop
	started  atomic.Bool
	nextLoop atomic.Uint64

	lastThreads int
	lastPolling bool
}

// NewReactor constructs a Reactor; call Start to spawn its worker loops.
func NewReactor(opts ...Option) *Reactor {
	r := &Reactor{
		logger:    DefaultLogger,
		inboxSize: 4096,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start spawns threads worker loops (threads<=0 means runtime.NumCPU()) and
// begins running them. polling=true switches every loop to a
// run-without-block mode that invokes OnIdle between empty polls; otherwise
// each loop blocks until a task arrives.
func (r *Reactor) Start(threads int, polling bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started.Load() {
		return ErrAlreadyStarted
	}
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	r.loops = make([]*loop, threads)
	for i := 0; i < threads; i++ {
		r.loops[i] = newLoop(i, r, r.inboxSize)
	}
	r.lastThreads = threads
	r.lastPolling = polling
	r.started.Store(true)
	for _, l := range r.loops {
		go l.run(polling)
	}
	if h := r.hooks.OnStarted; h != nil {
		h()
	}
	return nil
}

// Stop signals every loop to drain its remaining tasks and exit, then
// blocks until all of them have joined. After Stop returns, IsStarted is
// false and Post/Dispatch reject further work.
func (r *Reactor) Stop() error {
	r.mu.Lock()
	if !r.started.Load() {
		r.mu.Unlock()
		return ErrNotStarted
	}
	loops := r.loops
	r.started.Store(false)
	r.mu.Unlock()

	for _, l := range loops {
		close(l.quit)
	}
	for _, l := range loops {
		<-l.done
	}

	if h := r.hooks.OnStopped; h != nil {
		h()
	}
	return nil
}

// Restart is Stop followed by Start with the previous configuration.
func (r *Reactor) Restart() error {
	threads, polling := r.lastThreads, r.lastPolling
	if r.IsStarted() {
		if err := r.Stop(); err != nil {
			return err
		}
	}
	return r.Start(threads, polling)
}

// IsStarted reports whether the reactor is currently running.
func (r *Reactor) IsStarted() bool {
	return r.started.Load()
}

// Post always enqueues task onto one of the reactor's loops (chosen
// round-robin), regardless of the caller's goroutine. Returns false if the
// reactor is stopped.
func (r *Reactor) Post(task func()) bool {
	if !r.started.Load() {
		return false
	}
	r.mu.Lock()
	loops := r.loops
	r.mu.Unlock()
	if len(loops) == 0 {
		return false
	}
	idx := int(r.nextLoop.Add(1)-1) % len(loops)
	return loops[idx].post(task)
}

// Dispatch runs task inline when the caller is already executing on one of
// this reactor's worker loops; otherwise it behaves exactly like Post.
func (r *Reactor) Dispatch(task func()) bool {
	if !r.started.Load() {
		return false
	}
	if l := loopForCurrentGoroutine(); l != nil && l.reactor == r {
		task()
		return true
	}
	return r.Post(task)
}

// NewStrand binds a new per-endpoint Strand to one of the reactor's loops
// (chosen round-robin at bind time, fixed for the strand's lifetime, per
// spec.md §3 "Each endpoint is bound to exactly one loop for the duration
// of its life").
func (r *Reactor) NewStrand() *Strand {
	r.mu.Lock()
	n := len(r.loops)
	r.mu.Unlock()
	if n == 0 {
		// A strand created before Start (or after Stop) is still usable: it
		// simply has no loop to drain onto yet, and Post becomes a no-op
		// until the reactor is (re)started and a matching strand is rebound
		// by the owning endpoint.
		return &Strand{reactor: r, loopIdx: -1, mailbox: newMailbox()}
	}
	idx := int(r.nextLoop.Add(1)-1) % n
	return newStrand(r, idx)
}

// Logger returns the reactor's configured diagnostic sink.
func (r *Reactor) Logger() Logger { return r.logger }

func (r *Reactor) loopAt(idx int) *loop {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx < 0 || idx >= len(r.loops) {
		return nil
	}
	return r.loops[idx]
}
