// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Endpoint is the shared base every transport/tcp, transport/tls and
// transport/udp session/client embeds: identity, lifecycle state, stats,
// and the reactor strand that serializes its handlers (spec.md §3 "Reactor
// service", §5 "Scheduling model"). Grounded on the teacher's pattern of a
// small shared struct (client.WebSocketClient's connected/closed
// atomics + mutex) generalized into one reusable type instead of
// duplicating it per transport.
package conn

import (
	"sync/atomic"

	"github.com/solidcore/netcore/netid"
	"github.com/solidcore/netcore/reactor"
)

// Endpoint bundles the state every connection-oriented netcore transport
// needs regardless of whether it ends up carrying TCP, TLS, HTTP, or
// WebSocket framing on top.
type Endpoint struct {
	ID     netid.ID
	Strand *reactor.Strand
	Stats

	state atomic.Int32

	RecvBufferLimit int
	SendBufferLimit int
}

// NewEndpoint constructs an Endpoint bound to one of reactor's loops via a
// fresh Strand, with the given backpressure limits (0 = unlimited, per
// spec.md §6).
func NewEndpoint(r *reactor.Reactor, recvLimit, sendLimit int) *Endpoint {
	return &Endpoint{
		ID:              netid.New(),
		Strand:          r.NewStrand(),
		RecvBufferLimit: recvLimit,
		SendBufferLimit: sendLimit,
	}
}

// State returns the endpoint's current lifecycle state.
func (e *Endpoint) State() State {
	return State(e.state.Load())
}

// SetState unconditionally transitions the endpoint; callers are expected
// to only ever move it forward within one life-cycle (spec.md §3
// "Transitions are monotone within a life-cycle and non-reentrant").
func (e *Endpoint) SetState(s State) {
	e.state.Store(int32(s))
}

// CompareAndSetState performs the monotone transition atomically, used to
// guard against a disconnect racing a connect completion.
func (e *Endpoint) CompareAndSetState(old, new State) bool {
	return e.state.CompareAndSwap(int32(old), int32(new))
}
