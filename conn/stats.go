// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Stats implements spec.md §3's atomic per-endpoint counters, using
// sync/atomic with relaxed (default) ordering semantics per spec.md §5
// "Shared-resource policy". Grounded on the teacher's
// core/concurrency/eventloop.go and lock_free_queue.go, both of which use
// raw sync/atomic counters rather than a metrics library — no third-party
// metrics dependency appears anywhere in the teacher's module graph.
package conn

import "sync/atomic"

// Stats holds the monotonic-per-epoch counters spec.md §3 requires. The
// byte and datagram counters reset to zero through Reset (a fresh
// connection epoch), matching "Counters are monotonic per connection epoch
// and reset on restart"; the session count is a live gauge that Reset
// leaves as it is.
type Stats struct {
	bytesSending  atomic.Uint64
	bytesSent     atomic.Uint64
	bytesReceived atomic.Uint64

	datagramsSent     atomic.Uint64
	datagramsReceived atomic.Uint64

	sessions atomic.Int64 // server-only: currently connected session count
}

// Reset zeroes the byte and datagram counters at the start of a new
// connection epoch. The session count is not changed.
func (s *Stats) Reset() {
	s.bytesSending.Store(0)
	s.bytesSent.Store(0)
	s.bytesReceived.Store(0)
	s.datagramsSent.Store(0)
	s.datagramsReceived.Store(0)
}

func (s *Stats) AddSending(n int)   { s.bytesSending.Add(uint64(n)) }
func (s *Stats) SubSending(n int)   { s.bytesSending.Add(^uint64(n - 1)) }
func (s *Stats) AddSent(n int)      { s.bytesSent.Add(uint64(n)) }
func (s *Stats) AddReceived(n int)  { s.bytesReceived.Add(uint64(n)) }
func (s *Stats) AddDatagramSent()   { s.datagramsSent.Add(1) }
func (s *Stats) AddDatagramRecv()   { s.datagramsReceived.Add(1) }

func (s *Stats) BytesSending() uint64  { return s.bytesSending.Load() }
func (s *Stats) BytesSent() uint64     { return s.bytesSent.Load() }
func (s *Stats) BytesReceived() uint64 { return s.bytesReceived.Load() }
func (s *Stats) DatagramsSent() uint64 { return s.datagramsSent.Load() }
func (s *Stats) DatagramsReceived() uint64 { return s.datagramsReceived.Load() }

func (s *Stats) IncSessions() int64 { return s.sessions.Add(1) }
func (s *Stats) DecSessions() int64 { return s.sessions.Add(-1) }
func (s *Stats) Sessions() int64    { return s.sessions.Load() }
