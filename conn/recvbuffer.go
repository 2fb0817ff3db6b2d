// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// RecvBuffer is the growable receive buffer of spec.md §3: the reactor
// appends into it, the user handler reports how many prefix bytes it
// consumed, and the endpoint erases that prefix. It doubles its capacity
// when a read fills it completely, bounded by an optional
// receive_buffer_limit (spec.md §4.3/§5 "Backpressure").

package conn

import "errors"

// ErrReceiveBufferLimitExceeded is returned by Tail when growing the buffer
// would exceed the configured receive_buffer_limit; the caller (session or
// client) must disconnect per spec.md §5.
var ErrReceiveBufferLimitExceeded = errors.New("conn: receive buffer limit exceeded")

const defaultRecvBufferInitialCap = 8 * 1024

// RecvBuffer is not safe for concurrent use — per spec.md §5 it is owned by
// a single endpoint's strand at any moment ("no lock").
type RecvBuffer struct {
	buf   []byte
	limit int // 0 means unlimited
}

// NewRecvBuffer allocates a buffer with the given initial capacity
// (defaulted if <= 0) and an optional byte-count limit (0 = unlimited).
func NewRecvBuffer(initialCap, limit int) *RecvBuffer {
	if initialCap <= 0 {
		initialCap = defaultRecvBufferInitialCap
	}
	return &RecvBuffer{
		buf:   make([]byte, 0, initialCap),
		limit: limit,
	}
}

// Bytes returns the logically valid prefix of the buffer.
func (b *RecvBuffer) Bytes() []byte { return b.buf }

// Len returns the number of valid bytes currently buffered.
func (b *RecvBuffer) Len() int { return len(b.buf) }

// Tail returns a writable slice of at least n bytes' spare capacity past the
// current content, growing (and, if needed, doubling) the underlying
// allocation first. It returns ErrReceiveBufferLimitExceeded if honoring n
// would exceed the configured limit.
func (b *RecvBuffer) Tail(n int) ([]byte, error) {
	need := len(b.buf) + n
	if b.limit > 0 && need > b.limit {
		return nil, ErrReceiveBufferLimitExceeded
	}
	if cap(b.buf) < need {
		newCap := cap(b.buf)
		if newCap == 0 {
			newCap = defaultRecvBufferInitialCap
		}
		for newCap < need {
			newCap *= 2
		}
		if b.limit > 0 && newCap > b.limit {
			newCap = b.limit
		}
		grown := make([]byte, len(b.buf), newCap)
		copy(grown, b.buf)
		b.buf = grown
	}
	return b.buf[len(b.buf) : len(b.buf)+n : cap(b.buf)], nil
}

// CommitWrite records that n bytes were written into the slice most
// recently returned by Tail.
func (b *RecvBuffer) CommitWrite(n int) {
	b.buf = b.buf[:len(b.buf)+n]
}

// Consume erases the first n bytes of the buffer (the handler reports how
// much of the front it used).
func (b *RecvBuffer) Consume(n int) {
	if n <= 0 {
		return
	}
	if n >= len(b.buf) {
		b.buf = b.buf[:0]
		return
	}
	copy(b.buf, b.buf[n:])
	b.buf = b.buf[:len(b.buf)-n]
}

// Full reports whether the entire current allocation's capacity is in use,
// i.e. the next Tail call will need to grow.
func (b *RecvBuffer) Full() bool {
	return len(b.buf) == cap(b.buf)
}
