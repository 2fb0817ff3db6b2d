// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Error definitions for the reactor package. Grounded on the teacher's
// api/errors.go sentinel-error style.

package reactor

import "errors"

var (
	// ErrStopped names the stopped-reactor condition. Post and Dispatch
	// report it by returning false rather than this error, and it is never
	// surfaced through OnError because it is the expected result of calling
	// into a reactor the caller already stopped.
	ErrStopped = errors.New("reactor: stopped")

	// ErrAlreadyStarted is returned by Start when called on a reactor that
	// is already running.
	ErrAlreadyStarted = errors.New("reactor: already started")

	// ErrNotStarted is returned by Stop when called on a reactor that was
	// never started.
	ErrNotStarted = errors.New("reactor: not started")

	// ErrNotSupported is returned by platform-specific helpers (CPU
	// pinning, socket options) on platforms that have no equivalent.
	ErrNotSupported = errors.New("reactor: not supported on this platform")
)
