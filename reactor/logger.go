// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// The teacher logs with the standard library log package directly at call
// sites (server/hioload.go, client/client.go) rather than through a
// third-party structured logger; this tiny interface preserves that while
// still letting a caller plug in whatever they already use.

package reactor

import "log"

// Logger is the minimal sink the reactor and the transports built on it use
// for non-fatal diagnostics. *log.Logger satisfies it directly.
type Logger interface {
	Printf(format string, args ...any)
}

// stdLogger adapts the standard library's default logger.
type stdLogger struct{}

func (stdLogger) Printf(format string, args ...any) {
	log.Printf(format, args...)
}

// DefaultLogger is used by any component that was not given an explicit
// Logger.
var DefaultLogger Logger = stdLogger{}
