// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// currentGoroutineID implements the usual trick for recovering the calling
// goroutine's runtime id from its stack trace. The reactor uses it only to
// answer "is the caller already running on one of my worker loops", which is
// exactly the information asio's io_context::dispatch needs to decide
// between running inline and posting — Go gives no public API for thread
// (here: goroutine) identity, so this is the idiomatic workaround.

package reactor

import (
	"runtime"
	"strconv"
	"sync"
)

func currentGoroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if len(b) <= len(prefix) {
		return -1
	}
	b = b[len(prefix):]
	i := 0
	for i < len(b) && b[i] != ' ' {
		i++
	}
	id, err := strconv.ParseInt(string(b[:i]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}

var (
	loopRegistryMu sync.RWMutex
	loopRegistry   = map[int64]*loop{}
)

func registerLoopGoroutine(gid int64, l *loop) {
	loopRegistryMu.Lock()
	loopRegistry[gid] = l
	loopRegistryMu.Unlock()
}

func unregisterLoopGoroutine(gid int64) {
	loopRegistryMu.Lock()
	delete(loopRegistry, gid)
	loopRegistryMu.Unlock()
}

func loopForCurrentGoroutine() *loop {
	loopRegistryMu.RLock()
	l := loopRegistry[currentGoroutineID()]
	loopRegistryMu.RUnlock()
	return l
}
