//go:build linux

// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Linux CPU-pinning for reactor worker loops, adapted from the teacher's
// transport/tcp/affinity_linux.go (sched_setaffinity via raw syscall) and
// retargeted from a single fixed worker onto the loop indexed by
// WithCPUAffinity.

package reactor

import (
	"runtime"
	"syscall"
	"unsafe"
)

func setCPUAffinity(cpu int) error {
	runtime.LockOSThread()
	tid := syscall.Gettid()
	var mask [1024 / 64]uint64
	mask[cpu/64] |= 1 << uint(cpu%64)
	_, _, errno := syscall.RawSyscall(
		syscall.SYS_SCHED_SETAFFINITY,
		uintptr(tid),
		unsafe.Sizeof(mask),
		uintptr(unsafe.Pointer(&mask[0])),
	)
	if errno != 0 {
		return errno
	}
	return nil
}
