//go:build windows

// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Windows stub for reactor worker CPU pinning, adapted from the teacher's
// transport/tcp/affinity_windows.go no-op.

package reactor

func setCPUAffinity(cpu int) error {
	return ErrNotSupported
}
