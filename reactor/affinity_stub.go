//go:build !linux && !windows

// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package reactor

func setCPUAffinity(cpu int) error {
	return ErrNotSupported
}
