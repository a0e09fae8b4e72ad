// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import "golang.org/x/sys/unix"

// KVMAvailable reports whether /dev/kvm can be accessed by this process.
//
// Without it the VM still works in pure emulation, just much slower.
func KVMAvailable() bool {
	return unix.Access("/dev/kvm", unix.R_OK|unix.W_OK) == nil
}
