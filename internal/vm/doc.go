// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package vm supervises one disposable VM run from boot to exit status.
//
// A run probes the installed QEMU binary, prepares the boot script and the
// status channel in a private temporary directory, starts the hypervisor and
// waits for the guest to connect and report the exit status of its one
// command. The status channel listens strictly before QEMU starts, so the
// guest can never connect before the host is ready. All per-run resources are
// released on every exit path; only the preload workaround artifact is shared
// across runs.
package vm
