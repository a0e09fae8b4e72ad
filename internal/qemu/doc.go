// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qemu composes and starts the QEMU command that boots a single
// disposable test VM. It expects a qemu-system binary to be installed on the
// host.
//
// The guest boots directly from the kernel image found in the configured
// kernel directory, with the host's root filesystem passed through read-only
// via 9p and a generated shell script as init. The guest reports the result
// of its one command over a virtserialport that is bound to a host-side unix
// socket; this package only wires the port, the exchange itself lives in the
// vm package.
package qemu
