// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package initscript generates the POSIX shell script that runs as PID 1
// inside the guest.
//
// The script prepares a writable overlay over the read-only 9p root, mounts
// the core pseudo filesystems, loads the few required kernel modules, creates
// static device nodes, brings up loopback networking, locates the status
// virtio port, runs the one configured command and writes its exit status to
// the port. Any failure before the user command is fatal to the whole script;
// the poweroff trap guarantees the guest terminates either way.
//
// Rendering is a pure function of the script parameters so quoting and
// template correctness can be tested without booting anything.
package initscript
