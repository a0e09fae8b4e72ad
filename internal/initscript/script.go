// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initscript

import (
	"fmt"
	"strings"

	"github.com/osandov/vmtest/internal/qemu"
)

// Script holds the parameters of one generated boot script. Rendering is
// deterministic: equal parameters yield byte-identical scripts.
type Script struct {
	// KVMAvailable controls whether the guest needs the single-CPU kdump
	// hint for emulated runs.
	KVMAvailable bool

	// WorkingDir is the host directory the command runs in. It is visible in
	// the guest through the root passthrough.
	WorkingDir string

	// Command is the opaque shell command to run.
	Command string
}

// A BusyBox sh built with FEATURE_SH_STANDALONE executes applets through
// /proc/self/exe, so /proc must be mounted with the fully qualified mount
// path before anything else runs.
const sectionProcMount = `#!/bin/sh

/bin/mount -t proc -o nosuid,nodev,noexec proc /proc

set -eu

export PATH="/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"
`

// The exit trap guarantees the guest powers off even if the script fails.
const sectionSetup = `
trap 'poweroff -f' EXIT

umask 022

HOSTNAME=vmtest
VPORT_NAME=%s
RELEASE=$(uname -r)
`

// The writable upper layer lives on a tmpfs mounted over the temporary
// directory this script was placed in. /tmp gets its own tmpfs because
// overlayfs before Linux v4.8 mishandles hard links on the upper layer.
const sectionOverlay = `
mnt=$(dirname "$0")
mount -t tmpfs tmpfs "$mnt"
mkdir "$mnt/upper" "$mnt/work" "$mnt/merged"

mkdir "$mnt/upper/dev" "$mnt/upper/etc" "$mnt/upper/mnt"
mkdir -m 555 "$mnt/upper/proc" "$mnt/upper/sys"
mkdir -m 1777 "$mnt/upper/tmp"

mount -t overlay -o lowerdir=/,upperdir="$mnt/upper",workdir="$mnt/work" overlay "$mnt/merged"

mount -t devtmpfs -o nosuid,noexec dev "$mnt/merged/dev"
mkdir "$mnt/merged/dev/shm"
mount -t tmpfs -o nosuid,nodev tmpfs "$mnt/merged/dev/shm"
mount -t proc -o nosuid,nodev,noexec proc "$mnt/merged/proc"
mount -t sysfs -o nosuid,nodev,noexec sys "$mnt/merged/sys"
mount -t cgroup2 -o nosuid,nodev,noexec cgroup2 "$mnt/merged/sys/fs/cgroup" || true
mount -t tmpfs -o nosuid,nodev tmpfs "$mnt/merged/tmp"

pivot_root "$mnt/merged" "$mnt/merged/mnt"
cd /
umount -l /mnt
`

// virtio_rng needs rng_core and provides the guest with entropy early.
const sectionModules = `
mkdir -p "/lib/modules/$RELEASE"
mount -t 9p -o trans=virtio,cache=loose,ro,msize=%d %s "/lib/modules/$RELEASE"
for module in configs rng_core virtio_rng; do
	modprobe "$module"
done
`

// modules.devname lists one "module name node-spec" triple per line where
// node-spec is a type character followed by major:minor.
const sectionDevNodes = `
grep -v '^#' "/lib/modules/$RELEASE/modules.devname" |
while read -r module name node; do
	name="/dev/$name"
	dev=${node#?}
	major=${dev%%:*}
	minor=${dev##*:}
	type=${node%"${dev}"}
	mkdir -p "$(dirname "$name")"
	mknod "$name" "$type" "$major" "$minor"
done
ln -s /proc/self/fd /dev/fd
ln -s /proc/self/fd/0 /dev/stdin
ln -s /proc/self/fd/1 /dev/stdout
ln -s /proc/self/fd/2 /dev/stderr
`

// Loopback only. DNS resolution stays unconfigured on purpose.
const sectionNetwork = `
cat << EOF > /etc/hosts
127.0.0.1 localhost
::1 localhost
127.0.1.1 $HOSTNAME.localdomain $HOSTNAME
EOF
: > /etc/resolv.conf
hostname "$HOSTNAME"
ip link set lo up
`

// The port device is created by QEMU before the kernel boots, so a single
// scan suffices and an absent port is a hard error.
const sectionVport = `
vport=
for vport_dir in /sys/class/virtio-ports/*; do
	if [ -r "$vport_dir/name" -a "$(cat "$vport_dir/name")" = "$VPORT_NAME" ]; then
		vport="${vport_dir#/sys/class/virtio-ports/}"
		break
	fi
done
if [ -z "$vport" ]; then
	echo "could not find virtio-port \"$VPORT_NAME\""
	exit 1
fi
`

// Error checking is relaxed for the user command only, so a non-zero result
// is observed and reported instead of aborting the script.
const sectionCommand = `
cd %s
set +e
sh -c %s
rc=$?
set -e

echo "Exited with status $rc"
echo "$rc" > "/dev/$vport"
`

// Render produces the boot script text.
func (s Script) Render() string {
	var b strings.Builder

	b.WriteString(sectionProcMount)

	// Crash-dump capture must not bring up secondary CPUs on emulated runs.
	if !s.KVMAvailable {
		b.WriteString("export KDUMP_NEEDS_NOSMP=1\n")
	}

	fmt.Fprintf(&b, sectionSetup, qemu.VirtioPortName)
	b.WriteString(sectionOverlay)
	fmt.Fprintf(&b, sectionModules, qemu.P9Msize, qemu.ModulesTag)
	b.WriteString(sectionDevNodes)
	b.WriteString(sectionNetwork)
	b.WriteString(sectionVport)
	fmt.Fprintf(&b, sectionCommand, Quote(s.WorkingDir), Quote(s.Command))

	return b.String()
}
