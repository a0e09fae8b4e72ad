// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Protocol constants shared between the host command line and the generated
// guest boot script. They must never change on one side only.
const (
	// RootFSTag is the 9p mount tag of the host root passthrough. The kernel
	// uses it as the root device name.
	RootFSTag = "/dev/root"

	// ModulesTag is the 9p mount tag of the kernel module tree passthrough.
	ModulesTag = "modules"

	// VirtioPortName identifies the virtserialport carrying the guest's exit
	// status. The boot script scans /sys/class/virtio-ports for it.
	VirtioPortName = "com.osandov.vmtest.0"

	// P9Msize is the 9p transfer size. The host mount options and the kernel
	// command line must agree on it.
	P9Msize = 1024 * 1024
)

const (
	// DefaultExecutable is the qemu-system binary used if none is configured.
	DefaultExecutable = "qemu-system-x86_64"

	// DefaultMemory is the guest memory in MB.
	DefaultMemory = 2048

	// KernelImage is the name of the bootable kernel image inside the kernel
	// directory.
	KernelImage = "vmlinuz"

	statusChardevID = "vmtest"
)

// CommandSpec defines the parameters for a single QEMU invocation.
type CommandSpec struct {
	// Path to the qemu-system binary.
	Executable string

	// Directory containing the kernel image and its module tree.
	KernelDir string

	// Path of the generated boot script, passed as init= on the kernel
	// command line.
	InitPath string

	// Path of the host-side unix socket backing the status port.
	SocketPath string

	// Memory for the guest in MB.
	Memory uint64

	// Number of virtual CPUs for the guest.
	SMP uint64

	// Run without hardware acceleration.
	NoKVM bool

	// Feature flags of the installed QEMU binary.
	Capabilities Capabilities

	// Environment for the QEMU child process. Used to inject the preload
	// workaround without mutating the ambient process environment.
	Env []string
}

// arguments compiles the argument list for the QEMU command.
func (s *CommandSpec) arguments() []Argument {
	args := []Argument{}

	if !s.NoKVM {
		args = append(args,
			UniqueArg("cpu", "host"),
			UniqueArg("enable-kvm"),
		)
	}

	args = append(args,
		UniqueArg("smp", strconv.FormatUint(s.SMP, 10)),
		UniqueArg("m", strconv.FormatUint(s.Memory, 10)+"M"),

		// Disable all default devices and video output, multiplex the guest
		// console onto our stdio.
		UniqueArg("nodefaults"),
		UniqueArg("display", "none"),
		RepeatableArg("serial", "mon:stdio"),

		// Together with panic=-1 on the kernel command line this turns a
		// kernel panic into process exit instead of a reboot loop.
		UniqueArg("no-reboot"),

		RepeatableArg("virtfs", s.rootFSOptions()),
		RepeatableArg("virtfs",
			"local",
			"path="+s.KernelDir,
			"mount_tag="+ModulesTag,
			"security_model=none",
			"readonly=on",
		),

		// The boot script loads virtio_rng for guest entropy.
		RepeatableArg("device", "virtio-rng-pci"),

		RepeatableArg("device", "virtio-serial"),
		RepeatableArg("chardev",
			"socket",
			"id="+statusChardevID,
			"path="+s.SocketPath,
		),
		RepeatableArg("device",
			"virtserialport",
			"chardev="+statusChardevID,
			"name="+VirtioPortName,
		),

		UniqueArg("kernel", filepath.Join(s.KernelDir, KernelImage)),
		RepeatableArg("append", strings.Join(s.kernelCmdlineArgs(), " ")),
	)

	return args
}

func (s *CommandSpec) rootFSOptions() string {
	options := []string{
		"local",
		"id=root",
		"path=/",
		"mount_tag=" + RootFSTag,
		"security_model=none",
		"readonly=on",
	}

	if s.Capabilities.SupportsMultidevs {
		options = append(options, "multidevs=remap")
	}

	return strings.Join(options, ",")
}

// kernelCmdlineArgs returns the kernel command line for the direct boot.
func (s *CommandSpec) kernelCmdlineArgs() []string {
	return []string{
		"rootfstype=9p",
		"rootflags=trans=virtio,cache=loose,msize=" +
			strconv.Itoa(P9Msize),
		"ro",
		"console=0,115200",
		"panic=-1",
		"crashkernel=256M",
		"init=" + s.InitPath,
	}
}

// Command builds the [exec.Cmd] for the spec with the guest console wired to
// the given stdio streams.
//
// The command is not started. Cancelling the context kills the hypervisor,
// which is how the supervisor tears down a lost VM.
func (s *CommandSpec) Command(
	ctx context.Context,
	stdin io.Reader,
	stdout, stderr io.Writer,
) (*exec.Cmd, error) {
	args, err := BuildArgumentStrings(s.arguments())
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, s.Executable, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = s.Env

	return cmd, nil
}
