// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/osandov/vmtest/internal/config"
	"github.com/osandov/vmtest/internal/vm"
)

// defaultCommand is run in the guest when no command is given.
const defaultCommand = "sh -i"

type options struct {
	directory  string
	kernel     string
	qemu       string
	memory     uint64
	smp        uint64
	lostStatus int
	timeout    time.Duration
	debug      bool
}

func optionsFrom(cfg config.Config) options {
	return options{
		directory:  cfg.Directory,
		kernel:     cfg.Kernel,
		qemu:       cfg.Qemu,
		memory:     cfg.Memory,
		smp:        cfg.SMP,
		lostStatus: cfg.LostStatus,
		timeout:    time.Duration(cfg.Timeout),
	}
}

// newRootCommand builds the CLI. The guest command's exit code is written to
// exitCode so [cobra.Command.ExecuteContext] errors stay reserved for the
// tool's own failures.
func newRootCommand(defaults config.Config, exitCode *int) *cobra.Command {
	opts := optionsFrom(defaults)

	cmd := &cobra.Command{
		Use:   "vmtest [flags] [--] [command ...]",
		Short: "run a command in a disposable virtual machine",
		Long: `vmtest boots a fresh virtual machine with QEMU, runs the given
command in it against the host's file system and exits with the command's
exit status. Without a command an interactive shell is run.

The kernel directory must contain a kernel image named "vmlinuz" and the
matching module tree. Defaults for all flags may be set in a ` +
			config.DefaultFile + ` file in the working directory.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd.ErrOrStderr(), opts.debug)

			command := defaultCommand
			if len(args) > 0 {
				command = strings.Join(args, " ")
			}

			cfg := vm.Config{
				KernelDir:      opts.kernel,
				BuildDir:       opts.directory,
				Command:        command,
				QemuExecutable: opts.qemu,
				Memory:         opts.memory,
				SMP:            opts.smp,
				ConnectTimeout: opts.timeout,
			}

			code, err := vm.Run(
				cmd.Context(),
				cfg,
				os.Stdin,
				cmd.OutOrStdout(),
				cmd.ErrOrStderr(),
			)
			if err != nil {
				if !errors.Is(err, &vm.LostVMError{}) {
					return err
				}

				slog.Error(err.Error())

				*exitCode = opts.lostStatus

				return nil
			}

			*exitCode = code

			return nil
		},
	}

	flags := cmd.Flags()

	flags.StringVarP(&opts.directory, "directory", "d",
		opts.directory,
		"directory for cached build artifacts")
	flags.StringVarP(&opts.kernel, "kernel", "k",
		opts.kernel,
		"directory containing vmlinuz and the kernel's module tree")
	flags.StringVar(&opts.qemu, "qemu",
		opts.qemu,
		"qemu-system binary to use")
	flags.Uint64Var(&opts.memory, "memory",
		opts.memory,
		"guest memory in MB")
	flags.Uint64Var(&opts.smp, "smp",
		opts.smp,
		"guest CPU count")
	flags.IntVar(&opts.lostStatus, "lost-status",
		opts.lostStatus,
		"exit status to use when the VM is lost")
	flags.DurationVar(&opts.timeout, "timeout",
		opts.timeout,
		"time to wait for the guest's status connection")
	flags.BoolVar(&opts.debug, "debug",
		opts.debug,
		"enable debug output")

	if opts.kernel == "" {
		_ = cmd.MarkFlagRequired("kernel")
	}

	return cmd
}
