// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/osandov/vmtest/internal/initscript"
	"github.com/osandov/vmtest/internal/qemu"
	"github.com/osandov/vmtest/internal/shim"
)

// DefaultConnectTimeout bounds the wait for the guest's status connection.
const DefaultConnectTimeout = 5 * time.Second

// ErrNoKernelDir is returned if no kernel directory is configured.
var ErrNoKernelDir = errors.New("kernel directory is required")

// Config describes a single VM run. It is read-only to the run.
type Config struct {
	// KernelDir contains the bootable kernel image and its module tree.
	KernelDir string

	// BuildDir caches artifacts shared across runs, currently only the
	// preload workaround library.
	BuildDir string

	// Command is the opaque shell command to run in the guest.
	Command string

	// WorkingDir is the directory the command runs in. Defaults to the
	// host's current working directory, captured at launch time.
	WorkingDir string

	// QemuExecutable is the qemu-system binary. Defaults to
	// [qemu.DefaultExecutable].
	QemuExecutable string

	// Memory for the guest in MB. Defaults to [qemu.DefaultMemory].
	Memory uint64

	// SMP is the guest CPU count. Defaults to the host CPU count.
	SMP uint64

	// ConnectTimeout bounds the wait for the guest's status connection.
	// Defaults to [DefaultConnectTimeout].
	ConnectTimeout time.Duration
}

func (c *Config) applyDefaults() error {
	if c.KernelDir == "" {
		return ErrNoKernelDir
	}

	if c.WorkingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}

		c.WorkingDir = wd
	}

	if c.QemuExecutable == "" {
		c.QemuExecutable = qemu.DefaultExecutable
	}

	if c.Memory == 0 {
		c.Memory = qemu.DefaultMemory
	}

	if c.SMP == 0 {
		c.SMP = uint64(runtime.NumCPU())
	}

	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}

	return nil
}

// Run boots a disposable VM, runs the configured command in it and returns
// the command's exit code as reported by the guest.
//
// The guest console is multiplexed onto the given stdio streams. On any
// failure to obtain the guest's result a [LostVMError] is returned; probe,
// build and spawn failures are returned as-is. The per-run temporary
// directory and status channel are released on every exit path.
func Run(
	ctx context.Context,
	cfg Config,
	stdin io.Reader,
	stdout, stderr io.Writer,
) (int, error) {
	err := cfg.applyDefaults()
	if err != nil {
		return -1, err
	}

	log := slog.With(slog.String("run_id", uuid.NewString()))

	caps, err := qemu.Probe(ctx, cfg.QemuExecutable)
	if err != nil {
		return -1, err
	}

	log.Debug("Probed hypervisor",
		slog.String("version", caps.Version.String()),
		slog.Bool("multidevs", caps.SupportsMultidevs),
		slog.Bool("noatime_hack", caps.NeedsNoatimeHack))

	env := os.Environ()

	if caps.NeedsNoatimeHack {
		preload, err := shim.New(cfg.BuildDir).Ensure(ctx)
		if err != nil {
			return -1, err
		}

		env = append(env, shim.PreloadEnv(preload, os.Getenv("LD_PRELOAD")))

		log.Debug("Using O_NOATIME preload workaround",
			slog.String("path", preload))
	}

	kvm := qemu.KVMAvailable()
	if !kvm {
		log.Warn("/dev/kvm cannot be accessed, falling back to emulation")
	}

	tempDir, err := os.MkdirTemp("", "vmtest-")
	if err != nil {
		return -1, fmt.Errorf("create temp dir: %w", err)
	}
	defer removeTempDir(log, tempDir)

	channel, err := ListenStatus(filepath.Join(tempDir, "socket"))
	if err != nil {
		return -1, err
	}
	defer channel.Close()

	script := initscript.Script{
		KVMAvailable: kvm,
		WorkingDir:   cfg.WorkingDir,
		Command:      cfg.Command,
	}

	initPath := filepath.Join(tempDir, "init")

	err = os.WriteFile(initPath, []byte(script.Render()), 0o755)
	if err != nil {
		return -1, fmt.Errorf("write boot script: %w", err)
	}

	spec := qemu.CommandSpec{
		Executable:   cfg.QemuExecutable,
		KernelDir:    cfg.KernelDir,
		InitPath:     initPath,
		SocketPath:   channel.Path(),
		Memory:       cfg.Memory,
		SMP:          cfg.SMP,
		NoKVM:        !kvm,
		Capabilities: caps,
		Env:          env,
	}

	// Cancelling kills the hypervisor on the lost-VM path. On success it has
	// already exited through the guest's poweroff trap.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd, err := spec.Command(runCtx, stdin, stdout, stderr)
	if err != nil {
		return -1, err
	}

	log.Debug("Starting hypervisor", slog.String("command", cmd.String()))

	err = cmd.Start()
	if err != nil {
		return -1, fmt.Errorf("start hypervisor: %w", err)
	}

	var group errgroup.Group

	group.Go(cmd.Wait)

	code, err := channel.Receive(cfg.ConnectTimeout)
	if err != nil {
		cancel()

		_ = group.Wait()

		return -1, err
	}

	err = group.Wait()
	if err != nil {
		// The status was already reported; a dirty hypervisor exit does not
		// invalidate it.
		log.Warn("Hypervisor exited with error", slog.Any("error", err))
	}

	return code, nil
}

func removeTempDir(log *slog.Logger, path string) {
	err := os.RemoveAll(path)
	if err != nil {
		log.Error("Failed to remove temp dir",
			slog.String("path", path),
			slog.Any("error", err))
	}
}
