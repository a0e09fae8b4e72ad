// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Command vmtest runs a single command in a disposable QEMU virtual machine
// and exits with the command's exit status.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/osandov/vmtest/internal/config"
)

func run() int {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(config.DefaultFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	exitCode := 0

	cmd := newRootCommand(cfg, &exitCode)

	err = cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return exitCode
}

func main() {
	os.Exit(run())
}
