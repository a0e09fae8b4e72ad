// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package shim builds the onoatimehack preload library that works around the
// O_NOATIME handling bug of QEMU's 9pfs before 5.0.1.
//
// The build artifact is cached in the build directory and shared across runs;
// it is only rebuilt when missing or older than its source. Concurrent runs
// racing on the build are not synchronized here, callers wanting that need an
// external build lock.
package shim

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

//go:embed _onoatimehack.c
var source []byte

const (
	sourceName = "onoatimehack.c"
	objectName = "onoatimehack.so"
)

type compileFunc func(ctx context.Context, object, source string) error

// Builder builds and caches the preload library in a fixed directory.
type Builder struct {
	dir     string
	compile compileFunc
}

// New creates a [Builder] using the given build directory.
func New(dir string) *Builder {
	return &Builder{
		dir:     dir,
		compile: runCompiler,
	}
}

// Ensure returns the path of an up-to-date preload library, compiling it
// first if the cached artifact is missing or stale.
func (b *Builder) Ensure(ctx context.Context) (string, error) {
	err := os.MkdirAll(b.dir, 0o755)
	if err != nil {
		return "", fmt.Errorf("create build dir: %w", err)
	}

	sourcePath := filepath.Join(b.dir, sourceName)

	err = materializeSource(sourcePath)
	if err != nil {
		return "", fmt.Errorf("write source: %w", err)
	}

	objectPath := filepath.Join(b.dir, objectName)

	stale, err := outOfDate(objectPath, sourcePath)
	if err != nil {
		return "", err
	}

	if !stale {
		return objectPath, nil
	}

	err = b.compile(ctx, objectPath, sourcePath)
	if err != nil {
		return "", err
	}

	return objectPath, nil
}

// PreloadEnv returns the LD_PRELOAD environment assignment that injects the
// library at the given path in front of any existing preloads.
func PreloadEnv(path, existing string) string {
	value := path
	if existing != "" {
		value += ":" + existing
	}

	return "LD_PRELOAD=" + value
}

// materializeSource writes the embedded C source, leaving the file untouched
// if the content already matches so its mtime stays valid for the staleness
// check.
func materializeSource(path string) error {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, source) {
		return nil
	}

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return os.WriteFile(path, source, 0o644)
}

// outOfDate reports whether target is missing or older than source.
func outOfDate(target, source string) (bool, error) {
	targetInfo, err := os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}

	if err != nil {
		return false, fmt.Errorf("stat %s: %w", target, err)
	}

	sourceInfo, err := os.Stat(source)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", source, err)
	}

	return sourceInfo.ModTime().After(targetInfo.ModTime()), nil
}

// runCompiler invokes the system C compiler. Flag order mimics automake:
// built-in defaults first so the usual environment variables can override
// them.
func runCompiler(ctx context.Context, object, source string) error {
	args := []string{"-D_GNU_SOURCE"}
	args = append(args, strings.Fields(os.Getenv("CPPFLAGS"))...)
	args = append(args, "-fPIC")
	args = append(args, strings.Fields(getenvDefault("CFLAGS", "-g -O2"))...)
	args = append(args, "-shared")
	args = append(args, strings.Fields(os.Getenv("LDFLAGS"))...)
	args = append(args, "-o", object, source)
	args = append(args, "-ldl")
	args = append(args, strings.Fields(os.Getenv("LIBS"))...)

	cmd := exec.CommandContext(ctx, getenvDefault("CC", "cc"), args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return &BuildError{
			CommandLine: cmd.String(),
			Output:      output,
			Err:         err,
		}
	}

	return nil
}

func getenvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}
