// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osandov/vmtest/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), config.DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultFile)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, "build/vmtest", cfg.Directory)
	assert.Equal(t, 128, cfg.LostStatus)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
directory: /var/cache/vmtest
kernel: /kernels/5.15
qemu: qemu-system-x86_64
memory: 4096
smp: 8
lost_status: 125
timeout: 10s
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/cache/vmtest", cfg.Directory)
	assert.Equal(t, "/kernels/5.15", cfg.Kernel)
	assert.Equal(t, "qemu-system-x86_64", cfg.Qemu)
	assert.Equal(t, uint64(4096), cfg.Memory)
	assert.Equal(t, uint64(8), cfg.SMP)
	assert.Equal(t, 125, cfg.LostStatus)
	assert.Equal(t, config.Duration(10*time.Second), cfg.Timeout)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "kernel: /kernels/6.1\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/kernels/6.1", cfg.Kernel)
	assert.Equal(t, "build/vmtest", cfg.Directory)
	assert.Equal(t, 128, cfg.LostStatus)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "kernel: [\n")

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadInvalidDuration(t *testing.T) {
	path := writeConfig(t, "timeout: soon\n")

	_, err := config.Load(path)
	assert.Error(t, err)
}
