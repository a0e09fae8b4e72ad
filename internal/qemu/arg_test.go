// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osandov/vmtest/internal/qemu"
)

func TestBuildArgumentStrings(t *testing.T) {
	tests := []struct {
		name     string
		args     []qemu.Argument
		expected []string
		assert   require.ErrorAssertionFunc
	}{
		{
			name:     "empty",
			expected: []string{},
			assert:   require.NoError,
		},
		{
			name: "mixed args",
			args: []qemu.Argument{
				qemu.UniqueArg("no-reboot"),
				qemu.UniqueArg("m", "2048M"),
				qemu.RepeatableArg("device", "virtio-rng-pci"),
				qemu.RepeatableArg("device", "virtio-serial"),
			},
			expected: []string{
				"-no-reboot",
				"-m", "2048M",
				"-device", "virtio-rng-pci",
				"-device", "virtio-serial",
			},
			assert: require.NoError,
		},
		{
			name: "multi value arg",
			args: []qemu.Argument{
				qemu.RepeatableArg("chardev", "socket", "id=vmtest"),
			},
			expected: []string{"-chardev", "socket,id=vmtest"},
			assert:   require.NoError,
		},
		{
			name: "unique arg collision",
			args: []qemu.Argument{
				qemu.UniqueArg("kernel", "/boot/vmlinuz"),
				qemu.UniqueArg("kernel", "/other/vmlinuz"),
			},
			assert: require.Error,
		},
		{
			name: "repeatable arg with equal value",
			args: []qemu.Argument{
				qemu.RepeatableArg("device", "virtio-serial"),
				qemu.RepeatableArg("device", "virtio-serial"),
			},
			assert: require.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := qemu.BuildArgumentStrings(tt.args)
			tt.assert(t, err)

			if err != nil {
				assert.ErrorIs(t, err, qemu.ErrArgumentCollision)
				return
			}

			assert.Equal(t, tt.expected, actual)
		})
	}
}
