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

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected qemu.Version
		assert   require.ErrorAssertionFunc
	}{
		{
			name:     "three components",
			input:    "5.0.1",
			expected: qemu.Version{5, 0, 1},
			assert:   require.NoError,
		},
		{
			name:     "two components",
			input:    "4.2",
			expected: qemu.Version{4, 2},
			assert:   require.NoError,
		},
		{
			name:   "empty",
			input:  "",
			assert: require.Error,
		},
		{
			name:   "non numeric",
			input:  "5.x.1",
			assert: require.Error,
		},
		{
			name:   "negative component",
			input:  "5.-1.0",
			assert: require.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := qemu.ParseVersion(tt.input)
			tt.assert(t, err)

			if err != nil {
				assert.ErrorIs(t, err, &qemu.InvalidVersionError{})
				return
			}

			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		name     string
		version  qemu.Version
		other    qemu.Version
		expected int
	}{
		{
			name:     "equal",
			version:  qemu.Version{5, 0, 1},
			other:    qemu.Version{5, 0, 1},
			expected: 0,
		},
		{
			name:     "equal with missing components",
			version:  qemu.Version{5, 0},
			other:    qemu.Version{5, 0, 0},
			expected: 0,
		},
		{
			name:     "lower",
			version:  qemu.Version{5, 0, 0},
			other:    qemu.Version{5, 0, 1},
			expected: -1,
		},
		{
			name:     "higher",
			version:  qemu.Version{6},
			other:    qemu.Version{5, 2, 0},
			expected: 1,
		},
		{
			name:     "shorter but higher",
			version:  qemu.Version{5, 1},
			other:    qemu.Version{5, 0, 1},
			expected: 1,
		},
		{
			name:     "not string ordering",
			version:  qemu.Version{5, 10},
			other:    qemu.Version{5, 9},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.version.Compare(tt.other))
		})
	}
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "5.0.1", qemu.Version{5, 0, 1}.String())
	assert.Equal(t, "6", qemu.Version{6}.String())
}
