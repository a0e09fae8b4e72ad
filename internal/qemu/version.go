// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"strconv"
	"strings"
)

// Version is a dotted-integer QEMU version, e.g. 5.0.1. It may have any
// number of components.
type Version []int

// ParseVersion parses a dotted-integer version string.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	version := make(Version, 0, len(parts))

	for _, part := range parts {
		num, err := strconv.Atoi(part)
		if err != nil || num < 0 {
			return nil, &InvalidVersionError{Input: s}
		}

		version = append(version, num)
	}

	return version, nil
}

// Compare compares the versions component-wise. Missing components count as
// zero, so 5.0 equals 5.0.0 and 5.10 sorts after 5.9.
//
// It returns -1 if v is lower than other, 0 if they are equal and 1 if v is
// higher than other.
func (v Version) Compare(other Version) int {
	n := max(len(v), len(other))

	for idx := 0; idx < n; idx++ {
		a, b := v.component(idx), other.component(idx)

		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}

	return 0
}

// String implements [fmt.Stringer].
func (v Version) String() string {
	parts := make([]string, len(v))
	for idx, num := range v {
		parts[idx] = strconv.Itoa(num)
	}

	return strings.Join(parts, ".")
}

func (v Version) component(idx int) int {
	if idx >= len(v) {
		return 0
	}

	return v[idx]
}
