// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import "errors"

var (
	// ErrVersionUnparseable is returned if the QEMU binary's version output
	// does not contain a recognizable version string. This is fatal since the
	// command line assembly depends on accurate feature flags.
	ErrVersionUnparseable = errors.New("could not determine QEMU version")

	// ErrArgumentCollision is returned if two [Argument]s are considered
	// equal.
	ErrArgumentCollision = errors.New("colliding args")
)

// InvalidVersionError is returned for version strings that do not parse as
// dotted non-negative integers.
type InvalidVersionError struct {
	Input string
}

// Error implements the [error] interface.
func (e *InvalidVersionError) Error() string {
	return "invalid version string: " + e.Input
}

// Is implements the [errors.Is] interface.
func (e *InvalidVersionError) Is(other error) bool {
	_, ok := other.(*InvalidVersionError)
	return ok
}
