// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package shim

import "strings"

// BuildError is returned if the external compiler step fails. It carries the
// complete command line and compiler output for diagnosis without re-running.
type BuildError struct {
	CommandLine string
	Output      []byte
	Err         error
}

// Error implements the [error] interface.
func (e *BuildError) Error() string {
	msg := "build preload library: " + e.Err.Error()
	if output := strings.TrimSpace(string(e.Output)); output != "" {
		msg += "\n" + output
	}

	return msg
}

// Is implements the [errors.Is] interface.
func (e *BuildError) Is(other error) bool {
	_, ok := other.(*BuildError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *BuildError) Unwrap() error {
	return e.Err
}
