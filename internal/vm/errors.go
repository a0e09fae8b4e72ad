// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"errors"
	"strconv"
)

var (
	// ErrConnectTimeout is returned if the guest did not connect to the
	// status channel within the configured bound.
	ErrConnectTimeout = errors.New("VM did not connect in time")

	// ErrNoStatus is returned if the guest closed the status channel without
	// sending any bytes.
	ErrNoStatus = errors.New("VM did not return a status")

	// ErrInvalidStatus is returned if the guest's payload is not decimal
	// digits terminated by a single newline.
	ErrInvalidStatus = errors.New("VM returned invalid status")
)

// LostVMError classifies all conditions where the guest's result cannot be
// obtained reliably: connection timeout, empty payload, malformed payload.
//
// It is distinct from the guest command's own non-zero exit and is never
// retried automatically, since any retry requires a fresh VM boot.
type LostVMError struct {
	Err     error
	Payload []byte
}

// Error implements the [error] interface. A malformed payload is included
// quoted, never echoed raw.
func (e *LostVMError) Error() string {
	msg := "lost VM: " + e.Err.Error()
	if len(e.Payload) > 0 {
		msg += ": " + strconv.Quote(string(e.Payload))
	}

	return msg
}

// Is implements the [errors.Is] interface.
func (e *LostVMError) Is(other error) bool {
	_, ok := other.(*LostVMError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *LostVMError) Unwrap() error {
	return e.Err
}
