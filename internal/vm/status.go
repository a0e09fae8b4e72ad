// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"bytes"
	"strconv"
)

// ParseStatus decodes the guest's status payload: ASCII decimal digits
// followed by exactly one trailing newline.
//
// The protocol does not bound the value other than requiring a non-negative
// integer; the usual 0-255 range is a convention of the guest shell. Anything
// malformed is classified as a [LostVMError] carrying the offending bytes.
func ParseStatus(payload []byte) (int, error) {
	if len(payload) == 0 {
		return 0, &LostVMError{Err: ErrNoStatus}
	}

	digits, ok := bytes.CutSuffix(payload, []byte("\n"))
	if !ok || !isDecimal(digits) {
		return 0, &LostVMError{Err: ErrInvalidStatus, Payload: payload}
	}

	code, err := strconv.Atoi(string(digits))
	if err != nil {
		return 0, &LostVMError{Err: ErrInvalidStatus, Payload: payload}
	}

	return code, nil
}

func isDecimal(b []byte) bool {
	if len(b) == 0 {
		return false
	}

	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}
