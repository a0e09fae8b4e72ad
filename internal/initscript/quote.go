// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initscript

import (
	"regexp"
	"strings"
)

var safeWordRE = regexp.MustCompile(`^[A-Za-z0-9@%+=:,./_-]+$`)

// Quote returns the string as a single POSIX shell word.
//
// Strings consisting only of unproblematic characters are returned as-is,
// everything else is single-quoted with embedded single quotes escaped.
func Quote(s string) string {
	if s == "" {
		return "''"
	}

	if safeWordRE.MatchString(s) {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
