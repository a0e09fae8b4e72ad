// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
)

var versionRE = regexp.MustCompile(
	`QEMU emulator version ([0-9]+(?:\.[0-9]+)*)`,
)

var (
	// multidevs=remap for -virtfs was added in QEMU 4.2.0.
	multidevsMinVersion = Version{4, 2}

	// QEMU's 9pfs O_NOATIME handling was fixed in 5.1.0 and backported to
	// 5.0.1.
	noatimeFixVersion = Version{5, 0, 1}
)

// Capabilities are the version-dependent feature flags of the installed QEMU
// binary. They are probed once per run and immutable afterwards.
type Capabilities struct {
	// Version as reported by the binary's -version output.
	Version Version

	// SupportsMultidevs is set if -virtfs accepts the multidevs=remap option
	// for device remapping on shares spanning multiple host devices.
	SupportsMultidevs bool

	// NeedsNoatimeHack is set if the binary mishandles O_NOATIME opens on
	// 9pfs shares and the preload workaround must be injected.
	NeedsNoatimeHack bool
}

// CapabilitiesFor derives the feature flags for the given QEMU version.
func CapabilitiesFor(version Version) Capabilities {
	return Capabilities{
		Version:           version,
		SupportsMultidevs: version.Compare(multidevsMinVersion) >= 0,
		NeedsNoatimeHack:  version.Compare(noatimeFixVersion) < 0,
	}
}

// ParseVersionOutput extracts the QEMU version from the output of the
// binary's version-reporting mode.
//
// It returns [ErrVersionUnparseable] if no version pattern is found.
func ParseVersionOutput(output string) (Version, error) {
	match := versionRE.FindStringSubmatch(output)
	if match == nil {
		return nil, ErrVersionUnparseable
	}

	return ParseVersion(match[1])
}

// Probe runs the given QEMU binary in version-reporting mode and returns its
// [Capabilities].
func Probe(ctx context.Context, executable string) (Capabilities, error) {
	output, err := exec.CommandContext(ctx, executable, "-version").Output()
	if err != nil {
		return Capabilities{}, fmt.Errorf("probe %s: %w", executable, err)
	}

	version, err := ParseVersionOutput(string(output))
	if err != nil {
		return Capabilities{}, err
	}

	return CapabilitiesFor(version), nil
}
