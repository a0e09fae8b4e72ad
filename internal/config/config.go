// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the optional local configuration file that provides
// defaults for the vmtest CLI. Command line flags take precedence over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the local configuration file looked up in the working
// directory.
const DefaultFile = ".vmtest.yaml"

// Config are the CLI defaults read from the configuration file.
type Config struct {
	// Directory for cached build artifacts.
	Directory string `yaml:"directory"`

	// Kernel directory containing vmlinuz and the module tree.
	Kernel string `yaml:"kernel"`

	// Qemu is the qemu-system binary to use.
	Qemu string `yaml:"qemu"`

	// Memory for the guest in MB.
	Memory uint64 `yaml:"memory"`

	// SMP is the guest CPU count.
	SMP uint64 `yaml:"smp"`

	// LostStatus is the process exit status used when the VM is lost.
	LostStatus int `yaml:"lost_status"`

	// Timeout bounds the wait for the guest's status connection.
	Timeout Duration `yaml:"timeout"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Directory:  "build/vmtest",
		LostStatus: 128,
	}
}

// Load reads the configuration file at the given path on top of the built-in
// defaults. A missing file is not an error, it just yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}

	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Duration is a [time.Duration] that unmarshals from YAML strings like "5s".
type Duration time.Duration

// UnmarshalYAML implements [yaml.Unmarshaler].
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string

	err := value.Decode(&s)
	if err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}

	*d = Duration(parsed)

	return nil
}
