// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"path/filepath"
)

// ProjectFile is the config file name looked up in the working directory.
const ProjectFile = ".opspec.yaml"

// ConfigDir returns the XDG config directory for opspec.
// Respects XDG_CONFIG_HOME, falling back to ~/.config/opspec.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "opspec"), nil
}

// ConfigPath returns the user-level config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// SearchPaths lists candidate config files, highest precedence first:
// $OPSPEC_CONFIG, ProjectFile in the working directory, then ConfigPath.
func SearchPaths() []string {
	var paths []string
	if p := os.Getenv("OPSPEC_CONFIG"); p != "" {
		paths = append(paths, p)
	}
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, ProjectFile))
	}
	if p, err := ConfigPath(); err == nil {
		paths = append(paths, p)
	}
	return paths
}

// DefaultPath returns the first search path naming a regular file, or ""
// when none does. An explicit $OPSPEC_CONFIG is returned even if missing
// so that Load reports it.
func DefaultPath() string {
	explicit := os.Getenv("OPSPEC_CONFIG")
	for _, p := range SearchPaths() {
		if p == explicit {
			return p
		}
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p
		}
	}
	return ""
}
