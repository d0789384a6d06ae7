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

package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// PatternMatcher handles include and exclude glob matching for op
// document paths. Patterns use doublestar syntax, so ** crosses
// directories.
type PatternMatcher struct {
	includePatterns []string
	excludePatterns []string
}

// NewPatternMatcher creates a matcher. An empty include list includes
// everything; excludes are applied after includes.
func NewPatternMatcher(includePatterns, excludePatterns []string) (*PatternMatcher, error) {
	for _, pattern := range includePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern %q", pattern)
		}
	}
	for _, pattern := range excludePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	return &PatternMatcher{
		includePatterns: includePatterns,
		excludePatterns: excludePatterns,
	}, nil
}

// Match reports whether path is included and not excluded. Patterns are
// tried against the full path and the base name.
func (pm *PatternMatcher) Match(path string) bool {
	included := len(pm.includePatterns) == 0
	for _, pattern := range pm.includePatterns {
		if matchPattern(pattern, path) {
			included = true
			break
		}
	}
	if !included {
		return false
	}

	for _, pattern := range pm.excludePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}
	return true
}

func matchPattern(pattern, path string) bool {
	if matched, _ := doublestar.PathMatch(pattern, path); matched {
		return true
	}
	matched, _ := doublestar.Match(pattern, filepath.Base(path))
	return matched
}

// DocumentPatterns are the file names treated as op documents.
func DocumentPatterns() []string {
	return []string{"*.yaml", "*.yml", "*.json"}
}

// DefaultExcludePatterns returns editor temporary files and system files.
func DefaultExcludePatterns() []string {
	return []string{
		"*.swp",
		"*.swo",
		".*.sw?",
		"*~",
		".#*",
		".DS_Store",
		"*.tmp",
	}
}

// Expand resolves file arguments to a sorted, de-duplicated list of op
// document paths. Arguments containing glob metacharacters are expanded
// with doublestar; directories are walked for op documents; other
// arguments are kept as is so a missing file is reported by its reader.
func Expand(args []string) ([]string, error) {
	docs, err := NewPatternMatcher(DocumentPatterns(), DefaultExcludePatterns())
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		if hasMeta(arg) {
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			add(arg)
			continue
		}

		matches, err := doublestar.FilepathGlob(filepath.Join(arg, "**"), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
		}
		for _, m := range matches {
			if docs.Match(m) {
				add(m)
			}
		}
	}

	sort.Strings(out)
	return out, nil
}

func hasMeta(s string) bool {
	for _, c := range s {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
