// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nodelayout

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Locations is where a step runs and which binaries it uses.
type Locations struct {
	// BuildDir is the base directory for working directories.
	BuildDir string

	// ProjectDir is the root of the project being formatted. Relative
	// config file references resolve against it.
	ProjectDir string

	NpmExecutable  string
	NodeExecutable string

	// CacheDir is the install cache root. Empty disables caching.
	CacheDir string
}

// CachingEnabled reports whether CacheDir is set.
func (l Locations) CachingEnabled() bool { return l.CacheDir != "" }

// ResolveError reports an executable that could not be found.
type ResolveError struct {
	Executable string
	Tried      []string
}

func (e *ResolveError) Error() string {
	if len(e.Tried) == 0 {
		return "cannot find " + e.Executable + " executable"
	}
	return "cannot find " + e.Executable + " executable (tried " + strings.Join(e.Tried, ", ") + ")"
}

// ResolveNpm locates the npm executable. An explicit path wins when it
// is executable; otherwise $NVM_BIN, each $NODE_PATH entry (an entry
// ending in node_modules maps to its parent), and $PATH are searched in
// that order.
func ResolveNpm(explicit string) (string, error) {
	resolveErr := &ResolveError{Executable: "npm"}
	if explicit != "" {
		if isExecutable(explicit) {
			return absolute(explicit), nil
		}
		resolveErr.Tried = append(resolveErr.Tried, explicit)
	}

	var candidates []string
	if nvmBin := os.Getenv("NVM_BIN"); nvmBin != "" {
		candidates = append(candidates, nvmBin)
	}
	for _, entry := range filepath.SplitList(os.Getenv("NODE_PATH")) {
		if entry == "" {
			continue
		}
		if filepath.Base(entry) == "node_modules" {
			entry = filepath.Dir(entry)
		}
		candidates = append(candidates, entry)
	}
	for _, directory := range candidates {
		path := filepath.Join(directory, "npm")
		if isExecutable(path) {
			return absolute(path), nil
		}
		resolveErr.Tried = append(resolveErr.Tried, path)
	}
	return lookPath("npm", resolveErr)
}

// ResolveNode locates the node executable: an explicit path, then the
// directory holding npm, then $PATH.
func ResolveNode(explicit, npm string) (string, error) {
	resolveErr := &ResolveError{Executable: "node"}
	if explicit != "" {
		if isExecutable(explicit) {
			return absolute(explicit), nil
		}
		resolveErr.Tried = append(resolveErr.Tried, explicit)
	}
	if npm != "" {
		sibling := filepath.Join(filepath.Dir(npm), "node")
		if isExecutable(sibling) {
			return absolute(sibling), nil
		}
		resolveErr.Tried = append(resolveErr.Tried, sibling)
	}
	return lookPath("node", resolveErr)
}

// ResolveLocations fills in missing executables of locations.
func ResolveLocations(locations Locations) (Locations, error) {
	npm, npmErr := ResolveNpm(locations.NpmExecutable)
	if npmErr == nil {
		locations.NpmExecutable = npm
	}
	node, nodeErr := ResolveNode(locations.NodeExecutable, locations.NpmExecutable)
	if nodeErr == nil {
		locations.NodeExecutable = node
	}
	return locations, errors.Join(npmErr, nodeErr)
}

func lookPath(name string, resolveErr *ResolveError) (string, error) {
	for _, directory := range filepath.SplitList(os.Getenv("PATH")) {
		if directory == "" {
			continue
		}
		path := filepath.Join(directory, name)
		if isExecutable(path) {
			return absolute(path), nil
		}
	}
	resolveErr.Tried = append(resolveErr.Tried, "$PATH")
	return "", resolveErr
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

func absolute(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
