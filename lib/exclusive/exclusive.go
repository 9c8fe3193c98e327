// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package exclusive serializes work on a filesystem path within one
// process. Steps that share a working directory take turns preparing
// it; steps on different directories run in parallel.
//
// Locks are process-local. Separate processes sharing a build or cache
// directory rely on the install cache's atomic rename instead.
//
// Go mutexes are not reentrant. Calling Run for a path from inside an
// action already running for that path deadlocks.
package exclusive

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Registry maps canonical paths to mutexes. Mutexes are created on
// first use and never removed. The zero value is ready to use.
type Registry struct {
	locks sync.Map // string → *sync.Mutex
}

// Run holds path's lock while action runs and returns action's error.
// The lock is released even if action panics.
func (r *Registry) Run(path string, action func() error) error {
	key, err := Canonical(path)
	if err != nil {
		return err
	}
	value, _ := r.locks.LoadOrStore(key, &sync.Mutex{})
	mutex := value.(*sync.Mutex)
	mutex.Lock()
	defer mutex.Unlock()
	return action()
}

// Canonical returns the absolute form of path with symlinks resolved
// on its longest existing ancestor. The part that does not exist yet is
// joined back unchanged, so a path keeps the same key before and after
// it is created.
func Canonical(path string) (string, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	existing, missing := absolute, ""
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return absolute, nil
		}
		missing = filepath.Join(filepath.Base(existing), missing)
		existing = parent
	}
	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return absolute, nil
	}
	return filepath.Join(resolved, missing), nil
}

var defaultRegistry Registry

// Run uses the process-wide registry.
func Run(path string, action func() error) error {
	return defaultRegistry.Run(path, action)
}
