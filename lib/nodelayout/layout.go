// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nodelayout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/nodefmt/lib/atomicfile"
)

// File names inside a working directory.
const (
	ManifestFile    = "package.json"
	ServeScriptFile = "serve.js"
	RegistryFile    = ".npmrc"
	ModulesDirName  = "node_modules"
	signalFile      = "server.port"
)

// Layout is the set of paths belonging to one working directory.
type Layout struct {
	dir string

	// expectServeScript is set by ForConfig when the config carries a
	// serve script, so IsLayoutPrepared can require serve.js.
	expectServeScript bool

	// digest is the full config digest for layouts built by ForConfig.
	digest string
}

// New returns the layout for <baseDir>/<stepName>-node-modules-<suffix>.
// baseDir is made absolute against the current directory.
func New(baseDir, stepName, suffix string) (Layout, error) {
	if stepName == "" {
		return Layout{}, fmt.Errorf("step name is empty")
	}
	if suffix == "" {
		return Layout{}, fmt.Errorf("layout suffix is empty")
	}
	absolute, err := filepath.Abs(baseDir)
	if err != nil {
		return Layout{}, fmt.Errorf("resolving base directory %s: %w", baseDir, err)
	}
	return Layout{dir: filepath.Join(absolute, stepName+"-node-modules-"+suffix)}, nil
}

// ForConfig returns the layout whose suffix is the short digest of
// config.
func ForConfig(baseDir, stepName string, config Config) (Layout, error) {
	layout, err := New(baseDir, stepName, config.Hash().Short())
	if err != nil {
		return Layout{}, err
	}
	layout.expectServeScript = config.ServeScript != ""
	layout.digest = config.Hash().String()
	return layout, nil
}

// WorkingDir is the directory npm runs in.
func (l Layout) WorkingDir() string { return l.dir }

// Name is the working directory's leaf name, used as the cache key.
func (l Layout) Name() string { return filepath.Base(l.dir) }

// ConfigDigest is the hex config digest when the layout came from
// ForConfig, and empty otherwise.
func (l Layout) ConfigDigest() string { return l.digest }

func (l Layout) ManifestPath() string    { return filepath.Join(l.dir, ManifestFile) }
func (l Layout) ServeScriptPath() string { return filepath.Join(l.dir, ServeScriptFile) }
func (l Layout) RegistryPath() string    { return filepath.Join(l.dir, RegistryFile) }
func (l Layout) ModulesDir() string      { return filepath.Join(l.dir, ModulesDirName) }

// SignalFile is where the server writes its port once it listens. A
// non-empty instanceID gives each server instance its own file.
func (l Layout) SignalFile(instanceID string) string {
	if instanceID == "" {
		return filepath.Join(l.dir, signalFile)
	}
	return filepath.Join(l.dir, "server-"+instanceID+".port")
}

// IsLayoutPrepared reports whether the working directory holds the
// manifest, and serve.js when the layout's config has one. .npmrc is
// never checked.
func (l Layout) IsLayoutPrepared() bool {
	if info, err := os.Stat(l.dir); err != nil || !info.IsDir() {
		return false
	}
	if !isRegularFile(l.ManifestPath()) {
		return false
	}
	if l.expectServeScript && !isRegularFile(l.ServeScriptPath()) {
		return false
	}
	return true
}

// IsInstallPrepared reports whether node_modules exists and has at
// least one entry.
func (l Layout) IsInstallPrepared() bool {
	handle, err := os.Open(l.ModulesDir())
	if err != nil {
		return false
	}
	defer handle.Close()
	names, err := handle.Readdirnames(1)
	return err == nil && len(names) > 0
}

// Write creates the working directory and writes the config's files
// into it. Optional files absent from config are removed.
func (l Layout) Write(config Config) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("creating working directory %s: %w", l.dir, err)
	}
	if err := atomicfile.WriteFile(l.ManifestPath(), []byte(config.Manifest), 0o644); err != nil {
		return err
	}
	if err := writeOrRemove(l.ServeScriptPath(), config.ServeScript); err != nil {
		return err
	}
	return writeOrRemove(l.RegistryPath(), config.Registry)
}

func writeOrRemove(path, content string) error {
	if content == "" {
		if err := atomicfile.RemoveIfExists(path); err != nil {
			return fmt.Errorf("removing %s: %w", path, err)
		}
		return nil
	}
	return atomicfile.WriteFile(path, []byte(content), 0o644)
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
