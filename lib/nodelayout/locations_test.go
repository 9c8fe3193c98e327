// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nodelayout

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/nodefmt/lib/testutil"
)

func clearSearchPath(t *testing.T) {
	t.Helper()
	t.Setenv("NVM_BIN", "")
	t.Setenv("NODE_PATH", "")
	t.Setenv("PATH", "")
}

func TestResolveNpmExplicit(t *testing.T) {
	clearSearchPath(t)
	npm := testutil.WriteExecutable(t, t.TempDir(), "npm", "exit 0\n")
	got, err := ResolveNpm(npm)
	if err != nil {
		t.Fatalf("ResolveNpm: %v", err)
	}
	if got != npm {
		t.Errorf("ResolveNpm() = %q, want %q", got, npm)
	}
}

func TestResolveNpmSearchOrder(t *testing.T) {
	clearSearchPath(t)
	nvmDir := t.TempDir()
	nodePathDir := t.TempDir()
	pathDir := t.TempDir()
	testutil.WriteExecutable(t, pathDir, "npm", "exit 0\n")
	t.Setenv("PATH", pathDir)

	got, err := ResolveNpm("")
	if err != nil {
		t.Fatalf("ResolveNpm: %v", err)
	}
	if want := filepath.Join(pathDir, "npm"); got != want {
		t.Errorf("ResolveNpm() = %q, want PATH entry %q", got, want)
	}

	// A NODE_PATH entry pointing at node_modules resolves to its parent.
	testutil.WriteExecutable(t, nodePathDir, "npm", "exit 0\n")
	t.Setenv("NODE_PATH", filepath.Join(nodePathDir, "node_modules"))
	got, err = ResolveNpm("")
	if err != nil {
		t.Fatalf("ResolveNpm: %v", err)
	}
	if want := filepath.Join(nodePathDir, "npm"); got != want {
		t.Errorf("ResolveNpm() = %q, want NODE_PATH entry %q", got, want)
	}

	testutil.WriteExecutable(t, nvmDir, "npm", "exit 0\n")
	t.Setenv("NVM_BIN", nvmDir)
	got, err = ResolveNpm("")
	if err != nil {
		t.Fatalf("ResolveNpm: %v", err)
	}
	if want := filepath.Join(nvmDir, "npm"); got != want {
		t.Errorf("ResolveNpm() = %q, want NVM_BIN entry %q", got, want)
	}
}

func TestResolveNpmNotFound(t *testing.T) {
	clearSearchPath(t)
	_, err := ResolveNpm("/nonexistent/npm")
	var resolveErr *ResolveError
	if !errors.As(err, &resolveErr) {
		t.Fatalf("ResolveNpm error = %v, want *ResolveError", err)
	}
	if resolveErr.Executable != "npm" {
		t.Errorf("Executable = %q, want npm", resolveErr.Executable)
	}
	if !strings.Contains(err.Error(), "/nonexistent/npm") {
		t.Errorf("error %q does not list the explicit path", err)
	}
}

func TestResolveNodeNextToNpm(t *testing.T) {
	clearSearchPath(t)
	bin := t.TempDir()
	npm := testutil.WriteExecutable(t, bin, "npm", "exit 0\n")
	node := testutil.WriteExecutable(t, bin, "node", "exit 0\n")

	got, err := ResolveNode("", npm)
	if err != nil {
		t.Fatalf("ResolveNode: %v", err)
	}
	if got != node {
		t.Errorf("ResolveNode() = %q, want %q", got, node)
	}
}

func TestResolveLocations(t *testing.T) {
	clearSearchPath(t)
	bin := t.TempDir()
	testutil.WriteExecutable(t, bin, "npm", "exit 0\n")
	testutil.WriteExecutable(t, bin, "node", "exit 0\n")
	t.Setenv("PATH", bin)

	locations, err := ResolveLocations(Locations{BuildDir: "build"})
	if err != nil {
		t.Fatalf("ResolveLocations: %v", err)
	}
	if locations.NpmExecutable != filepath.Join(bin, "npm") {
		t.Errorf("NpmExecutable = %q", locations.NpmExecutable)
	}
	if locations.NodeExecutable != filepath.Join(bin, "node") {
		t.Errorf("NodeExecutable = %q", locations.NodeExecutable)
	}
	if locations.CachingEnabled() {
		t.Error("CachingEnabled() = true with empty CacheDir")
	}
}
