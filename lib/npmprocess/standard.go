// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package npmprocess

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/nodefmt/lib/clock"
	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
)

// InstanceIDFlag is how the server learns its instance id.
const InstanceIDFlag = "--node-server-instance-id"

// Standard runs npm directly in the working directory.
type Standard struct {
	clock       clock.Clock
	outputLimit int
}

// NewStandard returns a factory that spawns npm without caching.
func NewStandard(options Options) *Standard {
	options = options.withDefaults()
	return &Standard{clock: options.Clock, outputLimit: options.OutputLimit}
}

func (s *Standard) Describe() string { return "standard" }

// InstallArgv is the npm install command line.
func InstallArgv(npm string, preference OnlinePreference) []string {
	return []string{npm, "install", "--no-audit", "--no-fund", preference.Flag()}
}

// ServeArgv is the npm start command line.
func ServeArgv(npm, instanceID string) []string {
	argv := []string{npm, "start", "--scripts-prepend-node-path=true"}
	if instanceID != "" {
		argv = append(argv, "--", InstanceIDFlag+"="+instanceID)
	}
	return argv
}

func (s *Standard) CreateInstallProcess(layout nodelayout.Layout, locations nodelayout.Locations, preference OnlinePreference) Process {
	return &oneShot{spec: s.spec(layout, locations, InstallArgv(locations.NpmExecutable, preference)), clock: s.clock}
}

func (s *Standard) CreateServeProcess(layout nodelayout.Layout, locations nodelayout.Locations, instanceID string) (LongRunningProcess, error) {
	return spawn(s.spec(layout, locations, ServeArgv(locations.NpmExecutable, instanceID)), s.clock)
}

func (s *Standard) spec(layout nodelayout.Layout, locations nodelayout.Locations, argv []string) commandSpec {
	return commandSpec{
		argv:        argv,
		dir:         layout.WorkingDir(),
		env:         Environment(os.Environ(), locations.NodeExecutable),
		outputLimit: s.outputLimit,
	}
}

// Environment returns environ with the node executable's directory
// prepended to PATH. Nothing else changes.
func Environment(environ []string, nodeExecutable string) []string {
	result := make([]string, 0, len(environ)+1)
	if nodeExecutable == "" {
		return append(result, environ...)
	}
	nodeDir := filepath.Dir(nodeExecutable)
	replaced := false
	for _, entry := range environ {
		if value, ok := strings.CutPrefix(entry, "PATH="); ok {
			if value == "" {
				entry = "PATH=" + nodeDir
			} else {
				entry = "PATH=" + nodeDir + string(os.PathListSeparator) + value
			}
			replaced = true
		}
		result = append(result, entry)
	}
	if !replaced {
		result = append(result, "PATH="+nodeDir)
	}
	return result
}
