// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/nodefmt/cmd/nodefmt/cli"
	"github.com/bureau-foundation/nodefmt/lib/clock"
	"github.com/bureau-foundation/nodefmt/lib/config"
	"github.com/bureau-foundation/nodefmt/lib/metrics"
	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
)

// app carries the process streams so commands can be run in tests.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// newLogger builds the command logger at the configured level.
	newLogger func(slog.Level) *slog.Logger
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		newLogger: cli.NewCommandLogger,
	}
}

func (a *app) root() *cli.Command {
	return &cli.Command{
		Name:    "nodefmt",
		Summary: "Format files with npm formatters run as local servers",
		Description: `nodefmt formats files with prettier, eslint, or typescript-formatter.

Each step definition (a JSONC file) names a tool and its npm packages.
The packages are installed into a working directory under the build
directory, copied from the install cache when a previous build already
installed the same configuration.`,
		Output: a.stderr,
		Subcommands: []*cli.Command{
			a.formatCommand(),
			a.cacheCommand(),
			a.resolveCommand(),
			a.versionCommand(),
		},
	}
}

// globalOptions are the flags every environment-using command accepts.
type globalOptions struct {
	configPath string
	verbose    bool
	npm        string
	node       string
	noCache    bool
}

func (o *globalOptions) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&o.configPath, "config", "", "configuration file (default $"+config.EnvironmentVariable+")")
	flagSet.BoolVarP(&o.verbose, "verbose", "v", false, "log at debug level")
	flagSet.StringVar(&o.npm, "npm", "", "npm executable (default: resolved from NVM_BIN, NODE_PATH, PATH)")
	flagSet.StringVar(&o.node, "node", "", "node executable (default: next to npm, then PATH)")
	flagSet.BoolVar(&o.noCache, "no-cache", false, "disable the install cache")
}

// environment is the loaded configuration a command runs with.
type environment struct {
	config    *config.Config
	timeouts  config.Timeouts
	logger    *slog.Logger
	clock     clock.Clock
	metrics   *metrics.Metrics
	locations nodelayout.Locations
}

func (a *app) loadEnvironment(options globalOptions) (*environment, error) {
	var (
		configuration *config.Config
		err           error
	)
	if options.configPath != "" {
		configuration, err = config.LoadFile(options.configPath)
	} else {
		configuration, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	timeouts, err := configuration.Timeouts()
	if err != nil {
		return nil, err
	}
	level, err := configuration.Log.SlogLevel()
	if err != nil {
		return nil, err
	}
	if options.verbose {
		level = slog.LevelDebug
	}

	projectDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	locations := nodelayout.Locations{
		BuildDir:       configuration.Paths.BuildDir,
		ProjectDir:     projectDir,
		NpmExecutable:  firstNonEmpty(options.npm, configuration.Executables.Npm),
		NodeExecutable: firstNonEmpty(options.node, configuration.Executables.Node),
		CacheDir:       configuration.Paths.CacheDir,
	}
	if options.noCache {
		locations.CacheDir = ""
	}

	return &environment{
		config:    configuration,
		timeouts:  timeouts,
		logger:    a.newLogger(level),
		clock:     clock.Real(),
		metrics:   metrics.New(),
		locations: locations,
	}, nil
}

// resolveExecutables fills in the npm and node paths.
func (e *environment) resolveExecutables() error {
	resolved, err := nodelayout.ResolveLocations(e.locations)
	if err != nil {
		return err
	}
	e.locations = resolved
	return nil
}

// flushMetrics writes the metrics textfile when one is configured.
func (e *environment) flushMetrics() {
	path := e.config.Metrics.Textfile
	if path == "" {
		return
	}
	if err := e.metrics.WriteTextfile(path); err != nil {
		e.logger.Warn("writing metrics textfile failed", "path", path, "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
