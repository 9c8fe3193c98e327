// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/nodefmt/cmd/nodefmt/cli"
	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
	"github.com/bureau-foundation/nodefmt/lib/stepdef"
)

func (a *app) resolveCommand() *cli.Command {
	var (
		options globalOptions
		step    string
	)
	return &cli.Command{
		Name:    "resolve",
		Summary: "Show the executables and directories a step would use",
		Description: `Show the npm and node executables, the build and cache directories,
and, with --step, the working directory of that step and whether its
files and node_modules are already in place.`,
		Examples: []cli.Example{
			{Description: "Check which npm a CI machine picks up", Command: "nodefmt resolve"},
			{Description: "Find a step's working directory", Command: "nodefmt resolve --step prettier.jsonc"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("resolve", pflag.ContinueOnError)
			options.register(flagSet)
			flagSet.StringVarP(&step, "step", "s", "", "step definition file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			env, err := a.loadEnvironment(options)
			if err != nil {
				return err
			}
			if err := env.resolveExecutables(); err != nil {
				return err
			}

			writer := tabwriter.NewWriter(a.stdout, 2, 0, 2, ' ', 0)
			fmt.Fprintf(writer, "npm:\t%s\n", env.locations.NpmExecutable)
			fmt.Fprintf(writer, "node:\t%s\n", env.locations.NodeExecutable)
			fmt.Fprintf(writer, "build dir:\t%s\n", env.locations.BuildDir)
			fmt.Fprintf(writer, "cache dir:\t%s\n", firstNonEmpty(env.locations.CacheDir, "(disabled)"))

			if step != "" {
				layout, err := stepLayout(step, env.locations)
				if err != nil {
					return err
				}
				fmt.Fprintf(writer, "working dir:\t%s\n", layout.WorkingDir())
				fmt.Fprintf(writer, "config digest:\t%s\n", layout.ConfigDigest())
				fmt.Fprintf(writer, "layout prepared:\t%t\n", layout.IsLayoutPrepared())
				fmt.Fprintf(writer, "install prepared:\t%t\n", layout.IsInstallPrepared())
			}
			return writer.Flush()
		},
	}
}

// stepLayout computes the working directory layout of a step
// definition without writing anything.
func stepLayout(path string, locations nodelayout.Locations) (nodelayout.Layout, error) {
	definition, err := stepdef.Load(path)
	if err != nil {
		return nodelayout.Layout{}, err
	}
	tool, err := definition.Tool(filepath.Dir(path))
	if err != nil {
		return nodelayout.Layout{}, fmt.Errorf("%s: %w", path, err)
	}
	config, err := tool.MaterializeConfig()
	if err != nil {
		return nodelayout.Layout{}, err
	}
	return nodelayout.ForConfig(locations.BuildDir, tool.Name(), config)
}
