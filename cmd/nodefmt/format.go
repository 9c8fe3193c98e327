// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/nodefmt/cmd/nodefmt/cli"
	"github.com/bureau-foundation/nodefmt/lib/atomicfile"
	"github.com/bureau-foundation/nodefmt/lib/nodeserver"
	"github.com/bureau-foundation/nodefmt/lib/npmprocess"
	"github.com/bureau-foundation/nodefmt/lib/restclient"
	"github.com/bureau-foundation/nodefmt/lib/stepdef"
)

type formatOptions struct {
	global        globalOptions
	step          string
	write         bool
	check         bool
	stdinFilename string
	jobs          int
}

func (a *app) formatCommand() *cli.Command {
	var options formatOptions
	return &cli.Command{
		Name:    "format",
		Summary: "Format files with a step definition",
		Description: `Format files with the formatter a step definition describes.

The first run for a configuration installs its npm packages (or copies
them from the install cache) and starts the formatter server; the
server is shut down when all files are done.

Without --write or --check the formatted text goes to stdout.`,
		Usage: "nodefmt format --step <definition.jsonc> [flags] <file>...",
		Examples: []cli.Example{
			{Description: "Reformat sources in place", Command: "nodefmt format --step prettier.jsonc --write src/*.ts"},
			{Description: "Fail CI when a file is not formatted", Command: "nodefmt format --step eslint.jsonc --check src/*.js"},
			{Description: "Format an editor buffer", Command: "nodefmt format --step prettier.jsonc --stdin-filename src/a.ts < buffer"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("format", pflag.ContinueOnError)
			options.global.register(flagSet)
			flagSet.StringVarP(&options.step, "step", "s", "", "step definition file (required)")
			flagSet.BoolVarP(&options.write, "write", "w", false, "rewrite files in place")
			flagSet.BoolVar(&options.check, "check", false, "list files that would change and exit 1 if any")
			flagSet.StringVar(&options.stdinFilename, "stdin-filename", "", "format stdin as if it were this file")
			flagSet.IntVarP(&options.jobs, "jobs", "j", 4, "files formatted concurrently")
			return flagSet
		},
		Run: func(args []string) error {
			return a.runFormat(options, args)
		},
	}
}

func (a *app) runFormat(options formatOptions, files []string) error {
	switch {
	case options.step == "":
		return errors.New("--step is required")
	case options.write && options.check:
		return errors.New("--write and --check are mutually exclusive")
	case options.stdinFilename != "" && len(files) > 0:
		return errors.New("--stdin-filename does not take file arguments")
	case options.stdinFilename == "" && len(files) == 0:
		return errors.New("no files to format")
	case options.jobs < 1:
		return fmt.Errorf("--jobs must be at least 1, got %d", options.jobs)
	}

	env, err := a.loadEnvironment(options.global)
	if err != nil {
		return err
	}
	defer env.flushMetrics()

	definition, err := stepdef.Load(options.step)
	if err != nil {
		return err
	}
	tool, err := definition.Tool(filepath.Dir(options.step))
	if err != nil {
		return fmt.Errorf("%s: %w", options.step, err)
	}
	if err := env.resolveExecutables(); err != nil {
		return err
	}

	factory, err := npmprocess.NewFactory(env.locations, npmprocess.Options{
		Logger:  env.logger,
		Clock:   env.clock,
		Metrics: env.metrics,
	})
	if err != nil {
		return err
	}
	step := nodeserver.NewStep(tool, env.locations, factory, nodeserver.Options{
		Logger:         env.logger.With("step", tool.Name()),
		Clock:          env.clock,
		Metrics:        env.metrics,
		PollInterval:   env.timeouts.PollInterval,
		StartupTimeout: env.timeouts.StartupTimeout,
		ShutdownGrace:  env.timeouts.ShutdownGrace,
		UniqueInstance: env.config.Server.UniqueInstance,
		REST:           []restclient.Option{restclient.WithTimeouts(env.timeouts.ConnectTimeout, env.timeouts.ReadTimeout)},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*env.timeouts.ShutdownGrace)
		defer cancel()
		if err := step.Close(closeCtx); err != nil {
			env.logger.Warn("closing formatter server failed", "error", err)
		}
	}()

	if options.stdinFilename != "" {
		content, err := io.ReadAll(a.stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		formatted, err := step.Format(ctx, string(content), options.stdinFilename)
		if err != nil {
			return err
		}
		_, err = io.WriteString(a.stdout, formatted)
		return err
	}

	return a.formatFiles(ctx, step, options, files)
}

// formatFiles formats files concurrently. Output for stdout mode is
// written in argument order once every file is done.
func (a *app) formatFiles(ctx context.Context, step *nodeserver.Step, options formatOptions, files []string) error {
	results := make([]string, len(files))
	var (
		mu      sync.Mutex
		changed []string
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(options.jobs)
	for index, file := range files {
		group.Go(func() error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading %s: %w", file, err)
			}
			formatted, err := step.Format(groupCtx, string(data), file)
			if err != nil {
				return err
			}
			if formatted != string(data) {
				mu.Lock()
				changed = append(changed, file)
				mu.Unlock()
			}
			switch {
			case options.write:
				if formatted == string(data) {
					return nil
				}
				info, err := os.Stat(file)
				if err != nil {
					return err
				}
				return atomicfile.WriteFile(file, []byte(formatted), info.Mode().Perm())
			case options.check:
				return nil
			default:
				results[index] = formatted
				return nil
			}
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	switch {
	case options.check:
		for _, file := range files {
			if slices.Contains(changed, file) {
				fmt.Fprintf(a.stdout, "would reformat %s\n", file)
			}
		}
		if len(changed) > 0 {
			fmt.Fprintf(a.stderr, "%d of %d files would be reformatted\n", len(changed), len(files))
			return &cli.ExitError{Code: 1}
		}
	case options.write:
		for _, file := range files {
			if slices.Contains(changed, file) {
				fmt.Fprintf(a.stdout, "reformatted %s\n", file)
			}
		}
	default:
		for _, formatted := range results {
			if _, err := io.WriteString(a.stdout, formatted); err != nil {
				return err
			}
		}
	}
	return nil
}

