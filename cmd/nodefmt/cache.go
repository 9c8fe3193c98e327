// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/nodefmt/cmd/nodefmt/cli"
	"github.com/bureau-foundation/nodefmt/lib/codec"
	"github.com/bureau-foundation/nodefmt/lib/installcache"
)

func (a *app) cacheCommand() *cli.Command {
	return &cli.Command{
		Name:    "cache",
		Summary: "Inspect the install cache",
		Description: `Inspect the install cache.

Each entry is a node_modules tree keyed by the working directory name
it was installed for, with a record of when and how it was stored and
the npm output of the install.`,
		Subcommands: []*cli.Command{
			a.cacheListCommand(),
			a.cacheInspectCommand(),
		},
	}
}

// openCache opens the configured cache without resolving npm.
func (a *app) openCache(options globalOptions) (*installcache.Cache, *environment, error) {
	env, err := a.loadEnvironment(options)
	if err != nil {
		return nil, nil, err
	}
	if !env.locations.CachingEnabled() {
		return nil, nil, errors.New("the install cache is disabled (paths.cache_dir is empty)")
	}
	cache, err := installcache.Open(env.locations.CacheDir, installcache.Options{
		Logger:  env.logger,
		Clock:   env.clock,
		Metrics: env.metrics,
	})
	if err != nil {
		return nil, nil, err
	}
	return cache, env, nil
}

func (a *app) cacheListCommand() *cli.Command {
	var options globalOptions
	return &cli.Command{
		Name:    "list",
		Summary: "List cache entries",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			options.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			cache, env, err := a.openCache(options)
			if err != nil {
				return err
			}
			records, err := cache.List()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintf(a.stderr, "no entries in %s\n", cache.Root())
				return nil
			}
			now := env.clock.Now()
			writer := tabwriter.NewWriter(a.stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(writer, "KEY\tSTORED\tFILES\tSIZE\tMODE")
			for _, record := range records {
				fmt.Fprintf(writer, "%s\t%s\t%d\t%s\t%s\n",
					record.Key,
					humanize.RelTime(record.Created(), now, "ago", "from now"),
					record.Files,
					humanize.Bytes(uint64(record.Bytes)),
					record.LinkMode)
			}
			return writer.Flush()
		},
	}
}

func (a *app) cacheInspectCommand() *cli.Command {
	var (
		options globalOptions
		showLog bool
		raw     bool
	)
	return &cli.Command{
		Name:    "inspect",
		Summary: "Show one cache entry",
		Usage:   "nodefmt cache inspect [flags] <key>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			options.register(flagSet)
			flagSet.BoolVar(&showLog, "log", false, "print the npm install output")
			flagSet.BoolVar(&raw, "raw", false, "print the record in CBOR diagnostic notation")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one cache key")
			}
			cache, _, err := a.openCache(options)
			if err != nil {
				return err
			}
			key := args[0]

			if raw {
				data, err := cache.RawEntry(key)
				if err != nil {
					return err
				}
				diagnostic, err := codec.Diagnose(data)
				if err != nil {
					return fmt.Errorf("decoding %s: %w", key, err)
				}
				fmt.Fprintln(a.stdout, diagnostic)
				return nil
			}

			record, err := cache.Entry(key)
			if err != nil {
				return err
			}
			if showLog {
				log, err := record.InstallLog()
				if err != nil {
					return fmt.Errorf("decoding install log of %s: %w", key, err)
				}
				_, err = a.stdout.Write(log)
				return err
			}

			writer := tabwriter.NewWriter(a.stdout, 2, 0, 2, ' ', 0)
			fmt.Fprintf(writer, "key:\t%s\n", record.Key)
			fmt.Fprintf(writer, "config digest:\t%s\n", firstNonEmpty(record.ConfigDigest, "(unknown)"))
			fmt.Fprintf(writer, "stored:\t%s\n", record.Created().Format(time.RFC3339))
			fmt.Fprintf(writer, "files:\t%d\n", record.Files)
			fmt.Fprintf(writer, "size:\t%s\n", humanize.Bytes(uint64(record.Bytes)))
			fmt.Fprintf(writer, "link mode:\t%s\n", record.LinkMode)
			fmt.Fprintf(writer, "install log:\t%s (%s stored)\n",
				humanize.Bytes(uint64(record.LogSize)), firstNonEmpty(string(record.LogCompression), "none"))
			return writer.Flush()
		},
	}
}
