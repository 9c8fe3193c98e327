// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package npmprocess

import (
	"context"
	"log/slog"

	"github.com/bureau-foundation/nodefmt/lib/installcache"
	"github.com/bureau-foundation/nodefmt/lib/metrics"
	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
)

// Caching satisfies installs from an install cache keyed by the
// working directory's leaf name, and stores fresh installs there.
// Serve processes pass straight through.
type Caching struct {
	delegate Factory
	cache    *installcache.Cache
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewCaching wraps delegate with cache.
func NewCaching(delegate Factory, cache *installcache.Cache, options Options) *Caching {
	options = options.withDefaults()
	return &Caching{
		delegate: delegate,
		cache:    cache,
		logger:   options.Logger,
		metrics:  options.Metrics,
	}
}

func (c *Caching) Describe() string {
	return "caching(" + c.cache.Root() + ") over " + c.delegate.Describe()
}

func (c *Caching) CreateInstallProcess(layout nodelayout.Layout, locations nodelayout.Locations, preference OnlinePreference) Process {
	return &cachedInstall{
		factory:   c,
		layout:    layout,
		locations: locations,
		delegate:  c.delegate.CreateInstallProcess(layout, locations, preference),
	}
}

func (c *Caching) CreateServeProcess(layout nodelayout.Layout, locations nodelayout.Locations, instanceID string) (LongRunningProcess, error) {
	return c.delegate.CreateServeProcess(layout, locations, instanceID)
}

type cachedInstall struct {
	factory   *Caching
	layout    nodelayout.Layout
	locations nodelayout.Locations
	delegate  Process
}

func (i *cachedInstall) Describe() string {
	return i.delegate.Describe() + " (cached in " + i.factory.cache.Root() + ")"
}

func (i *cachedInstall) Wait(ctx context.Context) (Result, error) {
	cache := i.factory.cache
	key := i.layout.Name()
	logger := i.factory.logger.With("key", key)

	hit := cache.EntryExists(key)
	i.factory.metrics.CacheLookup(hit)
	if hit {
		logger.Info("restoring node_modules from install cache")
		if err := cache.CopyEntryInto(key, i.layout.ModulesDir()); err != nil {
			return Result{Argv: []string{"(from cache " + cache.Root() + ")"}, ExitCode: -1}, err
		}
		return Result{Argv: []string{"(from cache " + cache.Root() + ")"}, ExitCode: 0}, nil
	}

	result, err := i.delegate.Wait(ctx)
	if err != nil {
		return result, err
	}
	// Store failures are logged inside the cache; only key errors come
	// back.
	if err := cache.AddEntryWithInfo(key, i.layout.ModulesDir(), installcache.EntryInfo{
		ConfigDigest: i.layout.ConfigDigest(),
		InstallLog:   []byte(result.Output()),
	}); err != nil {
		logger.Warn("not caching install", "error", err)
	}
	return result, nil
}
