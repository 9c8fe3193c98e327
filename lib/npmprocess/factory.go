// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package npmprocess

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/nodefmt/lib/clock"
	"github.com/bureau-foundation/nodefmt/lib/installcache"
	"github.com/bureau-foundation/nodefmt/lib/metrics"
	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
)

// OnlinePreference selects how npm uses its local package cache.
type OnlinePreference int

const (
	PreferOffline OnlinePreference = iota
	PreferOnline
)

// Flag returns the npm command-line flag.
func (p OnlinePreference) Flag() string {
	if p == PreferOnline {
		return "--prefer-online"
	}
	return "--prefer-offline"
}

func (p OnlinePreference) String() string {
	if p == PreferOnline {
		return "online"
	}
	return "offline"
}

// Factory creates npm processes for a working directory.
type Factory interface {
	// CreateInstallProcess returns an unstarted npm install.
	CreateInstallProcess(layout nodelayout.Layout, locations nodelayout.Locations, preference OnlinePreference) Process

	// CreateServeProcess starts npm start. instanceID is passed to the
	// server and selects its signal file; empty means the shared one.
	CreateServeProcess(layout nodelayout.Layout, locations nodelayout.Locations, instanceID string) (LongRunningProcess, error)

	// Describe names the factory for logs.
	Describe() string
}

// Options configures the factories. Zero fields take defaults.
type Options struct {
	Logger  *slog.Logger
	Clock   clock.Clock
	Metrics *metrics.Metrics

	// OutputLimit is the per-stream capture size. Defaults to
	// DefaultOutputLimit.
	OutputLimit int
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.OutputLimit <= 0 {
		o.OutputLimit = DefaultOutputLimit
	}
	return o
}

// NewFactory returns a Caching factory over Standard when
// locations.CacheDir is set, and Standard otherwise.
func NewFactory(locations nodelayout.Locations, options Options) (Factory, error) {
	options = options.withDefaults()
	standard := NewStandard(options)
	if !locations.CachingEnabled() {
		return standard, nil
	}
	cache, err := installcache.Open(locations.CacheDir, installcache.Options{
		Logger:  options.Logger,
		Clock:   options.Clock,
		Metrics: options.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("opening install cache: %w", err)
	}
	return NewCaching(standard, cache, options), nil
}
