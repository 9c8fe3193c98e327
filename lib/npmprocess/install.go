// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package npmprocess

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/nodefmt/lib/clock"
	"github.com/bureau-foundation/nodefmt/lib/metrics"
	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
	"github.com/bureau-foundation/nodefmt/lib/timedlog"
)

// retrySignatures are npm messages (lowercased) that an online retry
// can fix: ETARGET when the local cache has no matching version, and
// ERESOLVE when the dependency tree cannot be resolved from it.
var retrySignatures = []string{
	"no matching version found",
	"unable to resolve dependency tree",
}

// Installer runs npm install with the offline-then-online policy.
type Installer struct {
	factory Factory
	logger  *slog.Logger
	clock   clock.Clock
	metrics *metrics.Metrics
}

// NewInstaller returns an Installer creating processes with factory.
func NewInstaller(factory Factory, options Options) *Installer {
	options = options.withDefaults()
	return &Installer{
		factory: factory,
		logger:  options.Logger,
		clock:   options.Clock,
		metrics: options.Metrics,
	}
}

// Install runs an Installer with default options.
func Install(ctx context.Context, factory Factory, layout nodelayout.Layout, locations nodelayout.Locations) (Result, error) {
	return NewInstaller(factory, Options{}).Install(ctx, layout, locations)
}

// Install runs npm install preferring offline. If that fails with a
// retryable resolution error, it runs once more preferring online.
// Every other failure is returned as is.
func (i *Installer) Install(ctx context.Context, layout nodelayout.Layout, locations nodelayout.Locations) (Result, error) {
	result, err := i.run(ctx, layout, locations, PreferOffline)
	if err == nil || !retryable(err) {
		return result, err
	}
	i.metrics.InstallRetried()
	i.logger.Info("offline install could not resolve dependencies, retrying online",
		"working_dir", layout.WorkingDir(),
	)
	return i.run(ctx, layout, locations, PreferOnline)
}

func (i *Installer) run(ctx context.Context, layout nodelayout.Layout, locations nodelayout.Locations, preference OnlinePreference) (Result, error) {
	process := i.factory.CreateInstallProcess(layout, locations, preference)
	var result Result
	err := timedlog.Run(i.logger, i.clock, "npm install", []slog.Attr{
		slog.String("working_dir", layout.WorkingDir()),
		slog.String("preference", preference.String()),
		slog.String("factory", i.factory.Describe()),
	}, func() error {
		var err error
		result, err = process.Wait(ctx)
		return err
	})
	i.metrics.InstallFinished(preference.String(), err)
	return result, err
}

func retryable(err error) bool {
	var processErr *ProcessError
	if !errors.As(err, &processErr) {
		return false
	}
	output := strings.ToLower(processErr.Result.Stdout + "\n" + processErr.Result.Stderr)
	for _, signature := range retrySignatures {
		if strings.Contains(output, signature) {
			return true
		}
	}
	return false
}
