// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nodeserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/nodefmt/lib/atomicfile"
	"github.com/bureau-foundation/nodefmt/lib/clock"
	"github.com/bureau-foundation/nodefmt/lib/exclusive"
	"github.com/bureau-foundation/nodefmt/lib/metrics"
	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
	"github.com/bureau-foundation/nodefmt/lib/npmprocess"
	"github.com/bureau-foundation/nodefmt/lib/restclient"
	"github.com/bureau-foundation/nodefmt/lib/timedlog"
)

// Default timing.
const (
	DefaultPollInterval   = 100 * time.Millisecond
	DefaultStartupTimeout = 60 * time.Second
	DefaultShutdownGrace  = 5 * time.Second
)

// Options configures runtimes and steps. Zero fields take defaults.
type Options struct {
	Logger  *slog.Logger
	Clock   clock.Clock
	Metrics *metrics.Metrics

	PollInterval   time.Duration
	StartupTimeout time.Duration
	ShutdownGrace  time.Duration

	// UniqueInstance gives every server its own signal file, so several
	// servers can start concurrently in one working directory.
	UniqueInstance bool

	// REST configures the clients a Step creates.
	REST []restclient.Option
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.StartupTimeout <= 0 {
		o.StartupTimeout = DefaultStartupTimeout
	}
	if o.ShutdownGrace <= 0 {
		o.ShutdownGrace = DefaultShutdownGrace
	}
	return o
}

// Runtime owns one working directory: it writes the layout, installs
// dependencies, and starts servers in it.
type Runtime struct {
	name      string
	config    nodelayout.Config
	layout    nodelayout.Layout
	locations nodelayout.Locations
	factory   npmprocess.Factory
	installer *npmprocess.Installer
	options   Options
	logger    *slog.Logger

	mu    sync.Mutex
	state State
}

// NewRuntime validates config and computes its layout under
// locations.BuildDir.
func NewRuntime(name string, config nodelayout.Config, locations nodelayout.Locations, factory npmprocess.Factory, options Options) (*Runtime, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	layout, err := nodelayout.ForConfig(locations.BuildDir, name, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	options = options.withDefaults()
	logger := options.Logger.With("step", name, "working_dir", layout.WorkingDir())
	return &Runtime{
		name:      name,
		config:    config,
		layout:    layout,
		locations: locations,
		factory:   factory,
		installer: npmprocess.NewInstaller(factory, npmprocess.Options{
			Logger:  logger,
			Clock:   options.Clock,
			Metrics: options.Metrics,
		}),
		options: options,
		logger:  logger,
	}, nil
}

func (r *Runtime) Name() string              { return r.name }
func (r *Runtime) Layout() nodelayout.Layout { return r.layout }

func (r *Runtime) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runtime) setState(state State) {
	r.mu.Lock()
	previous := r.state
	r.state = state
	r.mu.Unlock()
	if previous != state {
		r.logger.Debug("state change", "from", previous.String(), "to", state.String())
	}
}

// Prepare writes the layout and installs dependencies if either is
// missing. Runtimes sharing a working directory take turns.
func (r *Runtime) Prepare(ctx context.Context) error {
	return exclusive.Run(r.layout.WorkingDir(), func() error {
		if !r.layout.IsLayoutPrepared() {
			r.setState(LayoutPreparing)
			if err := r.layout.Write(r.config); err != nil {
				return fmt.Errorf("writing layout: %w", err)
			}
		}
		if !r.layout.IsInstallPrepared() {
			r.setState(InstallPreparing)
			if _, err := r.installer.Install(ctx, r.layout, r.locations); err != nil {
				return fmt.Errorf("installing dependencies: %w", err)
			}
		}
		return nil
	})
}

// Start prepares the working directory, spawns the server, and waits
// for it to report its port. On failure the server process is gone
// before Start returns and the runtime is back to NotReady.
func (r *Runtime) Start(ctx context.Context) (*Server, error) {
	var server *Server
	err := timedlog.Run(r.logger, r.options.Clock, "starting formatter server", nil, func() error {
		var err error
		server, err = r.start(ctx)
		return err
	})
	return server, err
}

func (r *Runtime) start(ctx context.Context) (*Server, error) {
	if err := r.Prepare(ctx); err != nil {
		r.setState(NotReady)
		return nil, r.startupError(nil, err)
	}

	instanceID := ""
	if r.options.UniqueInstance {
		instanceID = uuid.NewString()
	}
	signalFile := r.layout.SignalFile(instanceID)
	if err := atomicfile.RemoveIfExists(signalFile); err != nil {
		r.setState(NotReady)
		return nil, r.startupError(nil, fmt.Errorf("removing stale signal file: %w", err))
	}

	r.setState(Starting)
	clk := r.options.Clock
	started := clk.Now()
	process, err := r.factory.CreateServeProcess(r.layout, r.locations, instanceID)
	if err != nil {
		r.setState(NotReady)
		r.options.Metrics.ServerStarted(metrics.OutcomeFailure, 0)
		return nil, r.startupError(nil, err)
	}

	ticker := clk.NewTicker(r.options.PollInterval)
	defer ticker.Stop()
	deadline := clk.After(r.options.StartupTimeout)

	for {
		if port, ok := readPort(signalFile); ok {
			r.setState(Ready)
			r.options.Metrics.ServerStarted(metrics.OutcomeSuccess, clock.Since(clk, started))
			r.logger.Info("formatter server ready", "port", port, "signal_file", signalFile)
			return &Server{
				runtime:    r,
				port:       port,
				process:    process,
				signalFile: signalFile,
			}, nil
		}

		select {
		case <-ticker.C:
		case <-process.Done():
			result := process.Result()
			r.abandon(signalFile)
			r.options.Metrics.ServerStarted(metrics.OutcomeFailure, 0)
			return nil, r.startupError(&result, &npmprocess.ProcessError{Result: result})
		case <-deadline:
			result := r.kill(process)
			r.abandon(signalFile)
			r.options.Metrics.ServerStarted(metrics.OutcomeTimeout, 0)
			return nil, r.startupError(&result, &TimeoutError{SignalFile: signalFile, Timeout: r.options.StartupTimeout})
		case <-ctx.Done():
			result := r.kill(process)
			r.abandon(signalFile)
			r.options.Metrics.ServerStarted(metrics.OutcomeFailure, 0)
			return nil, r.startupError(&result, ctx.Err())
		}
	}
}

// kill stops a server that never became ready and returns its output.
func (r *Runtime) kill(process npmprocess.LongRunningProcess) npmprocess.Result {
	if err := process.Kill(); err != nil {
		r.logger.Warn("killing formatter server", "error", err)
	}
	return process.Result()
}

func (r *Runtime) abandon(signalFile string) {
	if err := atomicfile.RemoveIfExists(signalFile); err != nil {
		r.logger.Warn("removing signal file", "path", signalFile, "error", err)
	}
	r.setState(NotReady)
}

func (r *Runtime) startupError(result *npmprocess.Result, err error) *StartupError {
	return &StartupError{Step: r.name, WorkingDir: r.layout.WorkingDir(), Result: result, Err: err}
}

// readPort returns the port in path once it holds a complete, valid
// port number.
func readPort(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	port, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || port <= 0 || port > 65535 {
		return 0, false
	}
	return port, true
}
