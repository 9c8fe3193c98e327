// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nodeserver

import (
	"context"
	"fmt"
	"sync"

	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
	"github.com/bureau-foundation/nodefmt/lib/npmprocess"
	"github.com/bureau-foundation/nodefmt/lib/restclient"
)

// Tool is one formatter's side of the protocol: the files its server
// needs and the request that formats a file.
type Tool interface {
	// Name identifies the step. It prefixes the working directory.
	Name() string

	// MaterializeConfig renders the working directory contents.
	MaterializeConfig() (nodelayout.Config, error)

	// Format sends content to the server and returns the formatted
	// text. file is the path the content came from.
	Format(ctx context.Context, client *restclient.Client, content, file string) (string, error)
}

// Shutdowner is implemented by tools whose server supports a graceful
// shutdown request.
type Shutdowner interface {
	Shutdown(ctx context.Context, client *restclient.Client) error
}

// Step formats files with a Tool, starting its server on first use.
// Safe for concurrent use.
type Step struct {
	tool      Tool
	locations nodelayout.Locations
	factory   npmprocess.Factory
	options   Options

	mu      sync.Mutex
	runtime *Runtime
	server  *Server
	client  *restclient.Client
	closed  bool
}

// NewStep returns a step that has not started anything yet.
func NewStep(tool Tool, locations nodelayout.Locations, factory npmprocess.Factory, options Options) *Step {
	return &Step{
		tool:      tool,
		locations: locations,
		factory:   factory,
		options:   options.withDefaults(),
	}
}

// Format formats content, starting the server if needed. A failed
// startup is not remembered; the next call tries again.
func (s *Step) Format(ctx context.Context, content, file string) (string, error) {
	client, err := s.ensureServer(ctx)
	if err != nil {
		s.options.Metrics.FormatRequest(s.tool.Name(), err)
		return "", err
	}
	formatted, err := s.tool.Format(ctx, client, content, file)
	s.options.Metrics.FormatRequest(s.tool.Name(), err)
	if err != nil {
		return "", fmt.Errorf("%s: formatting %s: %w", s.tool.Name(), file, err)
	}
	return formatted, nil
}

// Server returns the running server, or nil before the first
// successful Format.
func (s *Step) Server() *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server
}

func (s *Step) ensureServer(ctx context.Context) (*restclient.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.server != nil {
		if s.server.Process().Alive() {
			return s.client, nil
		}
		s.options.Logger.Warn("formatter server exited, restarting it",
			"step", s.tool.Name(),
			"output", s.server.Process().Result().String(),
		)
		if err := s.server.Close(ctx, nil); err != nil {
			s.options.Logger.Warn("closing exited formatter server failed",
				"step", s.tool.Name(),
				"error", err,
			)
		}
		s.server, s.client = nil, nil
	}

	if s.runtime == nil {
		config, err := s.tool.MaterializeConfig()
		if err != nil {
			return nil, fmt.Errorf("%s: materializing config: %w", s.tool.Name(), err)
		}
		runtime, err := NewRuntime(s.tool.Name(), config, s.locations, s.factory, s.options)
		if err != nil {
			return nil, err
		}
		s.runtime = runtime
	}

	server, err := s.runtime.Start(ctx)
	if err != nil {
		return nil, err
	}
	s.server = server
	s.client = restclient.New(server.BaseURL(), s.options.REST...)
	return s.client, nil
}

// Close shuts the server down, if one was started. Further Format
// calls fail with ErrClosed. Only the first call does anything.
func (s *Step) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.server == nil {
		return nil
	}
	var shutdown func(context.Context) error
	if shutdowner, ok := s.tool.(Shutdowner); ok {
		client := s.client
		shutdown = func(ctx context.Context) error { return shutdowner.Shutdown(ctx, client) }
	}
	return s.server.Close(ctx, shutdown)
}
