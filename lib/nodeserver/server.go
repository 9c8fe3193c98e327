// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nodeserver

import (
	"context"
	"strconv"
	"sync"

	"github.com/bureau-foundation/nodefmt/lib/atomicfile"
	"github.com/bureau-foundation/nodefmt/lib/npmprocess"
)

// Server is a running, ready formatter server.
type Server struct {
	runtime    *Runtime
	port       int
	process    npmprocess.LongRunningProcess
	signalFile string

	closeOnce sync.Once
	closeErr  error
}

// BaseURL is the loopback URL the server listens on.
func (s *Server) BaseURL() string { return "http://127.0.0.1:" + strconv.Itoa(s.port) }

func (s *Server) Port() int                              { return s.port }
func (s *Server) Process() npmprocess.LongRunningProcess { return s.process }
func (s *Server) SignalFile() string                     { return s.signalFile }
func (s *Server) State() State                           { return s.runtime.State() }

// Close stops the server. shutdown, when non-nil, asks the server to
// exit on its own; otherwise it gets SIGTERM. After ShutdownGrace the
// process group is killed. The signal file is always removed.
//
// Only the first call does anything; later calls return its result.
// The error is non-nil only if the process could not be killed.
func (s *Server) Close(ctx context.Context, shutdown func(context.Context) error) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.close(ctx, shutdown)
	})
	return s.closeErr
}

func (s *Server) close(ctx context.Context, shutdown func(context.Context) error) error {
	runtime := s.runtime
	logger := runtime.logger.With("port", s.port)
	runtime.setState(Closing)
	defer runtime.setState(Closed)
	defer func() {
		if err := atomicfile.RemoveIfExists(s.signalFile); err != nil {
			logger.Warn("removing signal file", "path", s.signalFile, "error", err)
		}
	}()

	if s.process.Alive() {
		var err error
		if shutdown != nil {
			err = shutdown(ctx)
		} else {
			err = s.process.Terminate()
		}
		if err != nil {
			logger.Warn("graceful shutdown failed", "error", err)
		}
	}

	if _, exited, _ := s.process.WaitFor(ctx, runtime.options.ShutdownGrace); exited {
		logger.Debug("formatter server exited")
		return nil
	}

	logger.Warn("formatter server did not exit in time, killing it",
		"grace", runtime.options.ShutdownGrace.String(),
	)
	if err := s.process.Kill(); err != nil {
		return err
	}
	<-s.process.Done()
	return nil
}
