// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package npmprocess

import (
	"context"
	"errors"
	"sync"

	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
)

// scriptedFactory answers install requests from a queue of outcomes
// and records every preference it was asked for.
type scriptedFactory struct {
	mu          sync.Mutex
	outcomes    []installOutcome
	preferences []OnlinePreference
}

type installOutcome struct {
	result Result
	err    error
	// populate is called with the working directory on success.
	populate func(layout nodelayout.Layout) error
}

func (f *scriptedFactory) Describe() string { return "scripted" }

func (f *scriptedFactory) CreateInstallProcess(layout nodelayout.Layout, locations nodelayout.Locations, preference OnlinePreference) Process {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preferences = append(f.preferences, preference)
	if len(f.outcomes) == 0 {
		return &scriptedProcess{outcome: installOutcome{err: errors.New("unexpected install")}}
	}
	outcome := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	return &scriptedProcess{layout: layout, outcome: outcome}
}

func (f *scriptedFactory) CreateServeProcess(nodelayout.Layout, nodelayout.Locations, string) (LongRunningProcess, error) {
	return nil, errors.New("scripted factory does not serve")
}

func (f *scriptedFactory) calls() []OnlinePreference {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]OnlinePreference(nil), f.preferences...)
}

type scriptedProcess struct {
	layout  nodelayout.Layout
	outcome installOutcome
}

func (p *scriptedProcess) Describe() string { return "scripted install" }

func (p *scriptedProcess) Wait(context.Context) (Result, error) {
	if p.outcome.err == nil && p.outcome.populate != nil {
		if err := p.outcome.populate(p.layout); err != nil {
			return Result{}, err
		}
	}
	return p.outcome.result, p.outcome.err
}

func failure(stdout, stderr string) installOutcome {
	result := Result{Argv: []string{"npm", "install"}, ExitCode: 1, Stdout: stdout, Stderr: stderr}
	return installOutcome{result: result, err: &ProcessError{Result: result}}
}

func success() installOutcome {
	return installOutcome{result: Result{Argv: []string{"npm", "install"}, Stdout: "added 1 package"}}
}
