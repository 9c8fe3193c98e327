// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package npmprocess

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/nodefmt/lib/clock"
)

// Process is a one-shot command. Nothing runs until Wait.
type Process interface {
	// Describe names the command for logs and errors.
	Describe() string

	// Wait runs the command to completion. A non-zero exit returns the
	// Result together with a *ProcessError. Cancelling ctx kills the
	// process group and returns ctx.Err().
	Wait(ctx context.Context) (Result, error)
}

// LongRunningProcess is a command that has already been started.
type LongRunningProcess interface {
	Describe() string

	// Alive reports whether the process has not exited yet.
	Alive() bool

	// Kill sends SIGKILL to the process group.
	Kill() error

	// Terminate sends SIGTERM to the process group.
	Terminate() error

	// WaitFor waits up to timeout for the process to exit. The bool is
	// false when the timeout elapsed first.
	WaitFor(ctx context.Context, timeout time.Duration) (Result, bool, error)

	// Result blocks until the process exits.
	Result() Result

	// Done is closed when the process has exited and its output is
	// complete.
	Done() <-chan struct{}
}

// waitDelay bounds how long Wait keeps reading output after the
// process exits, for grandchildren that hold the pipes open.
const waitDelay = 2 * time.Second

// commandSpec describes a process to spawn.
type commandSpec struct {
	argv        []string
	dir         string
	env         []string
	outputLimit int
}

// runningProcess is a started command. Both Process and
// LongRunningProcess are built on it.
type runningProcess struct {
	argv   []string
	cmd    *exec.Cmd
	stdout *RingBuffer
	stderr *RingBuffer
	clock  clock.Clock
	done   chan struct{}
	result Result
}

func spawn(spec commandSpec, clk clock.Clock) (*runningProcess, error) {
	process := &runningProcess{
		argv:   spec.argv,
		stdout: NewRingBuffer(spec.outputLimit),
		stderr: NewRingBuffer(spec.outputLimit),
		clock:  clk,
		done:   make(chan struct{}),
	}

	cmd := exec.Command(spec.argv[0], spec.argv[1:]...)
	cmd.Dir = spec.dir
	cmd.Env = spec.env
	cmd.Stdout = process.stdout
	cmd.Stderr = process.stderr
	cmd.WaitDelay = waitDelay
	// Own process group: signals sent to -pid reach npm and every node
	// process it started.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", describeArgv(spec.argv), err)
	}
	process.cmd = cmd

	go func() {
		cmd.Wait()
		process.result = Result{
			Argv:          process.argv,
			ExitCode:      cmd.ProcessState.ExitCode(),
			Stdout:        process.stdout.String(),
			Stderr:        process.stderr.String(),
			StdoutDropped: process.stdout.Dropped(),
			StderrDropped: process.stderr.Dropped(),
		}
		close(process.done)
	}()
	return process, nil
}

func (p *runningProcess) Describe() string { return describeArgv(p.argv) }

func (p *runningProcess) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *runningProcess) Kill() error      { return p.signal(unix.SIGKILL) }
func (p *runningProcess) Terminate() error { return p.signal(unix.SIGTERM) }

func (p *runningProcess) signal(signal unix.Signal) error {
	if !p.Alive() {
		return nil
	}
	// ESRCH means the group is already gone.
	if err := unix.Kill(-p.cmd.Process.Pid, signal); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("sending %v to %s: %w", signal, p.Describe(), err)
	}
	return nil
}

func (p *runningProcess) WaitFor(ctx context.Context, timeout time.Duration) (Result, bool, error) {
	select {
	case <-p.done:
		return p.result, true, nil
	case <-p.clock.After(timeout):
		return Result{}, false, nil
	case <-ctx.Done():
		return Result{}, false, ctx.Err()
	}
}

func (p *runningProcess) Result() Result {
	<-p.done
	return p.result
}

func (p *runningProcess) Done() <-chan struct{} { return p.done }

// oneShot runs its spec when Wait is called.
type oneShot struct {
	spec  commandSpec
	clock clock.Clock
}

func (o *oneShot) Describe() string { return describeArgv(o.spec.argv) }

func (o *oneShot) Wait(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{Argv: o.spec.argv, ExitCode: -1}, err
	}
	process, err := spawn(o.spec, o.clock)
	if err != nil {
		return Result{Argv: o.spec.argv, ExitCode: -1, Stderr: err.Error()}, err
	}
	select {
	case <-process.done:
	case <-ctx.Done():
		process.Kill()
		<-process.done
		return process.result, ctx.Err()
	}
	if process.result.ExitCode != 0 {
		return process.result, &ProcessError{Result: process.result}
	}
	return process.result, nil
}

func describeArgv(argv []string) string {
	return Result{Argv: argv}.Command()
}
