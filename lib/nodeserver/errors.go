// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nodeserver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bureau-foundation/nodefmt/lib/npmprocess"
)

// ErrClosed is returned by Step.Format after Close.
var ErrClosed = errors.New("formatter step is closed")

// StartupError reports a server that did not become ready. Result
// holds the server's captured output when the process was started.
type StartupError struct {
	Step       string
	WorkingDir string
	Result     *npmprocess.Result
	Err        error
}

func (e *StartupError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "starting %s server in %s: %v", e.Step, e.WorkingDir, e.Err)
	// ProcessError already renders the result.
	var processErr *npmprocess.ProcessError
	if e.Result != nil && !errors.As(e.Err, &processErr) {
		builder.WriteString("\n")
		builder.WriteString(e.Result.String())
	}
	return builder.String()
}

func (e *StartupError) Unwrap() error { return e.Err }

// TimeoutError reports a signal file that did not appear in time.
type TimeoutError struct {
	SignalFile string
	Timeout    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("server did not write %s within %v", e.SignalFile, e.Timeout)
}
