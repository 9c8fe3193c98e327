// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
)

// ExitCoder is implemented by errors that carry their own exit code.
// Commands that already printed their output return one to exit
// non-zero without an extra "error:" line.
type ExitCoder interface {
	ExitCode() int
}

// ExitCode reports the code main should exit with for err, writing the
// error to stderr unless it is an ExitCoder.
func ExitCode(stderr io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return 1
}
