// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package npmprocess

import (
	"fmt"
	"strings"
)

// Result is the outcome of a finished process. Stdout and Stderr hold
// the tail of each stream; the Dropped counts are the bytes that fell
// out of the capture buffer before it.
type Result struct {
	Argv          []string
	ExitCode      int
	Stdout        string
	Stderr        string
	StdoutDropped int64
	StderrDropped int64
}

// Command returns the argv joined with spaces.
func (r Result) Command() string { return strings.Join(r.Argv, " ") }

// Output returns stdout followed by stderr.
func (r Result) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// String renders the result as a diagnostic block for error messages.
func (r Result) String() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "> %s\n", r.Command())
	fmt.Fprintf(&builder, "exit code: %d\n", r.ExitCode)
	writeSection(&builder, "stdout", r.Stdout, r.StdoutDropped)
	writeSection(&builder, "stderr", r.Stderr, r.StderrDropped)
	return strings.TrimSuffix(builder.String(), "\n")
}

func writeSection(builder *strings.Builder, name, content string, dropped int64) {
	content = strings.TrimRight(content, "\n")
	if content == "" && dropped == 0 {
		fmt.Fprintf(builder, "%s: (empty)\n", name)
		return
	}
	if dropped > 0 {
		fmt.Fprintf(builder, "%s (%d earlier bytes dropped):\n", name, dropped)
	} else {
		fmt.Fprintf(builder, "%s:\n", name)
	}
	for _, line := range strings.Split(content, "\n") {
		builder.WriteString("  ")
		builder.WriteString(line)
		builder.WriteByte('\n')
	}
}

// ProcessError reports a process that exited with a non-zero code.
type ProcessError struct {
	Result Result
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s exited with code %d\n%s", e.Result.Command(), e.Result.ExitCode, e.Result.String())
}
