// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// nodefmt formats files with npm formatters (prettier, eslint,
// typescript-formatter) run as local HTTP servers. Each formatter
// step gets a working directory with its own node_modules, installed
// once and optionally shared between builds through an install cache.
package main

import (
	"os"

	"github.com/bureau-foundation/nodefmt/lib/process"
)

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	os.Exit(process.ExitCode(os.Stderr, app.root().Execute(os.Args[1:])))
}
