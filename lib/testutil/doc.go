// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for nodefmt packages.
//
// [RequireClosed] wraps the select-with-timeout safety valve so
// individual tests do not call time.After directly, and [WaitForFile]
// polls for a file a child process writes.
//
// [WriteExecutable] writes a shell script with mode 0755. Process tests
// use it to stand in for npm: a script that prints a canned ETARGET
// message, creates node_modules, or writes a readiness file.
//
// [WriteTree] and [ReadTree] materialize and snapshot small directory
// trees as path→content maps so cache round-trip tests can compare
// trees with a single map comparison.
//
// All helpers call t.Fatalf on failure; test setup failures are not
// recoverable.
package testutil
