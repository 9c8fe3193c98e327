// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command tree framework for the nodefmt binary:
// nested commands with pflag flag sets, structured help, typo
// suggestions for commands and flags, and exit-code errors.
package cli
