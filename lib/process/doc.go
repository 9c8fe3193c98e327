// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process maps the error a binary's command returned to the
// exit code its main function passes to os.Exit.
package process
