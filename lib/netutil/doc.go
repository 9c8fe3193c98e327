// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil bounds HTTP response reads from the formatter
// servers. A misbehaving Node.js server must not be able to exhaust
// memory in the orchestrating process, so every body read goes through
// [ReadResponse] or [ErrorBody], both capped at [MaxResponseSize].
package netutil
