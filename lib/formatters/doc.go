// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package formatters provides the nodeserver.Tool implementations for
// the supported npm formatters: prettier, eslint, and
// typescript-formatter.
//
// Each tool renders a package.json from an embedded template (its
// devDependencies substituted in) and a serve.js built from a shared
// HTTP scaffold plus the tool's handlers. The scaffold listens on an
// ephemeral loopback port, writes the port to the readiness signal
// file, and serves POST /shutdown. The tool handlers live under
// /<tool>/format and return the formatted text as the response body,
// or HTTP 501 with the tool's error message.
//
// Tools are safe for concurrent use once configured; configure the
// exported fields before the first call.
package formatters
