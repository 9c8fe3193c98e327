// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds nodefmt's CBOR configuration.
//
// JSON is the format for everything that crosses a process boundary to
// the Node.js server (request bodies, the readiness file is plain
// text). CBOR is the format for records nodefmt writes for itself, such
// as the install cache's entry.cbor. The encoder uses Core
// Deterministic Encoding (RFC 8949 §4.2) so the same record always
// serializes to the same bytes, which keeps cache entries comparable
// across machines sharing a cache directory.
//
// Types that are only ever stored as CBOR use `cbor` struct tags.
package codec
