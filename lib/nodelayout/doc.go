// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package nodelayout describes a formatter step's private working
// directory: what goes into it ([Config]), where each file lives
// ([Layout]), and which npm and node binaries operate on it
// ([Locations]).
//
// Everything here is a value. A Layout is computed from a base
// directory, a step name, and a suffix; the same inputs always produce
// the same paths. [ForConfig] derives the suffix from the Config's
// BLAKE3 digest, so two steps with the same name but different
// dependency tables land in different directories:
//
//	<build>/prettier-node-modules-3f9a0c1d2e4b5a69/
//	    package.json
//	    serve.js
//	    .npmrc            (only when the config has registry content)
//	    node_modules/     (created by npm install)
//	    server.port       (written by the running server)
//
// The directory's leaf name doubles as the install cache key.
package nodelayout
