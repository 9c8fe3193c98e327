// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package nodeserver prepares a formatter step's working directory,
// starts its Node.js server, and hands out a [Server] once the server
// is listening.
//
// Readiness is a file handshake. The server binds an ephemeral port on
// the loopback interface and writes the port number, as decimal text,
// to the signal file in its working directory. [Runtime.Start] deletes
// any stale signal file, spawns the server, and polls for the file at
// a fixed interval until it parses or the startup timeout elapses. On
// timeout the server is killed before Start returns, so a signal file
// that appears later belongs to no one.
//
// A [Step] binds a [Tool] to a lazily started server: the first Format
// call prepares and starts it, later calls reuse it, and Close shuts it
// down.
package nodeserver
