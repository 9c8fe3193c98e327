// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package npmprocess spawns npm in a step's working directory.
//
// A [Factory] produces two kinds of process: a one-shot install
// ([Process]) and the long-running formatter server
// ([LongRunningProcess]). [Standard] runs npm directly. [Caching]
// wraps another factory and satisfies installs from an
// [installcache.Cache] when an entry for the working directory exists.
//
// Every process runs in its own process group so that killing it also
// kills the node children npm spawns. Output is kept in fixed-size
// [RingBuffer]s; only the tail of a noisy install survives.
//
// [Installer.Install] implements the install policy: try offline
// first, and retry exactly once online when npm reports a version or
// dependency-tree resolution failure, which usually means the local
// npm cache is stale.
package npmprocess
