// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package installcache keeps completed node_modules trees on local disk
// so a working directory with the same key can be populated without
// running npm install.
//
// Entries live directly under the cache root:
//
//	<root>/<key>/node_modules/...
//	<root>/<key>/entry.cbor
//
// An entry becomes visible only by renaming a fully populated
// temporary directory (.<key>.tmp-<uuid>) into place, so a reader
// that sees <root>/<key> sees a complete tree. When two processes
// store the same key, the second rename fails with EEXIST or ENOTEMPTY
// and the loser discards its copy.
//
// Trees are populated with hard links when the filesystem allows it.
// The first link failure switches the rest of that copy to byte
// copies. Storing is best effort: failures are logged and counted but
// never returned, because a missing cache entry only costs a later
// install.
package installcache
