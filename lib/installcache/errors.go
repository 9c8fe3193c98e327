// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package installcache

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ErrInvalidKey is returned for keys that are empty, hidden, or would
// escape the cache root.
var ErrInvalidKey = errors.New("invalid cache key")

// linkFailureReason names why os.Link failed, for the log line that
// announces the switch to copying.
func linkFailureReason(err error) string {
	switch {
	case errors.Is(err, unix.EXDEV):
		return "cross-device"
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES):
		return "not permitted"
	case errors.Is(err, unix.ENOTSUP), errors.Is(err, unix.EOPNOTSUPP):
		return "not supported"
	case errors.Is(err, unix.EMLINK):
		return "too many links"
	default:
		return "link failed"
	}
}

// renameLostRace reports whether a failed rename means another writer
// already put a directory at the destination.
func renameLostRace(err error) bool {
	return errors.Is(err, unix.EEXIST) || errors.Is(err, unix.ENOTEMPTY)
}

// renameUnsupported reports whether the filesystem cannot rename a
// directory into the cache root at all.
func renameUnsupported(err error) bool {
	return errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EOPNOTSUPP) ||
		errors.Is(err, unix.EXDEV) || errors.Is(err, unix.EINVAL)
}
