// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package installcache

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// LinkMode records how an entry's files were populated.
type LinkMode string

const (
	LinkModeHardlink LinkMode = "hardlink"
	LinkModeCopy     LinkMode = "copy"
)

// TreeStats summarizes one tree copy.
type TreeStats struct {
	Files int64
	Bytes int64
	Mode  LinkMode
}

// treeCopier replicates a directory tree. It starts out hard linking
// and switches to copying for good after the first link failure.
type treeCopier struct {
	logger  *slog.Logger
	linking bool
	stats   TreeStats
}

func newTreeCopier(logger *slog.Logger) *treeCopier {
	return &treeCopier{logger: logger, linking: true, stats: TreeStats{Mode: LinkModeHardlink}}
}

// copyTree populates destination (created if missing) from source.
// Directories are created owner-writable with the source's permission
// bits. Symlinks are recreated with the same target. Other special
// files are skipped.
func (c *treeCopier) copyTree(source, destination string) error {
	return filepath.WalkDir(source, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		target := filepath.Join(destination, relative)
		info, err := entry.Info()
		if err != nil {
			return err
		}

		switch {
		case entry.IsDir():
			if err := os.MkdirAll(target, info.Mode().Perm()|0o700); err != nil {
				return fmt.Errorf("creating directory %s: %w", target, err)
			}
			return nil
		case entry.Type()&fs.ModeSymlink != 0:
			linkTarget, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("reading symlink %s: %w", path, err)
			}
			if err := os.Symlink(linkTarget, target); err != nil {
				return fmt.Errorf("creating symlink %s: %w", target, err)
			}
			return nil
		case entry.Type().IsRegular():
			return c.copyFile(path, target, info)
		default:
			c.logger.Debug("skipping special file", "path", path, "mode", info.Mode().String())
			return nil
		}
	})
}

func (c *treeCopier) copyFile(source, target string, info fs.FileInfo) error {
	if c.linking {
		err := os.Link(source, target)
		if err == nil {
			c.stats.Files++
			c.stats.Bytes += info.Size()
			return nil
		}
		c.linking = false
		c.stats.Mode = LinkModeCopy
		c.logger.Info("hard links unavailable, copying files instead",
			"reason", linkFailureReason(err),
			"error", err,
		)
	}

	input, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("opening %s: %w", source, err)
	}
	defer input.Close()

	output, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	written, err := io.Copy(output, input)
	if err != nil {
		output.Close()
		return fmt.Errorf("copying %s: %w", source, err)
	}
	if err := output.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", target, err)
	}
	// O_CREATE applies the umask; restore the source mode exactly.
	if err := os.Chmod(target, info.Mode().Perm()); err != nil {
		return fmt.Errorf("setting mode on %s: %w", target, err)
	}
	c.stats.Files++
	c.stats.Bytes += written
	return nil
}
