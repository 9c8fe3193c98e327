// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package installcache

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/bureau-foundation/nodefmt/lib/atomicfile"
	"github.com/bureau-foundation/nodefmt/lib/clock"
	"github.com/bureau-foundation/nodefmt/lib/codec"
	"github.com/bureau-foundation/nodefmt/lib/metrics"
)

// modulesDir is the tree stored in each entry.
const modulesDir = "node_modules"

// Options configures a Cache. Zero fields take defaults.
type Options struct {
	Logger  *slog.Logger
	Clock   clock.Clock
	Metrics *metrics.Metrics
}

// Cache is an install cache rooted at a directory. A Cache holds no
// mutable state and is safe for concurrent use, including by several
// processes sharing the same root.
type Cache struct {
	root    string
	logger  *slog.Logger
	clock   clock.Clock
	metrics *metrics.Metrics
}

// Open returns the cache at root, creating the directory if needed.
func Open(root string, options Options) (*Cache, error) {
	if root == "" {
		return nil, fmt.Errorf("cache root is required")
	}
	absolute, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving cache root %s: %w", root, err)
	}
	if err := os.MkdirAll(absolute, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache root: %w", err)
	}
	info, err := os.Stat(absolute)
	if err != nil {
		return nil, fmt.Errorf("checking cache root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cache root %s is not a directory", absolute)
	}

	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	return &Cache{
		root:    absolute,
		logger:  options.Logger.With("cache_root", absolute),
		clock:   options.Clock,
		metrics: options.Metrics,
	}, nil
}

// Root returns the absolute cache root.
func (c *Cache) Root() string { return c.root }

// EntryInfo is optional metadata stored with an entry.
type EntryInfo struct {
	ConfigDigest string
	InstallLog   []byte
}

// AddEntry stores sourceDir under key. It is AddEntryWithInfo without
// metadata.
func (c *Cache) AddEntry(key, sourceDir string) error {
	return c.AddEntryWithInfo(key, sourceDir, EntryInfo{})
}

// AddEntryWithInfo stores a copy of the sourceDir tree under key. An
// existing entry is left untouched. The only error returned is
// ErrInvalidKey; store failures are logged and swallowed.
func (c *Cache) AddEntryWithInfo(key, sourceDir string, info EntryInfo) error {
	if err := validateKey(key); err != nil {
		return err
	}
	logger := c.logger.With("key", key)
	if c.EntryExists(key) {
		logger.Debug("cache entry already present, not storing")
		return nil
	}

	temporary := filepath.Join(c.root, "."+key+".tmp-"+uuid.NewString())
	if err := os.Mkdir(temporary, 0o755); err != nil {
		c.storeFailed(logger, "creating temporary entry directory", err)
		return nil
	}
	defer func() {
		if err := os.RemoveAll(temporary); err != nil {
			logger.Warn("removing temporary entry directory", "path", temporary, "error", err)
		}
	}()

	copier := newTreeCopier(logger)
	if err := copier.copyTree(sourceDir, filepath.Join(temporary, modulesDir)); err != nil {
		c.storeFailed(logger, "populating entry", err)
		return nil
	}

	record := Record{
		Key:          key,
		ConfigDigest: info.ConfigDigest,
		CreatedAt:    c.clock.Now().UnixNano(),
		Files:        copier.stats.Files,
		Bytes:        copier.stats.Bytes,
		LinkMode:     copier.stats.Mode,
	}
	record.setLog(info.InstallLog)
	data, err := codec.Marshal(record)
	if err != nil {
		c.storeFailed(logger, "encoding entry record", err)
		return nil
	}
	if err := atomicfile.WriteFile(filepath.Join(temporary, recordFile), data, 0o644); err != nil {
		c.storeFailed(logger, "writing entry record", err)
		return nil
	}

	final := c.entryDir(key)
	if err := os.Rename(temporary, final); err != nil {
		switch {
		case renameLostRace(err):
			logger.Debug("another writer stored the entry first")
		case renameUnsupported(err):
			c.storeFailed(logger, "atomic rename not supported by the cache filesystem, skipping", err)
		default:
			c.storeFailed(logger, "moving entry into place", err)
		}
		return nil
	}
	atomicfile.SyncDir(c.root)

	logger.Info("stored install cache entry",
		"files", record.Files,
		"bytes", record.Bytes,
		"link_mode", string(record.LinkMode),
	)
	return nil
}

func (c *Cache) storeFailed(logger *slog.Logger, message string, err error) {
	c.metrics.CacheStoreFailed()
	logger.Warn(message, "error", err)
}

// CopyEntryInto populates targetDir from the entry's node_modules
// tree. A non-empty targetDir is deleted first.
func (c *Cache) CopyEntryInto(key, targetDir string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	source := filepath.Join(c.entryDir(key), modulesDir)
	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("reading cache entry %s: %w", key, err)
	}

	if names, err := readDirNames(targetDir); err == nil && len(names) > 0 {
		c.logger.Warn("target directory is not empty, deleting it before restoring from cache",
			"key", key,
			"target", targetDir,
		)
		if err := os.RemoveAll(targetDir); err != nil {
			return fmt.Errorf("clearing %s: %w", targetDir, err)
		}
	}

	copier := newTreeCopier(c.logger.With("key", key))
	if err := copier.copyTree(source, targetDir); err != nil {
		return fmt.Errorf("restoring cache entry %s into %s: %w", key, targetDir, err)
	}
	return nil
}

// EntryExists reports whether key has a complete entry.
func (c *Cache) EntryExists(key string) bool {
	if validateKey(key) != nil {
		return false
	}
	info, err := os.Stat(c.entryDir(key))
	return err == nil && info.IsDir()
}

// Entry returns the record stored with key. The error wraps
// fs.ErrNotExist when no entry exists.
func (c *Cache) Entry(key string) (Record, error) {
	if err := validateKey(key); err != nil {
		return Record{}, err
	}
	data, err := c.RawEntry(key)
	if err != nil {
		return Record{}, err
	}
	var record Record
	if err := codec.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return record, nil
}

// RawEntry returns the undecoded CBOR record of key.
func (c *Cache) RawEntry(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(c.entryDir(key), recordFile))
	if err != nil {
		return nil, fmt.Errorf("reading cache entry %s: %w", key, err)
	}
	return data, nil
}

// List returns the records of all complete entries sorted by key.
// Temporary directories and entries with unreadable records are
// skipped.
func (c *Cache) List() ([]Record, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, fmt.Errorf("listing cache root: %w", err)
	}
	var records []Record
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		record, err := c.Entry(entry.Name())
		if err != nil {
			c.logger.Debug("skipping cache entry without a readable record", "key", entry.Name(), "error", err)
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records, nil
}

func (c *Cache) entryDir(key string) string { return filepath.Join(c.root, key) }

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.HasPrefix(key, ".") ||
		strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func readDirNames(path string) ([]string, error) {
	handle, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer handle.Close()
	// io.EOF on an empty directory leaves names empty.
	names, _ := handle.Readdirnames(1)
	return names, nil
}
