// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package installcache

import (
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// recordFile is the entry metadata file inside each entry directory.
const recordFile = "entry.cbor"

// Compression identifies how Record.Log is encoded.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// Record describes a stored entry. It is written as CBOR next to the
// entry's node_modules tree.
type Record struct {
	Key string `cbor:"key"`

	// ConfigDigest is the hex digest of the config the install ran for.
	ConfigDigest string `cbor:"config_digest,omitempty"`

	// CreatedAt is the store time in Unix nanoseconds.
	CreatedAt int64 `cbor:"created_at"`

	Files    int64    `cbor:"files"`
	Bytes    int64    `cbor:"bytes"`
	LinkMode LinkMode `cbor:"link_mode"`

	// Log is the npm install output, compressed with LogCompression.
	// LogSize is its uncompressed length.
	Log            []byte      `cbor:"log,omitempty"`
	LogCompression Compression `cbor:"log_compression,omitempty"`
	LogSize        int         `cbor:"log_size,omitempty"`
}

// Created returns CreatedAt as a time.
func (r Record) Created() time.Time { return time.Unix(0, r.CreatedAt).UTC() }

// InstallLog returns the decompressed install output.
func (r Record) InstallLog() ([]byte, error) {
	switch r.LogCompression {
	case "", CompressionNone:
		return r.Log, nil
	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(r.Log, make([]byte, 0, r.LogSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress install log: %w", err)
		}
		if len(result) != r.LogSize {
			return nil, fmt.Errorf("zstd decompress install log: got %d bytes, expected %d", len(result), r.LogSize)
		}
		return result, nil
	case CompressionLZ4:
		destination := make([]byte, r.LogSize)
		read, err := lz4.UncompressBlock(r.Log, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress install log: %w", err)
		}
		if read != r.LogSize {
			return nil, fmt.Errorf("lz4 decompress install log: got %d bytes, expected %d", read, r.LogSize)
		}
		return destination, nil
	default:
		return nil, fmt.Errorf("unknown install log compression %q", r.LogCompression)
	}
}

// setLog stores log using zstd, falling back to LZ4 and then to no
// compression when neither shrinks it.
func (r *Record) setLog(log []byte) {
	r.LogSize = len(log)
	if len(log) == 0 {
		r.Log, r.LogCompression = nil, CompressionNone
		return
	}
	if compressed := zstdEncoder.EncodeAll(log, nil); len(compressed) < len(log) {
		r.Log, r.LogCompression = compressed, CompressionZstd
		return
	}
	destination := make([]byte, lz4.CompressBlockBound(len(log)))
	written, err := lz4.CompressBlock(log, destination, nil)
	if err == nil && written > 0 && written < len(log) {
		r.Log, r.LogCompression = destination[:written], CompressionLZ4
		return
	}
	r.Log, r.LogCompression = log, CompressionNone
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("installcache: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("installcache: zstd decoder initialization failed: " + err.Error())
	}
}
