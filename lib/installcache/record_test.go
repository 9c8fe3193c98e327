// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package installcache

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/pierrec/lz4/v4"
)

func TestSetLogIncompressible(t *testing.T) {
	random := make([]byte, 2048)
	if _, err := rand.Read(random); err != nil {
		t.Fatal(err)
	}
	var record Record
	record.setLog(random)
	if record.LogCompression != CompressionNone {
		t.Errorf("LogCompression = %q, want none for random bytes", record.LogCompression)
	}
	got, err := record.InstallLog()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, random) {
		t.Error("InstallLog does not round-trip uncompressed data")
	}
}

func TestSetLogEmpty(t *testing.T) {
	var record Record
	record.setLog(nil)
	if record.LogCompression != CompressionNone || record.Log != nil || record.LogSize != 0 {
		t.Errorf("record after empty setLog = %+v", record)
	}
}

func TestInstallLogLZ4(t *testing.T) {
	log := bytes.Repeat([]byte("added 42 packages in 3s\n"), 64)
	destination := make([]byte, lz4.CompressBlockBound(len(log)))
	written, err := lz4.CompressBlock(log, destination, nil)
	if err != nil {
		t.Fatal(err)
	}
	record := Record{Log: destination[:written], LogCompression: CompressionLZ4, LogSize: len(log)}
	got, err := record.InstallLog()
	if err != nil {
		t.Fatalf("InstallLog: %v", err)
	}
	if !bytes.Equal(got, log) {
		t.Error("LZ4 install log does not round-trip")
	}
}

func TestInstallLogErrors(t *testing.T) {
	if _, err := (Record{LogCompression: "brotli"}).InstallLog(); err == nil {
		t.Error("unknown compression succeeded")
	}
	if _, err := (Record{Log: []byte("not zstd"), LogCompression: CompressionZstd, LogSize: 8}).InstallLog(); err == nil {
		t.Error("corrupt zstd succeeded")
	}
}
