// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nodelayout

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	"github.com/zeebo/blake3"
)

// Config is the static content materialized into a working directory.
// It is comparable; two Configs are equal when all three texts are.
type Config struct {
	// Manifest is the package.json content with the dependency table
	// already substituted in. Required.
	Manifest string `json:"manifest" cbor:"manifest"`

	// ServeScript is the serve.js bootstrap that starts the HTTP server
	// and writes the readiness file. Optional; a manifest whose start
	// script needs no bootstrap file leaves it empty.
	ServeScript string `json:"serve_script" cbor:"serve_script"`

	// Registry is the .npmrc content. Optional; when empty any existing
	// .npmrc in the working directory is removed.
	Registry string `json:"registry,omitempty" cbor:"registry,omitempty"`
}

// Digest is a BLAKE3 digest of a Config.
type Digest [32]byte

// String returns the lowercase hex encoding.
func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Short returns the first 16 hex characters, used as a directory
// suffix.
func (d Digest) Short() string { return d.String()[:16] }

// configDomainKey separates config digests from any other BLAKE3 use.
var configDomainKey = [32]byte{
	'n', 'o', 'd', 'e', 'f', 'm', 't', '.', 'c', 'o', 'n', 'f', 'i', 'g',
}

// Hash returns the keyed BLAKE3 digest of the three texts. Each text is
// length-prefixed so moving bytes between fields changes the digest.
func (c Config) Hash() Digest {
	hasher, err := blake3.NewKeyed(configDomainKey[:])
	if err != nil {
		panic("nodelayout: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	var length [8]byte
	for _, field := range []string{c.Manifest, c.ServeScript, c.Registry} {
		binary.BigEndian.PutUint64(length[:], uint64(len(field)))
		hasher.Write(length[:])
		hasher.Write([]byte(field))
	}
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

var packageNamePattern = regexp.MustCompile(`"name"\s*:\s*"([^"]+)"`)

// PackageName returns the manifest's "name" property.
func (c Config) PackageName() (string, error) {
	match := packageNamePattern.FindStringSubmatch(c.Manifest)
	if match == nil {
		return "", errors.New("package.json must contain a name property")
	}
	return match[1], nil
}

// Validate reports a missing manifest or a manifest without a name.
func (c Config) Validate() error {
	var errs []error
	if c.Manifest == "" {
		errs = append(errs, errors.New("manifest (package.json) is empty"))
	} else if _, err := c.PackageName(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
