// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads nodefmt's configuration file.
//
// Configuration comes from a single YAML file named by the
// NODEFMT_CONFIG environment variable or the --config flag. Values the
// file does not set keep the defaults from [Default]. Environment
// variables never override individual values; the only expansion is
// ${VAR} and ${VAR:-default} inside path fields.
//
// The file may carry a "ci" section whose non-empty values override the
// base when environment is "ci". CI machines typically share one cache
// directory between concurrent builds and want unique signal files.
package config
