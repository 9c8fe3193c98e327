// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"sort"

	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
	"github.com/bureau-foundation/nodefmt/lib/restclient"
)

const (
	// EslintStepName is the default step name for eslint.
	EslintStepName = "eslint-format"

	// DefaultEslintVersion is the eslint version used by the default
	// dependency tables.
	DefaultEslintVersion = "^8.45.0"
)

// DefaultEslintDependencies returns the devDependencies used when an
// Eslint has none configured and no TypeScriptConfigDir.
func DefaultEslintDependencies() nodelayout.Dependencies {
	return nodelayout.Dependencies{"eslint": DefaultEslintVersion}
}

// DefaultEslintTypeScriptDependencies adds the typescript-eslint parser
// and plugin to the defaults.
func DefaultEslintTypeScriptDependencies() nodelayout.Dependencies {
	return nodelayout.Dependencies{
		"@typescript-eslint/eslint-plugin": "^6.1.0",
		"@typescript-eslint/parser":        "^6.1.0",
		"typescript":                       "^5.1.6",
		"eslint":                           DefaultEslintVersion,
	}
}

var styleGuides = map[string]nodelayout.Dependencies{
	"standard-with-typescript": {
		"eslint-config-standard-with-typescript": "^36.1.0",
		"eslint-plugin-import":                   "^2.27.5",
		"eslint-plugin-n":                        "^16.0.1",
		"eslint-plugin-promise":                  "^6.1.1",
		"typescript":                             "^5.1.6",
	},
	"xo-typescript": {
		"eslint-config-xo":            "^0.43.1",
		"eslint-config-xo-typescript": "^1.0.0",
		"typescript":                  "^5.1.6",
	},
	"airbnb": {
		"eslint-config-airbnb-base": "^15.0.0",
		"eslint-plugin-import":      "^2.27.5",
	},
	"google": {
		"eslint-config-google": "^0.14.0",
	},
	"standard": {
		"eslint-config-standard": "^17.1.0",
		"eslint-plugin-import":   "^2.27.5",
		"eslint-plugin-n":        "^16.0.1",
		"eslint-plugin-promise":  "^6.1.1",
	},
	"xo": {
		"eslint-config-xo": "^0.43.1",
	},
}

// StyleGuides returns the names of the known eslint style guides.
func StyleGuides() []string {
	names := make([]string, 0, len(styleGuides))
	for name := range styleGuides {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StyleGuideDependencies returns the packages a style guide needs.
func StyleGuideDependencies(name string) (nodelayout.Dependencies, bool) {
	deps, ok := styleGuides[name]
	if !ok {
		return nil, false
	}
	return maps.Clone(deps), true
}

// Eslint formats with eslint --fix.
//
// ConfigFile is passed to eslint as its override config file and
// ConfigJS as an inline override config (a JavaScript object literal).
// TypeScriptConfigDir, when set, becomes the parser's tsconfigRootDir.
// StyleGuide adds the packages of a known style guide to Dependencies.
type Eslint struct {
	StepName            string
	Dependencies        nodelayout.Dependencies
	StyleGuide          string
	ConfigFile          string
	ConfigJS            string
	TypeScriptConfigDir string
	Registry            string
}

func (e *Eslint) Name() string { return nameOr(e.StepName, EslintStepName) }

func (e *Eslint) MaterializeConfig() (nodelayout.Config, error) {
	deps, err := e.dependencies()
	if err != nil {
		return nodelayout.Config{}, err
	}
	return materialize(KindEslint, e.Name(), deps, e.Registry)
}

func (e *Eslint) dependencies() (nodelayout.Dependencies, error) {
	defaults := DefaultEslintDependencies
	if e.TypeScriptConfigDir != "" {
		defaults = DefaultEslintTypeScriptDependencies
	}
	deps := maps.Clone(withDefaults(e.Dependencies, defaults))
	if e.StyleGuide != "" {
		guide, ok := styleGuides[e.StyleGuide]
		if !ok {
			return nil, fmt.Errorf("%s: unknown eslint style guide %q (known: %v)", e.Name(), e.StyleGuide, StyleGuides())
		}
		for name, spec := range guide {
			if _, pinned := deps[name]; !pinned {
				deps[name] = spec
			}
		}
	}
	return deps, nil
}

func (e *Eslint) Format(ctx context.Context, client *restclient.Client, content, file string) (string, error) {
	absoluteFile, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", file, err)
	}
	request := map[string]any{
		"file_content": content,
		"file_path":    absoluteFile,
	}
	if e.ConfigFile != "" {
		configPath, err := filepath.Abs(e.ConfigFile)
		if err != nil {
			return "", fmt.Errorf("resolving eslint config path: %w", err)
		}
		request["eslint_override_config_file"] = configPath
	}
	if e.ConfigJS != "" {
		request["eslint_override_config"] = e.ConfigJS
	}
	if e.TypeScriptConfigDir != "" {
		rootDir, err := filepath.Abs(e.TypeScriptConfigDir)
		if err != nil {
			return "", fmt.Errorf("resolving tsconfig root: %w", err)
		}
		request["ts_config_root_dir"] = rootDir
	}
	return client.PostJSON(ctx, "/eslint/format", request)
}

func (e *Eslint) Shutdown(ctx context.Context, client *restclient.Client) error {
	return requestShutdown(ctx, client)
}
