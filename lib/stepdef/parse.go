// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package stepdef reads formatter step definitions: JSONC files (JSON
// with comments and trailing commas) naming a tool, its npm
// dependencies, and its options.
//
//	// prettier.jsonc
//	{
//	    "tool": "prettier",
//	    "dependencies": {"prettier": "^3.0.0"},
//	    "options": {"printWidth": 100},
//	    "registry_file": ".npmrc",
//	}
//
// The typical flow is Load (or Parse then Validate) followed by
// Definition.Tool, which builds the nodeserver.Tool the step runs.
package stepdef

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/nodefmt/lib/formatters"
	"github.com/bureau-foundation/nodefmt/lib/nodeserver"
)

// Definition is one step definition file.
type Definition struct {
	// Name is the step name. It prefixes the working directory; Load
	// defaults it to the file name.
	Name string `json:"name,omitempty"`

	// Kind is "prettier", "eslint", or "tsfmt".
	Kind string `json:"tool"`

	// Dependencies are the npm devDependencies. Empty selects the
	// tool's defaults.
	Dependencies map[string]string `json:"dependencies,omitempty"`

	// Options are prettier options, or inline typescript-formatter
	// settings. Not valid for eslint.
	Options map[string]any `json:"options,omitempty"`

	// ConfigFile is the tool's own config file, relative to the
	// definition's directory.
	ConfigFile string `json:"config_file,omitempty"`

	// RegistryFile is an .npmrc whose content is written into the
	// working directory, relative to the definition's directory.
	RegistryFile string `json:"registry_file,omitempty"`

	// Eslint only.
	StyleGuide          string `json:"style_guide,omitempty"`
	ConfigJS            string `json:"config_js,omitempty"`
	TypeScriptConfigDir string `json:"typescript_config_dir,omitempty"`

	// Tsfmt only: tsconfig, tslint, tsfmt, or vscode.
	ConfigKind string `json:"config_kind,omitempty"`
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result. Unknown fields are errors.
func Parse(data []byte) (*Definition, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()

	var definition Definition
	if err := decoder.Decode(&definition); err != nil {
		return nil, fmt.Errorf("parsing step definition: %w", err)
	}
	return &definition, nil
}

// Load reads, parses, and validates a step definition file. An empty
// name defaults to the file name without its extension.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	definition, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if definition.Name == "" {
		definition.Name = NameFromPath(path)
	}
	if issues := Validate(definition); len(issues) > 0 {
		return nil, fmt.Errorf("%s: %w", path, issuesError(issues))
	}
	return definition, nil
}

// NameFromPath strips the directory and extension from path:
// "format/prettier.jsonc" returns "prettier".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func issuesError(issues []string) error {
	errs := make([]error, len(issues))
	for index, issue := range issues {
		errs[index] = errors.New(issue)
	}
	return errors.Join(errs...)
}

// Tool builds the formatter the definition describes. Relative paths
// resolve against baseDir, normally the definition file's directory.
// The registry file is read here.
func (d *Definition) Tool(baseDir string) (nodeserver.Tool, error) {
	if issues := Validate(d); len(issues) > 0 {
		return nil, issuesError(issues)
	}
	registry, err := d.readRegistry(baseDir)
	if err != nil {
		return nil, err
	}
	configFile := resolve(baseDir, d.ConfigFile)

	switch d.Kind {
	case formatters.KindPrettier:
		return &formatters.Prettier{
			StepName:     d.Name,
			Dependencies: d.Dependencies,
			Options:      d.Options,
			ConfigFile:   configFile,
			Registry:     registry,
		}, nil
	case formatters.KindEslint:
		return &formatters.Eslint{
			StepName:            d.Name,
			Dependencies:        d.Dependencies,
			StyleGuide:          d.StyleGuide,
			ConfigFile:          configFile,
			ConfigJS:            d.ConfigJS,
			TypeScriptConfigDir: resolve(baseDir, d.TypeScriptConfigDir),
			Registry:            registry,
		}, nil
	default:
		return &formatters.TsFmt{
			StepName:     d.Name,
			Dependencies: d.Dependencies,
			Options:      d.Options,
			ConfigFile:   configFile,
			ConfigKind:   formatters.TsFmtConfigKind(d.ConfigKind),
			Registry:     registry,
		}, nil
	}
}

func (d *Definition) readRegistry(baseDir string) (string, error) {
	if d.RegistryFile == "" {
		return "", nil
	}
	path := resolve(baseDir, d.RegistryFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading registry file: %w", err)
	}
	return string(data), nil
}

func resolve(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
