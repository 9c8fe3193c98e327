// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stepdef

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bureau-foundation/nodefmt/lib/formatters"
	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
)

var tools = []string{formatters.KindPrettier, formatters.KindEslint, formatters.KindTsFmt}

// Validate checks a Definition and returns every issue found. An empty
// list means the definition is usable.
//
//   - tool is required and must be prettier, eslint, or tsfmt
//   - name, when set, must not be blank
//   - dependencies must have valid package names and version specs
//   - options are not accepted by eslint
//   - style_guide, config_js, and typescript_config_dir are eslint only
//   - style_guide must be a known guide
//   - config_kind is tsfmt only and must be a known kind
func Validate(definition *Definition) []string {
	var issues []string

	switch {
	case definition.Kind == "":
		issues = append(issues, fmt.Sprintf("tool is required (one of %s)", strings.Join(tools, ", ")))
	case !slices.Contains(tools, definition.Kind):
		issues = append(issues, fmt.Sprintf("tool %q is not one of %s", definition.Kind, strings.Join(tools, ", ")))
	}

	if definition.Name != "" && strings.TrimSpace(definition.Name) == "" {
		issues = append(issues, "name must not be blank")
	}

	if len(definition.Dependencies) > 0 {
		if err := nodelayout.Dependencies(definition.Dependencies).Validate(); err != nil {
			for _, line := range strings.Split(err.Error(), "\n") {
				issues = append(issues, "dependencies: "+line)
			}
		}
	}

	isEslint := definition.Kind == formatters.KindEslint
	if isEslint && len(definition.Options) > 0 {
		issues = append(issues, "options are not supported by eslint (use config_file or config_js)")
	}
	for field, value := range map[string]string{
		"style_guide":           definition.StyleGuide,
		"config_js":             definition.ConfigJS,
		"typescript_config_dir": definition.TypeScriptConfigDir,
	} {
		if value != "" && !isEslint {
			issues = append(issues, fmt.Sprintf("%s is only valid for eslint", field))
		}
	}
	if isEslint && definition.StyleGuide != "" {
		if _, known := formatters.StyleGuideDependencies(definition.StyleGuide); !known {
			issues = append(issues, fmt.Sprintf("style_guide %q is not one of %s",
				definition.StyleGuide, strings.Join(formatters.StyleGuides(), ", ")))
		}
	}

	if definition.ConfigKind != "" {
		if definition.Kind != formatters.KindTsFmt {
			issues = append(issues, "config_kind is only valid for tsfmt")
		} else if !formatters.TsFmtConfigKind(definition.ConfigKind).Valid() {
			issues = append(issues, fmt.Sprintf("config_kind %q is not one of tsconfig, tslint, tsfmt, vscode", definition.ConfigKind))
		}
	}

	slices.Sort(issues)
	return issues
}
