// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nodelayout

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// DependenciesPlaceholder is replaced by the rendered dependency table
// in package.json templates.
const DependenciesPlaceholder = "devDependencies"

// Dependencies maps npm package names to version specs.
type Dependencies map[string]string

var (
	packageNameSyntax = regexp.MustCompile(`^(@[a-z0-9-~][a-z0-9-._~]*/)?[a-z0-9-~][a-z0-9-._~]*$`)
	distTagSyntax     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]*$`)
	githubShorthand   = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+(#.+)?$`)
)

// nonRegistryPrefixes are version specs npm resolves without the
// registry's version index.
var nonRegistryPrefixes = []string{
	"npm:", "file:", "link:", "workspace:", "github:", "git:", "git+", "http://", "https://",
}

// Validate checks every package name and version spec, returning all
// problems. A spec is valid if it parses as a semver range or is a dist
// tag, alias, path, URL, or GitHub shorthand.
func (d Dependencies) Validate() error {
	if len(d) == 0 {
		return errors.New("dependency table is empty")
	}
	var errs []error
	for _, name := range d.Names() {
		spec := d[name]
		if !packageNameSyntax.MatchString(name) {
			errs = append(errs, fmt.Errorf("invalid package name %q", name))
		}
		if err := validateSpec(spec); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func validateSpec(spec string) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return errors.New("empty version")
	}
	for _, prefix := range nonRegistryPrefixes {
		if strings.HasPrefix(spec, prefix) {
			return nil
		}
	}
	if _, err := semver.NewConstraint(spec); err == nil {
		return nil
	}
	if distTagSyntax.MatchString(spec) || githubShorthand.MatchString(spec) {
		return nil
	}
	return fmt.Errorf("version %q is neither a semver range nor a tag, alias, path, or URL", spec)
}

// Names returns the package names sorted.
func (d Dependencies) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render formats the table as JSON object members, one per line,
// sorted by package name, without the surrounding braces.
func (d Dependencies) Render() string {
	var builder strings.Builder
	for index, name := range d.Names() {
		if index > 0 {
			builder.WriteString(",\n")
		}
		builder.WriteString("\t\t")
		builder.WriteString(jsonString(name))
		builder.WriteString(": ")
		builder.WriteString(jsonString(d[name]))
	}
	return builder.String()
}

// Substitute replaces each ${key} in template with its value.
func Substitute(template string, values map[string]string) string {
	result := template
	for key, value := range values {
		result = strings.ReplaceAll(result, "${"+key+"}", value)
	}
	return result
}

// SubstituteDependencies renders deps into the ${devDependencies}
// placeholder of a package.json template.
func SubstituteDependencies(template string, deps Dependencies) string {
	return Substitute(template, map[string]string{DependenciesPlaceholder: deps.Render()})
}

func jsonString(s string) string {
	encoded, err := json.Marshal(s)
	if err != nil {
		// Strings always marshal.
		panic(err)
	}
	return string(encoded)
}
