// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"context"
	"embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
	"github.com/bureau-foundation/nodefmt/lib/nodeserver"
	"github.com/bureau-foundation/nodefmt/lib/restclient"
)

var (
	_ nodeserver.Tool       = (*Prettier)(nil)
	_ nodeserver.Shutdowner = (*Prettier)(nil)
	_ nodeserver.Tool       = (*Eslint)(nil)
	_ nodeserver.Shutdowner = (*Eslint)(nil)
	_ nodeserver.Tool       = (*TsFmt)(nil)
	_ nodeserver.Shutdowner = (*TsFmt)(nil)
)

//go:embed templates
var templateFiles embed.FS

// ShutdownEndpoint is served by every tool's serve.js.
const ShutdownEndpoint = "/shutdown"

// Tool kinds, as named in step definitions.
const (
	KindPrettier = "prettier"
	KindEslint   = "eslint"
	KindTsFmt    = "tsfmt"
)

var (
	commonServe string
	manifests   = map[string]string{}
	serveScript = map[string]string{}
)

func init() {
	common, err := templateFiles.ReadFile("templates/common-serve.js")
	if err != nil {
		panic("formatters: template initialization failed: " + err.Error())
	}
	commonServe = string(common)
	for _, kind := range []string{KindPrettier, KindEslint, KindTsFmt} {
		manifest, err := templateFiles.ReadFile("templates/" + kind + "-package.json")
		if err != nil {
			panic("formatters: template initialization failed: " + err.Error())
		}
		serve, err := templateFiles.ReadFile("templates/" + kind + "-serve.js")
		if err != nil {
			panic("formatters: template initialization failed: " + err.Error())
		}
		manifests[kind] = string(manifest)
		serveScript[kind] = string(serve)
	}
}

// ManifestTemplate returns the embedded package.json template for kind,
// with its ${name} and ${devDependencies} placeholders intact.
func ManifestTemplate(kind string) (string, bool) {
	template, ok := manifests[kind]
	return template, ok
}

var packageNameUnsafe = regexp.MustCompile(`[^a-z0-9._-]+`)

// packageName turns a step name into a valid npm package name.
func packageName(stepName string) string {
	name := packageNameUnsafe.ReplaceAllString(strings.ToLower(stepName), "-")
	name = strings.Trim(name, "-._")
	if name == "" {
		name = "step"
	}
	return "nodefmt-" + name
}

// materialize renders the working directory files for one tool.
func materialize(kind, stepName string, deps nodelayout.Dependencies, registry string) (nodelayout.Config, error) {
	if err := deps.Validate(); err != nil {
		return nodelayout.Config{}, fmt.Errorf("%s: dependencies: %w", stepName, err)
	}
	config := nodelayout.Config{
		Manifest: nodelayout.Substitute(manifests[kind], map[string]string{
			"name":                             packageName(stepName),
			nodelayout.DependenciesPlaceholder: deps.Render(),
		}),
		ServeScript: commonServe + "\n" + serveScript[kind],
		Registry:    registry,
	}
	if err := config.Validate(); err != nil {
		return nodelayout.Config{}, fmt.Errorf("%s: %w", stepName, err)
	}
	return config, nil
}

// requestShutdown asks a tool server to exit.
func requestShutdown(ctx context.Context, client *restclient.Client) error {
	if _, err := client.PostJSON(ctx, ShutdownEndpoint, nil); err != nil {
		return fmt.Errorf("requesting shutdown: %w", err)
	}
	return nil
}

// withDefaults returns deps, or defaults when deps is empty.
func withDefaults(deps nodelayout.Dependencies, defaults func() nodelayout.Dependencies) nodelayout.Dependencies {
	if len(deps) == 0 {
		return defaults()
	}
	return deps
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
