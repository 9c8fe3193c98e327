// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
	"github.com/bureau-foundation/nodefmt/lib/restclient"
)

// PrettierStepName is the default step name for prettier.
const PrettierStepName = "prettier-format"

// DefaultPrettierDependencies returns the devDependencies used when a
// Prettier has none configured.
func DefaultPrettierDependencies() nodelayout.Dependencies {
	return nodelayout.Dependencies{"prettier": "2.8.8"}
}

// Prettier formats with prettier.
//
// Options are prettier options applied to every file. When ConfigFile
// is set the server resolves it once per server and Options override
// the values it contains. The file path is passed as the "filepath"
// option so prettier can infer a parser, unless Options already set one.
type Prettier struct {
	StepName     string
	Dependencies nodelayout.Dependencies
	Options      map[string]any
	ConfigFile   string

	// Registry is the .npmrc content for the install, if any.
	Registry string

	mu           sync.Mutex
	resolvedFor  *restclient.Client
	resolvedJSON map[string]any
}

func (p *Prettier) Name() string { return nameOr(p.StepName, PrettierStepName) }

func (p *Prettier) MaterializeConfig() (nodelayout.Config, error) {
	return materialize(KindPrettier, p.Name(), withDefaults(p.Dependencies, DefaultPrettierDependencies), p.Registry)
}

func (p *Prettier) Format(ctx context.Context, client *restclient.Client, content, file string) (string, error) {
	options, err := p.options(ctx, client)
	if err != nil {
		return "", err
	}
	if _, set := options["filepath"]; !set && file != "" {
		options["filepath"] = file
	}
	formatted, err := client.PostJSON(ctx, "/prettier/format", map[string]any{
		"file_content":   content,
		"config_options": options,
	})
	if err != nil {
		return "", classifyPrettierError(file, err)
	}
	return formatted, nil
}

func (p *Prettier) Shutdown(ctx context.Context, client *restclient.Client) error {
	return requestShutdown(ctx, client)
}

// options returns a fresh copy of the effective options for client's
// server, resolving ConfigFile on first use.
func (p *Prettier) options(ctx context.Context, client *restclient.Client) (map[string]any, error) {
	if p.ConfigFile == "" {
		options := make(map[string]any, len(p.Options)+1)
		maps.Copy(options, p.Options)
		return options, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolvedFor != client {
		configPath, err := filepath.Abs(p.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("resolving prettier config path: %w", err)
		}
		response, err := client.PostJSON(ctx, "/prettier/config-options", map[string]any{
			"prettier_config_path":    configPath,
			"prettier_config_options": p.Options,
		})
		if err != nil {
			return nil, fmt.Errorf("resolving prettier config %s: %w", configPath, err)
		}
		var resolved map[string]any
		if err := json.Unmarshal([]byte(response), &resolved); err != nil {
			return nil, fmt.Errorf("decoding resolved prettier config %s: %w", configPath, err)
		}
		p.resolvedFor = client
		p.resolvedJSON = resolved
	}
	options := make(map[string]any, len(p.resolvedJSON)+1)
	maps.Copy(options, p.resolvedJSON)
	return options, nil
}

// MissingParserError means prettier had no parser for the file type,
// which usually means a plugin is missing from the dependencies.
// Plugin is a likely candidate, or empty.
type MissingParserError struct {
	File   string
	Plugin string
	Err    error
}

func (e *MissingParserError) Error() string {
	message := fmt.Sprintf("prettier could not infer a parser for %s; a prettier plugin may be missing from the dependencies", e.File)
	if e.Plugin != "" {
		message += fmt.Sprintf(" (try %q)", e.Plugin)
	}
	return message + ": " + e.Err.Error()
}

func (e *MissingParserError) Unwrap() error { return e.Err }

func classifyPrettierError(file string, err error) error {
	var responseErr *restclient.ResponseError
	if errors.As(err, &responseErr) && strings.Contains(responseErr.Body, "No parser could be inferred") {
		return &MissingParserError{File: file, Plugin: SuggestPrettierPlugin(file), Err: err}
	}
	return err
}

var prettierPlugins = func() map[string]string {
	plugins := map[string]string{
		".php":      "@prettier/plugin-php",
		".pug":      "@prettier/plugin-pug",
		".rb":       "@prettier/plugin-ruby",
		".xml":      "@prettier/plugin-xml",
		".trigger":  "prettier-plugin-apex",
		".cls":      "prettier-plugin-apex",
		".html.erb": "prettier-plugin-erb",
		".kt":       "prettier-plugin-kotlin",
		".mo":       "prettier-plugin-motoko",
		".sol":      "prettier-plugin-solidity",
	}
	for _, extension := range []string{".glsl", ".frag", ".vert", ".geom", ".tesc", ".tese", ".shader", ".fsh", ".vsh"} {
		plugins[extension] = "prettier-plugin-glsl"
	}
	for _, extension := range []string{".nginx", ".nginxconf"} {
		plugins[extension] = "prettier-plugin-nginx"
	}
	for _, extension := range []string{".gohtml", ".gotmpl", ".go.html", ".go.tmpl", ".tmpl", ".tpl", ".html.tmpl", ".html.tpl"} {
		plugins[extension] = "prettier-plugin-go-template"
	}
	for _, name := range []string{"astro", "elm", "java", "jsonata", "prisma", "properties", "sh", "sql", "svelte", "toml"} {
		plugins["."+name] = "prettier-plugin-" + name
	}
	return plugins
}()

// SuggestPrettierPlugin guesses the plugin that formats file, matching
// the longest known extension. It returns "" when nothing matches.
func SuggestPrettierPlugin(file string) string {
	base := strings.ToLower(filepath.Base(file))
	best, bestLength := "", 0
	for extension, plugin := range prettierPlugins {
		if strings.HasSuffix(base, extension) && len(extension) > bestLength {
			best, bestLength = plugin, len(extension)
		}
	}
	return best
}
