// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
	"github.com/bureau-foundation/nodefmt/lib/restclient"
)

// TsFmtStepName is the default step name for typescript-formatter.
const TsFmtStepName = "tsfmt-format"

// DefaultTsFmtDependencies returns the devDependencies used when a
// TsFmt has none configured.
func DefaultTsFmtDependencies() nodelayout.Dependencies {
	return nodelayout.Dependencies{
		"typescript-formatter": "7.2.2",
		"typescript":           "3.9.10",
		"tslint":               "6.1.3",
	}
}

// TsFmtConfigKind names the kind of file TsFmt.ConfigFile is. Each
// kind maps to a typescript-formatter option pair: the flag enabling
// the source and the option naming its file.
type TsFmtConfigKind string

const (
	TsFmtConfigTsConfig TsFmtConfigKind = "tsconfig"
	TsFmtConfigTsLint   TsFmtConfigKind = "tslint"
	TsFmtConfigTsFmt    TsFmtConfigKind = "tsfmt"
	TsFmtConfigVSCode   TsFmtConfigKind = "vscode"
)

// Valid reports whether k is a known kind.
func (k TsFmtConfigKind) Valid() bool {
	switch k {
	case TsFmtConfigTsConfig, TsFmtConfigTsLint, TsFmtConfigTsFmt, TsFmtConfigVSCode:
		return true
	}
	return false
}

// TsFmt formats TypeScript with typescript-formatter.
//
// Options are inline formatting settings in tsfmt.json form; they take
// precedence over ConfigFile. ConfigKind defaults to tsfmt.
type TsFmt struct {
	StepName     string
	Dependencies nodelayout.Dependencies
	Options      map[string]any
	ConfigFile   string
	ConfigKind   TsFmtConfigKind
	Registry     string
}

func (t *TsFmt) Name() string { return nameOr(t.StepName, TsFmtStepName) }

func (t *TsFmt) MaterializeConfig() (nodelayout.Config, error) {
	if t.ConfigKind != "" && !t.ConfigKind.Valid() {
		return nodelayout.Config{}, fmt.Errorf("%s: unknown tsfmt config kind %q", t.Name(), t.ConfigKind)
	}
	return materialize(KindTsFmt, t.Name(), withDefaults(t.Dependencies, DefaultTsFmtDependencies), t.Registry)
}

func (t *TsFmt) Format(ctx context.Context, client *restclient.Client, content, file string) (string, error) {
	request := map[string]any{"file_content": content}
	switch {
	case len(t.Options) > 0:
		request["inline_settings"] = t.Options
	case t.ConfigFile != "":
		configPath, err := filepath.Abs(t.ConfigFile)
		if err != nil {
			return "", fmt.Errorf("resolving tsfmt config path: %w", err)
		}
		kind := t.ConfigKind
		if kind == "" {
			kind = TsFmtConfigTsFmt
		}
		request["config_options"] = map[string]any{
			string(kind):          true,
			string(kind) + "File": configPath,
		}
	}
	return client.PostJSON(ctx, "/tsfmt/format", request)
}

func (t *TsFmt) Shutdown(ctx context.Context, client *restclient.Client) error {
	return requestShutdown(ctx, client)
}
