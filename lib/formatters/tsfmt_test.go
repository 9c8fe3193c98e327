// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"context"
	"path/filepath"
	"testing"
)

func TestTsFmtInlineSettings(t *testing.T) {
	recorder := newRecordingServer(t, echoContent)
	tsfmt := &TsFmt{
		Options:    map[string]any{"indentSize": float64(2)},
		ConfigFile: "ignored.json",
	}
	if _, err := tsfmt.Format(context.Background(), recorder.client(), "let a", "a.ts"); err != nil {
		t.Fatalf("Format: %v", err)
	}
	request := recorder.recorded()[0]
	if request.Path != "/tsfmt/format" {
		t.Errorf("path = %q, want /tsfmt/format", request.Path)
	}
	settings, _ := request.Body["inline_settings"].(map[string]any)
	if settings["indentSize"] != float64(2) {
		t.Errorf("inline_settings = %v, want indentSize 2", request.Body["inline_settings"])
	}
	if _, present := request.Body["config_options"]; present {
		t.Error("config_options sent alongside inline settings")
	}
}

func TestTsFmtConfigFileKinds(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "tsconfig.json")
	tests := []struct {
		kind     TsFmtConfigKind
		wantFlag string
	}{
		{"", "tsfmt"},
		{TsFmtConfigTsConfig, "tsconfig"},
		{TsFmtConfigTsLint, "tslint"},
		{TsFmtConfigVSCode, "vscode"},
	}
	for _, test := range tests {
		recorder := newRecordingServer(t, echoContent)
		tsfmt := &TsFmt{ConfigFile: configFile, ConfigKind: test.kind}
		if _, err := tsfmt.Format(context.Background(), recorder.client(), "x", "a.ts"); err != nil {
			t.Fatalf("Format(%q): %v", test.kind, err)
		}
		options, _ := recorder.recorded()[0].Body["config_options"].(map[string]any)
		if options[test.wantFlag] != true {
			t.Errorf("kind %q: %s = %v, want true", test.kind, test.wantFlag, options[test.wantFlag])
		}
		if options[test.wantFlag+"File"] != configFile {
			t.Errorf("kind %q: %sFile = %v, want %s", test.kind, test.wantFlag, options[test.wantFlag+"File"], configFile)
		}
	}
}

func TestTsFmtRejectsUnknownConfigKind(t *testing.T) {
	if _, err := (&TsFmt{ConfigKind: "prettierrc"}).MaterializeConfig(); err == nil {
		t.Fatal("expected an error for an unknown config kind")
	}
}
