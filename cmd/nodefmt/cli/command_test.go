// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name:   "nodefmt",
		Output: &bytes.Buffer{},
		Subcommands: []*Command{
			{
				Name: "cache",
				Subcommands: []*Command{
					{
						Name: "inspect",
						Run: func(args []string) error {
							called = "cache inspect"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute([]string{"cache", "inspect", "prettier-node-modules-abc"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "cache inspect" {
		t.Errorf("dispatched to %q, want %q", called, "cache inspect")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "prettier-node-modules-abc" {
		t.Errorf("args = %v, want [prettier-node-modules-abc]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var step string
	var check bool
	var files []string

	command := &Command{
		Name: "format",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("format", pflag.ContinueOnError)
			flagSet.StringVar(&step, "step", "", "step definition")
			flagSet.BoolVar(&check, "check", false, "check only")
			return flagSet
		},
		Run: func(args []string) error {
			files = args
			return nil
		},
	}

	if err := command.Execute([]string{"--step", "prettier.jsonc", "a.ts", "--check", "b.ts"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if step != "prettier.jsonc" || !check {
		t.Errorf("step = %q, check = %v", step, check)
	}
	if strings.Join(files, " ") != "a.ts b.ts" {
		t.Errorf("files = %v, want [a.ts b.ts]", files)
	}
}

func TestCommand_Execute_UnknownCommandSuggestion(t *testing.T) {
	root := &Command{
		Name:        "nodefmt",
		Subcommands: []*Command{{Name: "format"}, {Name: "resolve"}},
	}
	err := root.Execute([]string{"fromat"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), `did you mean "format"`) {
		t.Errorf("error = %q, want a suggestion", err)
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "format",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("format", pflag.ContinueOnError)
			flagSet.Bool("write", false, "")
			return flagSet
		},
		Run: func([]string) error { return nil },
	}
	err := command.Execute([]string{"--wrte"})
	if err == nil || !strings.Contains(err.Error(), "did you mean --write?") {
		t.Fatalf("error = %v, want a --write suggestion", err)
	}
}

func TestCommand_Execute_SubcommandRequired(t *testing.T) {
	var help bytes.Buffer
	root := &Command{
		Name:        "cache",
		Output:      &help,
		Subcommands: []*Command{{Name: "list", Summary: "List entries"}},
	}
	err := root.Execute(nil)
	if err == nil || err.Error() != "subcommand required" {
		t.Fatalf("error = %v, want subcommand required", err)
	}
	if !strings.Contains(help.String(), "List entries") {
		t.Errorf("help = %q, want the subcommand listing", help.String())
	}
}

func TestCommand_Execute_HelpUsesParentOutput(t *testing.T) {
	var help bytes.Buffer
	root := &Command{
		Name:   "nodefmt",
		Output: &help,
		Subcommands: []*Command{{
			Name:        "resolve",
			Description: "Show the npm and node executables.",
			Examples:    []Example{{Description: "Pin npm", Command: "nodefmt resolve --npm /opt/npm"}},
			Run:         func([]string) error { return nil },
		}},
	}
	if err := root.Execute([]string{"resolve", "--help"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	for _, want := range []string{"Show the npm and node executables.", "nodefmt resolve [flags]", "# Pin npm"} {
		if !strings.Contains(help.String(), want) {
			t.Errorf("help missing %q:\n%s", want, help.String())
		}
	}
}

func TestCommand_Execute_RunErrorPassesThrough(t *testing.T) {
	want := &ExitError{Code: 1}
	command := &Command{Name: "format", Run: func([]string) error { return want }}
	var exitErr *ExitError
	if err := command.Execute(nil); !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("error = %v, want the ExitError", err)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"format", "format", 0},
		{"fromat", "format", 2},
		{"cache", "cahce", 2},
		{"kitten", "sitting", 3},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}

func TestNewLoggerHandlers(t *testing.T) {
	var text, structured bytes.Buffer
	newLogger(&text, true, 0).Info("hello", "step", "prettier")
	newLogger(&structured, false, 0).Info("hello", "step", "prettier")

	if !strings.Contains(text.String(), "step=prettier") {
		t.Errorf("terminal output = %q, want text handler", text.String())
	}
	if !strings.Contains(structured.String(), `"step":"prettier"`) {
		t.Errorf("piped output = %q, want JSON handler", structured.String())
	}
}
