// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package timedlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/nodefmt/lib/clock"
)

func decodeLines(t *testing.T, buffer *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buffer.String()), "\n") {
		if line == "" {
			continue
		}
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			t.Fatalf("decoding log line %q: %v", line, err)
		}
		lines = append(lines, record)
	}
	return lines
}

func TestRunLogsBeginAndEnd(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, nil))
	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	err := Run(logger, fake, "npm install", []slog.Attr{slog.String("step", "prettier")}, func() error {
		fake.Advance(1500 * time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	lines := decodeLines(t, &buffer)
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2", len(lines))
	}
	if lines[0]["msg"] != "[BEGIN] npm install" || lines[1]["msg"] != "[END] npm install" {
		t.Errorf("messages = %q, %q", lines[0]["msg"], lines[1]["msg"])
	}
	if lines[0]["step"] != "prettier" || lines[1]["step"] != "prettier" {
		t.Errorf("step attribute missing: %v", lines)
	}
	// JSON handler renders durations as nanoseconds.
	if took := lines[1]["took"]; took != float64(1500*time.Millisecond) {
		t.Errorf("took = %v, want %v", took, float64(1500*time.Millisecond))
	}
}

func TestRunLogsError(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, nil))
	failure := errors.New("exit code 1")

	err := Run(logger, clock.Real(), "npm install", nil, func() error { return failure })
	if !errors.Is(err, failure) {
		t.Fatalf("Run = %v, want %v", err, failure)
	}
	lines := decodeLines(t, &buffer)
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2", len(lines))
	}
	if lines[1]["level"] != "WARN" || lines[1]["error"] != "exit code 1" {
		t.Errorf("end line = %v", lines[1])
	}
}

func TestRunSkipsLoggingWhenDisabled(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, &slog.HandlerOptions{Level: slog.LevelError}))
	called := false
	if err := Run(logger, clock.Real(), "npm install", nil, func() error {
		called = true
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("fn not called")
	}
	if buffer.Len() != 0 {
		t.Errorf("logged %q with Info disabled", buffer.String())
	}
}
