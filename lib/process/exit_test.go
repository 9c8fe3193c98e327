// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

type codedError struct{ code int }

func (e *codedError) Error() string { return "coded" }
func (e *codedError) ExitCode() int { return e.code }

func TestExitCode(t *testing.T) {
	var stderr bytes.Buffer
	if code := ExitCode(&stderr, nil); code != 0 {
		t.Errorf("nil error: code = %d, want 0", code)
	}

	if code := ExitCode(&stderr, errors.New("boom")); code != 1 {
		t.Errorf("plain error: code = %d, want 1", code)
	}
	if stderr.String() != "error: boom\n" {
		t.Errorf("stderr = %q", stderr.String())
	}

	stderr.Reset()
	wrapped := fmt.Errorf("formatting: %w", &codedError{code: 3})
	if code := ExitCode(&stderr, wrapped); code != 3 {
		t.Errorf("coded error: code = %d, want 3", code)
	}
	if stderr.Len() != 0 {
		t.Errorf("coded error wrote %q to stderr", stderr.String())
	}
}
