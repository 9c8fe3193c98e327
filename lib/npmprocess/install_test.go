// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package npmprocess

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bureau-foundation/nodefmt/lib/metrics"
	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
)

func testLayout(t *testing.T) nodelayout.Layout {
	t.Helper()
	layout, err := nodelayout.New(t.TempDir(), "prettier", "abc")
	if err != nil {
		t.Fatal(err)
	}
	return layout
}

func preferencesString(preferences []OnlinePreference) string {
	var result string
	for index, preference := range preferences {
		if index > 0 {
			result += ","
		}
		result += preference.String()
	}
	return result
}

func TestInstallRetryPolicy(t *testing.T) {
	tests := []struct {
		name      string
		outcomes  []installOutcome
		wantCalls string
		wantErr   bool
	}{
		{
			name:      "offline success",
			outcomes:  []installOutcome{success()},
			wantCalls: "offline",
		},
		{
			name: "ETARGET retried online",
			outcomes: []installOutcome{
				failure("npm ERR! code ETARGET\nnpm ERR! notarget No matching version found for prettier@9.9.9.", ""),
				success(),
			},
			wantCalls: "offline,online",
		},
		{
			name: "ERESOLVE on stderr retried online",
			outcomes: []installOutcome{
				failure("", "npm error code ERESOLVE\nnpm error ERESOLVE unable to resolve dependency tree"),
				success(),
			},
			wantCalls: "offline,online",
		},
		{
			name: "signature match is case-insensitive",
			outcomes: []installOutcome{
				failure("NO MATCHING VERSION FOUND", ""),
				success(),
			},
			wantCalls: "offline,online",
		},
		{
			name:      "unrelated failure not retried",
			outcomes:  []installOutcome{failure("npm ERR! code EACCES", "")},
			wantCalls: "offline",
			wantErr:   true,
		},
		{
			name: "online failure not retried again",
			outcomes: []installOutcome{
				failure("No matching version found", ""),
				failure("No matching version found", ""),
			},
			wantCalls: "offline,online",
			wantErr:   true,
		},
		{
			name:      "non-process error not retried",
			outcomes:  []installOutcome{{err: errors.New("No matching version found but not from npm")}},
			wantCalls: "offline",
			wantErr:   true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			factory := &scriptedFactory{outcomes: test.outcomes}
			_, err := Install(context.Background(), factory, testLayout(t), nodelayout.Locations{})
			if (err != nil) != test.wantErr {
				t.Errorf("Install error = %v, wantErr %v", err, test.wantErr)
			}
			if got := preferencesString(factory.calls()); got != test.wantCalls {
				t.Errorf("install calls = %q, want %q", got, test.wantCalls)
			}
		})
	}
}

func TestInstallerMetrics(t *testing.T) {
	m := metrics.New()
	factory := &scriptedFactory{outcomes: []installOutcome{
		failure("No matching version found", ""),
		success(),
	}}
	installer := NewInstaller(factory, Options{Metrics: m})
	if _, err := installer.Install(context.Background(), testLayout(t), nodelayout.Locations{}); err != nil {
		t.Fatal(err)
	}

	count, err := testutil.GatherAndCount(m.Registry(), "nodefmt_installs_total", "nodefmt_install_retries_total")
	if err != nil {
		t.Fatal(err)
	}
	// Two install series (offline/failure, online/success) plus the retry counter.
	if count != 3 {
		t.Errorf("metric series = %d, want 3", count)
	}
}
