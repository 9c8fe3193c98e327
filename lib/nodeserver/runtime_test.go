// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nodeserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/nodefmt/lib/clock"
	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
	"github.com/bureau-foundation/nodefmt/lib/npmprocess"
	"github.com/bureau-foundation/nodefmt/lib/testutil"
)

func newRuntime(t *testing.T, npm *fakeNpm, options Options) *Runtime {
	t.Helper()
	factory := npmprocess.NewStandard(npmprocess.Options{Clock: options.Clock})
	runtime, err := NewRuntime("prettier", testConfig(), npm.locations, factory, options)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	return runtime
}

func TestStartReady(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	defer backend.Close()
	npm := newFakeNpm(t, servingBody(serverPort(t, backend)))
	runtime := newRuntime(t, npm, Options{ShutdownGrace: 2 * time.Second})

	if runtime.State() != NotReady {
		t.Errorf("initial State() = %v, want not-ready", runtime.State())
	}
	server, err := runtime.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if server.State() != Ready {
		t.Errorf("State() = %v, want ready", server.State())
	}
	if server.BaseURL() != backend.URL {
		t.Errorf("BaseURL() = %q, want %q", server.BaseURL(), backend.URL)
	}
	if server.SignalFile() != runtime.Layout().SignalFile("") {
		t.Errorf("SignalFile() = %q", server.SignalFile())
	}
	if !runtime.Layout().IsLayoutPrepared() || !runtime.Layout().IsInstallPrepared() {
		t.Error("Start did not prepare the working directory")
	}
	if npm.installCount(t) != 1 {
		t.Errorf("install ran %d times, want 1", npm.installCount(t))
	}

	if err := server.Close(context.Background(), nil); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if server.Process().Alive() {
		t.Error("server process alive after Close")
	}
	if _, err := os.Stat(server.SignalFile()); !os.IsNotExist(err) {
		t.Error("signal file survived Close")
	}
	if server.State() != Closed {
		t.Errorf("State() after Close = %v, want closed", server.State())
	}
}

func TestStartSkipsPreparedInstall(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	defer backend.Close()
	npm := newFakeNpm(t, servingBody(serverPort(t, backend)))

	for range 2 {
		runtime := newRuntime(t, npm, Options{})
		server, err := runtime.Start(context.Background())
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		server.Close(context.Background(), nil)
	}
	if npm.installCount(t) != 1 {
		t.Errorf("install ran %d times across two starts, want 1", npm.installCount(t))
	}
}

func TestStartIgnoresStaleSignalFile(t *testing.T) {
	npm := newFakeNpm(t, `	echo "crashed before listening" >&2
	exit 3`)
	runtime := newRuntime(t, npm, Options{})
	if err := runtime.Prepare(context.Background()); err != nil {
		t.Fatal(err)
	}
	// A port file from an earlier run must not be mistaken for readiness.
	if err := os.WriteFile(runtime.Layout().SignalFile(""), []byte("4321"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runtime.Start(context.Background())
	var startupErr *StartupError
	if !errors.As(err, &startupErr) {
		t.Fatalf("Start = %v, want *StartupError", err)
	}
	var processErr *npmprocess.ProcessError
	if !errors.As(err, &processErr) {
		t.Fatalf("Start = %v, want wrapped *ProcessError", err)
	}
	if processErr.Result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", processErr.Result.ExitCode)
	}
	if !strings.Contains(err.Error(), "crashed before listening") {
		t.Errorf("error %q does not include the server output", err)
	}
	if runtime.State() != NotReady {
		t.Errorf("State() after failed start = %v, want not-ready", runtime.State())
	}
}

func TestStartTimeout(t *testing.T) {
	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	npm := newFakeNpm(t, hangingBody)
	runtime := newRuntime(t, npm, Options{Clock: fake, StartupTimeout: 60 * time.Second})

	errs := make(chan error, 1)
	go func() {
		_, err := runtime.Start(context.Background())
		errs <- err
	}()

	testutil.WaitForFile(t, filepath.Join(npm.bin, "booted"), 10*time.Second)
	// Poll ticker and startup deadline.
	fake.WaitForTimers(2)
	fake.Advance(61 * time.Second)

	var err error
	select {
	case err = <-errs:
	case <-time.After(10 * time.Second):
		t.Fatal("Start did not return after the startup timeout")
	}

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("Start = %v, want wrapped *TimeoutError", err)
	}
	if timeoutErr.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s", timeoutErr.Timeout)
	}
	var startupErr *StartupError
	if !errors.As(err, &startupErr) || startupErr.Result == nil {
		t.Fatalf("Start = %v, want *StartupError with output", err)
	}
	if !strings.Contains(err.Error(), "booting") {
		t.Errorf("error %q does not include the server output", err)
	}

	// The server was killed and reaped before Start returned.
	pidText, readErr := os.ReadFile(filepath.Join(npm.bin, "server.pid"))
	if readErr != nil {
		t.Fatal(readErr)
	}
	pid, convErr := strconv.Atoi(strings.TrimSpace(string(pidText)))
	if convErr != nil {
		t.Fatal(convErr)
	}
	if err := unix.Kill(pid, 0); !errors.Is(err, unix.ESRCH) {
		t.Errorf("server pid %d still exists after timeout (kill 0 = %v)", pid, err)
	}

	// A signal file that shows up late is not picked up by anyone.
	if err := os.WriteFile(runtime.Layout().SignalFile(""), []byte("4321"), 0o644); err != nil {
		t.Fatal(err)
	}
	if runtime.State() != NotReady {
		t.Errorf("State() = %v, want not-ready", runtime.State())
	}
}

func TestStartContextCancelled(t *testing.T) {
	npm := newFakeNpm(t, hangingBody)
	runtime := newRuntime(t, npm, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := runtime.Start(ctx)
		errs <- err
	}()
	testutil.WaitForFile(t, filepath.Join(npm.bin, "booted"), 10*time.Second)
	cancel()

	select {
	case err := <-errs:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Start = %v, want context.Canceled", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}

func TestStartUniqueInstance(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	defer backend.Close()
	npm := newFakeNpm(t, servingBody(serverPort(t, backend)))
	runtime := newRuntime(t, npm, Options{UniqueInstance: true})

	server, err := runtime.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer server.Close(context.Background(), nil)

	name := filepath.Base(server.SignalFile())
	if !strings.HasPrefix(name, "server-") || !strings.HasSuffix(name, ".port") || name == "server.port" {
		t.Errorf("signal file = %q, want server-<id>.port", name)
	}
}

func TestPrepareConcurrentInstallsOnce(t *testing.T) {
	npm := newFakeNpm(t, hangingBody)
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runtime := newRuntime(t, npm, Options{})
			if err := runtime.Prepare(context.Background()); err != nil {
				t.Errorf("Prepare: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := npm.installCount(t); got != 1 {
		t.Errorf("install ran %d times, want 1", got)
	}
}

func TestReadPort(t *testing.T) {
	directory := t.TempDir()
	tests := []struct {
		content string
		port    int
		ok      bool
	}{
		{"4321", 4321, true},
		{"4321\n", 4321, true},
		{"", 0, false},
		{"abc", 0, false},
		{"0", 0, false},
		{"70000", 0, false},
	}
	for _, test := range tests {
		path := filepath.Join(directory, "server.port")
		if err := os.WriteFile(path, []byte(test.content), 0o644); err != nil {
			t.Fatal(err)
		}
		port, ok := readPort(path)
		if port != test.port || ok != test.ok {
			t.Errorf("readPort(%q) = %d, %v, want %d, %v", test.content, port, ok, test.port, test.ok)
		}
	}
	if _, ok := readPort(filepath.Join(directory, "missing")); ok {
		t.Error("readPort(missing) = ok")
	}
}

func TestNewRuntimeValidatesConfig(t *testing.T) {
	npm := newFakeNpm(t, hangingBody)
	if _, err := NewRuntime("prettier", testConfig(), npm.locations, npmprocess.NewStandard(npmprocess.Options{}), Options{}); err != nil {
		t.Errorf("NewRuntime(valid) = %v", err)
	}
	if _, err := NewRuntime("prettier", nodelayout.Config{ServeScript: "// serve"}, npm.locations, npmprocess.NewStandard(npmprocess.Options{}), Options{}); err == nil {
		t.Error("NewRuntime with empty manifest succeeded")
	}
}
