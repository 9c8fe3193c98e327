// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package restclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPostJSONSuccess(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		io.WriteString(w, "const x = 1;\n")
	}))
	defer server.Close()

	client := New(server.URL + "/")
	formatted, err := client.PostJSON(context.Background(), "/prettier/format", map[string]any{
		"file_content":   "const x=1",
		"config_options": map[string]any{"semi": true},
	})
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if formatted != "const x = 1;\n" {
		t.Errorf("response = %q", formatted)
	}
	if gotPath != "/prettier/format" {
		t.Errorf("path = %q, want /prettier/format", gotPath)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotBody["file_content"] != "const x=1" {
		t.Errorf("body = %v", gotBody)
	}
	if client.BaseURL() != server.URL {
		t.Errorf("BaseURL() = %q, want %q", client.BaseURL(), server.URL)
	}
}

func TestPostJSONRawBodies(t *testing.T) {
	var received []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		received = append(received, string(data))
	}))
	defer server.Close()
	client := New(server.URL)

	for _, body := range []any{`{"a":1}`, []byte(`{"b":2}`), json.RawMessage(`{"c":3}`), nil} {
		if _, err := client.PostJSON(context.Background(), "shutdown", body); err != nil {
			t.Fatalf("PostJSON(%T): %v", body, err)
		}
	}
	want := []string{`{"a":1}`, `{"b":2}`, `{"c":3}`, `{}`}
	for index := range want {
		if received[index] != want[index] {
			t.Errorf("body %d = %q, want %q", index, received[index], want[index])
		}
	}
}

func TestPostJSONResponseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "SyntaxError: Unexpected token (1:7)", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := New(server.URL).PostJSON(context.Background(), "/prettier/format", map[string]string{})
	var responseErr *ResponseError
	if !errors.As(err, &responseErr) {
		t.Fatalf("error = %v, want *ResponseError", err)
	}
	if responseErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", responseErr.StatusCode)
	}
	if responseErr.Body != "SyntaxError: Unexpected token (1:7)\n" {
		t.Errorf("Body = %q", responseErr.Body)
	}
	if responseErr.Status != "500 Internal Server Error" {
		t.Errorf("Status = %q", responseErr.Status)
	}
}

func TestPostJSONConnectionRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	address := listener.Addr().String()
	listener.Close()

	_, err = New("http://"+address).PostJSON(context.Background(), "/eslint/format", nil)
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("error = %v, want *IOError", err)
	}
	if ioErr.Unwrap() == nil {
		t.Error("IOError does not wrap the cause")
	}
}

func TestPostJSONReadTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := New(server.URL, WithTimeouts(0, 50*time.Millisecond))
	_, err := client.PostJSON(context.Background(), "/tsfmt/format", nil)
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("error = %v, want *IOError", err)
	}
}

func TestPostJSONContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(server.URL).PostJSON(ctx, "/prettier/format", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestWithTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	client := New("http://formatter.invalid", WithTransport(&rewriteTransport{target: server.URL}))
	got, err := client.PostJSON(context.Background(), "/prettier/format", nil)
	if err != nil || got != "ok" {
		t.Errorf("PostJSON = %q, %v", got, err)
	}
}

type rewriteTransport struct{ target string }

func (r *rewriteTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	clone := request.Clone(request.Context())
	target, err := http.NewRequest(request.Method, r.target+request.URL.Path, nil)
	if err != nil {
		return nil, err
	}
	clone.URL = target.URL
	clone.Host = ""
	return http.DefaultTransport.RoundTrip(clone)
}

func TestPostJSONUserAgent(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.UserAgent()
	}))
	defer server.Close()

	if _, err := New(server.URL).PostJSON(context.Background(), "/x", nil); err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if !strings.HasPrefix(userAgent, "nodefmt/") {
		t.Errorf("User-Agent = %q, want nodefmt/ prefix", userAgent)
	}
}
