// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package restclient

import "fmt"

// ResponseError is a non-2xx response. Body holds the server's error
// text, which for formatter servers is usually the tool's own message.
type ResponseError struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *ResponseError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("POST %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("POST %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// IOError is a request that failed before a complete response arrived:
// connection refused, timeout, reset, or a truncated body.
type IOError struct {
	Method string
	URL    string
	Err    error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }
