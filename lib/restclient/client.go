// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package restclient posts JSON to a formatter server on the loopback
// interface and returns the response body as text.
//
// The client never retries. A request either returns the 2xx body, a
// *ResponseError carrying the server's status and body, or an *IOError
// wrapping the transport failure.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bureau-foundation/nodefmt/lib/netutil"
	"github.com/bureau-foundation/nodefmt/lib/version"
)

// Default timeouts.
const (
	DefaultConnectTimeout = 60 * time.Second
	DefaultReadTimeout    = 120 * time.Second
)

// Client talks to one server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type options struct {
	connectTimeout time.Duration
	readTimeout    time.Duration
	transport      http.RoundTripper
}

// Option configures New.
type Option func(*options)

// WithTimeouts overrides the connect and read timeouts. Zero keeps the
// default.
func WithTimeouts(connect, read time.Duration) Option {
	return func(o *options) {
		if connect > 0 {
			o.connectTimeout = connect
		}
		if read > 0 {
			o.readTimeout = read
		}
	}
}

// WithTransport replaces the HTTP transport. The timeouts are then the
// transport's responsibility.
func WithTransport(transport http.RoundTripper) Option {
	return func(o *options) { o.transport = transport }
}

// New returns a client for baseURL (for example http://127.0.0.1:4321).
func New(baseURL string, opts ...Option) *Client {
	settings := options{connectTimeout: DefaultConnectTimeout, readTimeout: DefaultReadTimeout}
	for _, opt := range opts {
		opt(&settings)
	}
	transport := settings.transport
	if transport == nil {
		transport = &http.Transport{
			DialContext:           (&net.Dialer{Timeout: settings.connectTimeout}).DialContext,
			ResponseHeaderTimeout: settings.readTimeout,
		}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Transport: transport},
	}
}

// BaseURL returns the server URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// PostJSON sends body to endpoint and returns the response text.
// string, []byte, and json.RawMessage bodies are sent as is; anything
// else is JSON-encoded.
func (c *Client) PostJSON(ctx context.Context, endpoint string, body any) (string, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return "", fmt.Errorf("encoding request for %s: %w", endpoint, err)
	}
	url := c.baseURL + "/" + strings.TrimPrefix(endpoint, "/")

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request for %s: %w", url, err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json, text/plain")
	request.Header.Set("User-Agent", version.UserAgent())

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", &IOError{Method: http.MethodPost, URL: url, Err: err}
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return "", &ResponseError{
			URL:        url,
			StatusCode: response.StatusCode,
			Status:     response.Status,
			Body:       netutil.ErrorBody(response.Body),
		}
	}
	data, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return "", &IOError{Method: http.MethodPost, URL: url, Err: err}
	}
	return string(data), nil
}

func encodeBody(body any) ([]byte, error) {
	switch value := body.(type) {
	case nil:
		return []byte("{}"), nil
	case string:
		return []byte(value), nil
	case json.RawMessage:
		return value, nil
	case []byte:
		return value, nil
	default:
		return json.Marshal(value)
	}
}
