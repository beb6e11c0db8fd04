// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package daemonclient is a thin client for gobbyd's loopback admin API.
// It backs the CLI's `admin` command group and `daemon stop`, which must
// reach a separately running gobbyd process rather than open the store
// directly.
package daemonclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gobbyhq/gobby/pkg/httpclient"
)

const defaultPort = 8374

// Client talks to gobbyd's /admin/* routes over loopback HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client against the daemon's loopback address. The port is
// taken from GOBBY_DAEMON_PORT if set, otherwise the default port gobbyd
// binds to (8374).
func New() (*Client, error) {
	port := defaultPort
	if v := os.Getenv("GOBBY_DAEMON_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid GOBBY_DAEMON_PORT %q: %w", v, err)
		}
		port = p
	}

	cfg := httpclient.DefaultConfig()
	cfg.UserAgent = "gobby-cli/1.0"
	// The admin surface is loopback-only and short-lived per call; retries
	// would just resend a shutdown request twice, so disable them here.
	cfg.RetryAttempts = 0

	hc, err := httpclient.New(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: fmt.Sprintf("http://127.0.0.1:%d", port),
		http:    hc,
	}, nil
}

// Unreachable reports whether err represents a failed connection to
// gobbyd, as opposed to an error response the daemon itself returned.
func Unreachable(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*UnreachableError)
	return ok
}

// UnreachableError wraps a transport-level failure reaching gobbyd.
type UnreachableError struct {
	Cause error
}

func (e *UnreachableError) Error() string { return fmt.Sprintf("gobbyd unreachable: %v", e.Cause) }
func (e *UnreachableError) Unwrap() error { return e.Cause }

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &UnreachableError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gobbyd returned %d: %s", resp.StatusCode, string(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Status fetches GET /admin/status.
func (c *Client) Status(ctx context.Context) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/admin/status", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Config fetches GET /admin/config.
func (c *Client) Config(ctx context.Context) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/admin/config", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Metrics fetches GET /admin/metrics, returning the raw Prometheus text.
func (c *Client) Metrics(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/admin/metrics", nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", &UnreachableError{Cause: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(body), nil
}

// Shutdown posts to POST /admin/shutdown, requesting a graceful stop.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/admin/shutdown", nil, nil)
}
