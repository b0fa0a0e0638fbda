// Package abra talks to the Abra Gen REST API: URL construction, query
// parameter translation, one-shot HTTP execution and error classification.
package abra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// ClientConfig is the connection profile for one Abra Gen instance.
type ClientConfig struct {
	Host       string // scheme+host+port, e.g. http://localhost:699
	Database   string // database/connection identifier, e.g. Demo
	Username   string
	Password   string
	Timeout    time.Duration // hard deadline per request
	MaxRetries int           // transport-failure retry budget
	Logger     *slog.Logger
}

// BaseURL is the host with trailing slashes stripped, joined with the
// database identifier.
func (c ClientConfig) BaseURL() string {
	return strings.TrimRight(c.Host, "/") + "/" + c.Database
}

// Client executes requests against the Abra Gen API. It is immutable after
// construction and safe for concurrent use; no request mutates shared state.
type Client struct {
	base       string
	username   string
	password   string
	maxRetries int
	http       *http.Client
	logger     *slog.Logger
}

// NewClient builds a client from the connection profile. The underlying
// transport pools connections and is released by Close.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	logger.Info("abra client initialized", "base", cfg.BaseURL(), "timeout", timeout)
	return &Client{
		base:       cfg.BaseURL(),
		username:   cfg.Username,
		password:   cfg.Password,
		maxRetries: cfg.MaxRetries,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger: logger,
	}
}

// BaseURL returns the effective base address.
func (c *Client) BaseURL() string { return c.base }

// Close releases the pooled transport connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
	c.logger.Debug("abra client closed")
}

// Get reads a collection, a resource, or a nested subcollection.
func (c *Client) Get(ctx context.Context, collection, resourceID, subcollection string, params map[string]string) (Result, error) {
	target := BuildURL(c.base, collection, resourceID, subcollection, params)
	return c.do(ctx, http.MethodGet, target, nil)
}

// Post creates a resource in a collection.
func (c *Client) Post(ctx context.Context, collection string, data Record, params map[string]string) (Result, error) {
	target := BuildURL(c.base, collection, "", "", params)
	return c.do(ctx, http.MethodPost, target, data)
}

// Put updates an existing resource.
func (c *Client) Put(ctx context.Context, collection, resourceID string, data Record, params map[string]string) (Result, error) {
	target := BuildURL(c.base, collection, resourceID, "", params)
	return c.do(ctx, http.MethodPut, target, data)
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, collection, resourceID string) (Result, error) {
	target := BuildURL(c.base, collection, resourceID, "", nil)
	return c.do(ctx, http.MethodDelete, target, nil)
}

// Query runs q against a collection and normalizes the result to a sequence.
func (c *Client) Query(ctx context.Context, collection string, q Query) ([]Record, error) {
	result, err := c.Get(ctx, collection, "", "", q.Params())
	if err != nil {
		return nil, err
	}
	return result.Records(), nil
}

// do issues one request with basic auth and classifies the outcome. Only
// transport-level failures (the round trip itself failed) are retried, up to
// the configured budget; any response with a status code is classified and
// returned as-is.
func (c *Client) do(ctx context.Context, method, target string, data Record) (Result, error) {
	var payload []byte
	if data != nil {
		var err error
		payload, err = json.Marshal(data)
		if err != nil {
			return Result{}, fmt.Errorf("marshal request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := retryBackoff(attempt)
			c.logger.Warn("retrying request", "method", method, "attempt", attempt+1, "backoff", backoff)
			select {
			case <-ctx.Done():
				return Result{}, &Error{Kind: KindTransport, Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, target, requestBody(payload))
		if err != nil {
			return Result{}, fmt.Errorf("build request: %w", err)
		}
		req.SetBasicAuth(c.username, c.password)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		c.logger.Debug("abra request", "method", method, "url", target)

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil || attempt == c.maxRetries {
				break
			}
			c.logger.Warn("request failed, will retry", "method", method, "error", err)
			continue
		}
		return c.handleResponse(resp, target)
	}
	return Result{}, &Error{Kind: KindTransport, Err: lastErr}
}

func (c *Client) handleResponse(resp *http.Response, target string) (Result, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &Error{Kind: KindTransport, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := classifyStatus(resp.StatusCode, string(body), target)
		c.logger.Debug("abra error response", "status", resp.StatusCode, "kind", apiErr.Kind.String())
		return Result{}, apiErr
	}

	result, err := decodeResult(body)
	if err != nil {
		return Result{}, &Error{
			Kind:    KindAPI,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("malformed response body: %v", err),
			Err:     err,
		}
	}
	return result, nil
}

func requestBody(payload []byte) io.Reader {
	if payload == nil {
		return nil
	}
	return bytes.NewReader(payload)
}

// retryBackoff grows quadratically with jitter to avoid synchronized retries.
func retryBackoff(attempt int) time.Duration {
	base := time.Duration(attempt*attempt) * time.Second
	jitter := time.Duration(rand.Int64N(int64(base/2 + 1)))
	return base + jitter
}
