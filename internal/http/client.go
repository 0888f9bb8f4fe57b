// Package http provides the HTTP transport used by the API clients, with
// authentication, retries, rate limiting, and structured debug logging.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/meridian-eo/atlas/internal/constants"
	"github.com/meridian-eo/atlas/pkg/atlas"
)

// TokenManager provides access tokens for requests.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
}

// Request represents an API request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Response represents an API response with its body fully read.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client is an HTTP client for the Atlas API. Transient failures (429, 5xx,
// and connection errors) are retried with exponential backoff; a
// server-supplied Retry-After takes precedence over the computed wait.
type Client struct {
	baseURL      string
	tokenManager TokenManager
	httpClient   *retryablehttp.Client
	rateLimiter  *atlas.RateLimiter
	logger       atlas.Logger
	userAgent    string
	debug        bool
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets a structured logger.
func WithLogger(logger atlas.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig tunes the retry budget and backoff bounds.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithResponseHeaderTimeout bounds how long each attempt waits for the server
// to start responding. It does not limit response body reads.
func WithResponseHeaderTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if transport, ok := c.httpClient.HTTPClient.Transport.(*http.Transport); ok {
			transport.ResponseHeaderTimeout = timeout
		}
	}
}

// WithRateLimiter paces requests through the given limiter.
func WithRateLimiter(limiter *atlas.RateLimiter) Option {
	return func(c *Client) {
		c.rateLimiter = limiter
	}
}

// NewClient creates a new API client. A nil tokenManager sends
// unauthenticated requests.
func NewClient(baseURL string, tokenManager TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.Logger = nil

	// ResponseHeaderTimeout bounds the wait for each attempt's status line
	// without limiting how long a body may take to stream, so large asset
	// downloads are unaffected.
	retryClient.HTTPClient.Transport = &http.Transport{
		MaxIdleConnsPerHost:   constants.MaxIdleConnsPerHost,
		IdleConnTimeout:       constants.IdleConnTimeout,
		ResponseHeaderTimeout: constants.DefaultHTTPTimeout,
	}

	// When the retry budget is spent, surface the last response instead of
	// the default "giving up" error so callers see the terminal status.
	retryClient.ErrorHandler = func(resp *http.Response, err error, numTries int) (*http.Response, error) {
		lastStatus := 0
		if resp != nil {
			lastStatus = resp.StatusCode
		}

		return resp, &atlas.RetryExhaustedError{
			Attempts:   numTries,
			LastStatus: lastStatus,
			Err:        err,
		}
	}

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		tokenManager: tokenManager,
		httpClient:   retryClient,
		userAgent:    "atlas-go/" + constants.Version,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections held by the client's pool.
func (c *Client) Close() {
	c.httpClient.HTTPClient.CloseIdleConnections()
}

// Do executes an API request and reads the full response body. Non-2xx
// responses are returned along with a parsed *atlas.ResponseError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	fullURL := c.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var bodyBytes []byte

	if req.Body != nil {
		var err error

		bodyBytes, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, bodyBytes)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if err := c.setAuthHeader(ctx, httpReq.Header); err != nil {
		return nil, err
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		drainBody(httpResp)

		return nil, c.mapTransportError(ctx, err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status": httpResp.StatusCode,
			"bytes":  len(respBody),
		})
	}

	if httpResp.StatusCode >= 400 {
		return resp, atlas.ParseResponseError(httpResp.StatusCode, respBody)
	}

	return resp, nil
}

// drainBody releases a response left behind by an exhausted retry loop.
func drainBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

// mapTransportError classifies a failed round trip. A dead context wins over
// everything: the retry loop wraps even a single context-cancelled attempt in
// its exhaustion error, and callers need cancellation and deadline expiry to
// stay recognizable. Retry exhaustion carries through; everything else is a
// network error.
func (c *Client) mapTransportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	re := &atlas.RetryExhaustedError{}
	if errors.As(err, &re) {
		return re
	}

	return fmt.Errorf("%w: %v", atlas.ErrNetwork, err)
}

func (c *Client) setAuthHeader(ctx context.Context, header http.Header) error {
	if c.tokenManager == nil {
		return nil
	}

	token, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}

	header.Set("Authorization", "Bearer "+token)

	return nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// Head performs a HEAD request against an absolute URL. It is used to probe
// download endpoints for length, checksum, and range support.
func (c *Client) Head(ctx context.Context, rawURL string) (*Response, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("User-Agent", c.userAgent)

	if err := c.setAuthHeader(ctx, httpReq.Header); err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		drainBody(httpResp)

		return nil, c.mapTransportError(ctx, err)
	}

	defer func() { _ = httpResp.Body.Close() }()
	_, _ = io.Copy(io.Discard, httpResp.Body)

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
	}

	if httpResp.StatusCode >= 400 {
		return resp, atlas.ParseResponseError(httpResp.StatusCode, nil)
	}

	return resp, nil
}

// Stream performs a GET against an absolute URL and returns the response
// with its body left open for streaming. The caller must close the body.
// Extra headers (e.g. Range) are applied verbatim.
func (c *Client) Stream(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("User-Agent", c.userAgent)

	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	if err := c.setAuthHeader(ctx, httpReq.Header); err != nil {
		return nil, err
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Stream", map[string]interface{}{
			"url":   rawURL,
			"range": headers["Range"],
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		drainBody(httpResp)

		return nil, c.mapTransportError(ctx, err)
	}

	if httpResp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		_ = httpResp.Body.Close()

		return nil, atlas.ParseResponseError(httpResp.StatusCode, body)
	}

	return httpResp, nil
}
