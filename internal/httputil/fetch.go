// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP GET capability the acquisition queue
// drives. It never retries; every failure is reported once with a wire code.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
)

// Failure codes carried by FetchError.
const (
	CodeTimeout  = "TIMEOUT"
	CodeNotFound = "NOT_FOUND"
	CodeNetErr   = "NET_ERR"
)

// MaxBodyBytes bounds how much of a response body is read.
var MaxBodyBytes int64 = 8 << 20

// Fetcher returns the body of a successful GET.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetchError is a typed fetch failure.
type FetchError struct {
	// Code is TIMEOUT, NOT_FOUND, NET_ERR or HTTP_<status>.
	Code   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusCode returns the wire code for a non-200 status.
func StatusCode(status int) string {
	if status == http.StatusNotFound {
		return CodeNotFound
	}
	return "HTTP_" + strconv.Itoa(status)
}

// Client fetches pages with a browser-like header set.
type Client struct {
	HTTP      *http.Client
	UserAgent string

	// Cookie is sent verbatim when set, for sessions that see more of a profile.
	Cookie string
}

var _ Fetcher = (*Client)(nil)

// NewClient returns a Client using http.DefaultClient. Timeouts come from
// the caller's context.
func NewClient(userAgent, cookie string) *Client {
	return &Client{HTTP: http.DefaultClient, UserAgent: userAgent, Cookie: cookie}
}

// Fetch performs one GET. Only HTTP 200 yields a body.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{Code: CodeNetErr, Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "ja-JP,ja;q=0.9,en;q=0.8")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.Cookie != "" {
		req.Header.Set("Cookie", c.Cookie)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", &FetchError{Code: StatusCode(resp.StatusCode), Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return "", classify(ctx, fmt.Errorf("reading body: %w", err))
	}
	return string(body), nil
}

func classify(ctx context.Context, err error) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &FetchError{Code: CodeTimeout, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &FetchError{Code: CodeTimeout, Err: err}
	}
	return &FetchError{Code: CodeNetErr, Err: err}
}

// Code extracts the wire code from err, or "" when err is not a FetchError.
func Code(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}
