// Package fetch performs the blocking outbound GETs the portal needs: lesson
// images, simulation PDFs and CAD files.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// IsStatus reports whether err came from an upstream non-success status.
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

type Response struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

type Client struct {
	http     *http.Client
	maxBytes int64
}

type Option func(*Client)

// WithMaxBytes caps the body size. Zero means unlimited.
func WithMaxBytes(n int64) Option {
	return func(c *Client) { c.maxBytes = n }
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(timeout time.Duration, opts ...Option) *Client {
	c := &Client{http: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get downloads url in full.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if c.maxBytes > 0 {
		body = io.LimitReader(resp.Body, c.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("GET %s: body exceeds %d bytes", url, c.maxBytes)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data, ContentType: resp.Header.Get("Content-Type")}, nil
}
