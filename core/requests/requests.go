// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package requests performs the outbound HTTP calls to the translation service.

Every call is bounded by a timeout, audited through [audit.Span] and returns
the fully read body, so callers can inspect error payloads after a failure.
*/
package requests

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"codeberg.org/ttools/ttsync/core/audit"
	"codeberg.org/ttools/ttsync/core/idgen"
	"codeberg.org/ttools/ttsync/server/request_context"
)

var (
	errInvalidJSON      = errors.New("response contained invalid JSON")
	errAPIResponseError = errors.New("API response indicated error")
)

// APIError is a non-2xx response from the translation service.
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Message is the "message" or "error" field of a JSON body, or the
	// status text when the body carries none.
	Message string

	Err error
}

func (e *APIError) Error() string {
	var b strings.Builder

	b.WriteString(e.Err.Error())

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	b.WriteString(" (status code: " + strconv.Itoa(e.StatusCode) + ")")

	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Response is a completed HTTP exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 200.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Client sends GET requests with a per-call timeout.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient returns a client using hc, or [DefaultHTTPClient] when hc is nil.
func NewClient(hc *http.Client, userAgent string) *Client {
	if hc == nil {
		hc = DefaultHTTPClient
	}

	return &Client{http: hc, userAgent: userAgent}
}

// Get fetches url. A timeout of zero leaves the deadline to ctx.
//
// Only transport failures are returned as errors; any HTTP status yields a
// [Response].
func (c *Client) Get(ctx context.Context, url string, timeout time.Duration) (*Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	return c.send(ctx, req)
}

// GetJSON fetches url and returns its body when the status is 2xx and the
// body is valid JSON. Other statuses become an [*APIError].
func (c *Client) GetJSON(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	resp, err := c.Get(ctx, url, timeout)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    ErrorMessage(resp),
			Err:        errAPIResponseError,
		}
	}

	if !gjson.ValidBytes(resp.Body) {
		return nil, errInvalidJSON
	}

	return resp.Body, nil
}

// ErrorMessage extracts a human-readable message from an error response:
// the "message" field, then a string "error" field (or its "message"), then
// the status text.
func ErrorMessage(resp *Response) string {
	if gjson.ValidBytes(resp.Body) {
		body := gjson.ParseBytes(resp.Body)

		for _, path := range []string{"message", "error.message", "error"} {
			if v := body.Get(path); v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
	}

	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}

	return "An unknown API error occurred"
}

// send executes req and reads the whole body inside an audit span.
func (c *Client) send(ctx context.Context, req *http.Request) (_ *Response, err error) {
	span := audit.Span{
		Destination: audit.ToTranslate,
		RequestID:   idgen.Child(request_context.FromContext(ctx).RequestID),
		Method:      req.Method,
		URL:         req.URL.String(),
	}

	defer func() {
		span.Error = err
		span.End()
		span.Log()
	}()

	req = req.WithContext(span.Begin(req.Context()))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	span.StatusCode = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	span.Body = body

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       bytes.Clone(body),
	}, nil
}

// IsTimeout reports whether err was caused by a deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var te interface{ Timeout() bool }

	return errors.As(err, &te) && te.Timeout()
}
