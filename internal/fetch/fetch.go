// Package fetch retrieves job pages over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultTimeout bounds one page fetch.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent identifies jobfill to job boards.
	DefaultUserAgent = "Mozilla/5.0 (compatible; jobfill/1.0)"
	// MaxBodyBytes caps how much of a page is read.
	MaxBodyBytes = 5 << 20
	// MinContentLength is the minimum visible text length of a statically
	// served page; shorter pages are likely rendered client-side.
	MinContentLength = 500
)

// Result is one fetched page. URL is the address after redirects.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error is a failed fetch. StatusCode is set when the server answered.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the same request may succeed later.
func (e *Error) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Options configures a fetch.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// Limiter, when set, paces requests per host.
	Limiter *HostLimiter
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// URL fetches a page. A non-200 answer returns both the Result and an *Error.
func URL(ctx context.Context, rawURL string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	fail := func(msg string, cause error) *Error {
		return &Error{URL: rawURL, Message: msg, Cause: cause}
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fail("invalid URL", err)
	}
	if opts.Limiter != nil {
		if err := opts.Limiter.Wait(ctx, u.Host); err != nil {
			return nil, fail("rate limit wait cancelled", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fail("failed to create request", err)
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	client := &http.Client{Timeout: opts.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fail("HTTP request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fail("failed to read response body", err)
	}

	res := &Result{
		URL:         resp.Request.URL.String(),
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}
	log.Debug().
		Str("url", rawURL).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("took", time.Since(start)).
		Msg("fetched page")

	if resp.StatusCode != http.StatusOK {
		e := fail(fmt.Sprintf("HTTP status %d", resp.StatusCode), nil)
		e.StatusCode = resp.StatusCode
		return res, e
	}
	return res, nil
}

// ShouldUseBrowser reports whether visibleText is too short for a server
// rendered posting, meaning the page needs a browser to run its scripts.
func ShouldUseBrowser(visibleText string) bool {
	return len(strings.TrimSpace(visibleText)) < MinContentLength
}
