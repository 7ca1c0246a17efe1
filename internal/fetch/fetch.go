// Package fetch retrieves pages over HTTP for the crawler.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrStatus matches any *StatusError.
var ErrStatus = errors.New("unexpected status")

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Page is a successfully fetched document.
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	FetchedAt   time.Time
}

// Client fetches pages with a hard per-request timeout and a capped body.
type Client struct {
	http      *http.Client
	userAgent string
	maxBody   int64
}

const defaultMaxBody = 1 << 20 // 1 MiB safety cap

// NewClient returns a Client. A nil hc gets a fresh http.Client with
// timeout; maxBody <= 0 uses 1 MiB.
func NewClient(hc *http.Client, timeout time.Duration, userAgent string, maxBody int64) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	if timeout > 0 {
		cp := *hc
		cp.Timeout = timeout
		hc = &cp
	}
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	return &Client{
		http:      hc,
		userAgent: userAgent,
		maxBody:   maxBody,
	}
}

// Fetch GETs addr. Transport failures, timeouts and non-2xx statuses are
// all returned as errors.
func (c *Client) Fetch(ctx context.Context, addr string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Page{
		URL:         addr,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		FetchedAt:   time.Now(),
	}, nil
}
