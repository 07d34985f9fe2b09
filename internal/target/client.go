// Package target drives HTTP traffic against the system under test: a
// cookie-carrying client session, a page-load probe, and a scripted
// browser that follows links and fetches assets the way a user would.
package target

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"webqa-probe/internal/harness"
	"webqa-probe/internal/observe"
)

// DefaultTimeout bounds one HTTP exchange when the caller does not set
// its own limit.
const DefaultTimeout = 30 * time.Second

const userAgent = "webqa-probe"

// RequestRecord captures one completed HTTP exchange. Duration covers
// the full transfer, first byte of the request to last byte of the body.
type RequestRecord struct {
	Method    string
	URL       string
	Status    int
	Duration  time.Duration
	BodyBytes int
}

// Client is one HTTP session against a target: cookies persist across
// requests and redirects are followed. Completed exchanges are returned
// whatever their status code; judging the status is the caller's job.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient builds a session for the given base URL. The URL must be
// absolute http or https; a zero timeout picks DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("target %q: http or https URL required", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("target %q: host required", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base: u,
		http: &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

// Base returns a copy of the session's base URL.
func (c *Client) Base() url.URL {
	return *c.base
}

// Resolve joins a path or reference against the base URL. Absolute
// references pass through unchanged.
func (c *Client) Resolve(ref string) (string, error) {
	u, err := c.base.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", ref, err)
	}
	return u.String(), nil
}

// Get fetches rawURL and reads the whole body.
func (c *Client) Get(ctx context.Context, rawURL string) (RequestRecord, []byte, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil, false)
}

// DoJSON sends a request with an optional JSON payload and returns the
// completed exchange. Error-class status codes are not judged here; the
// checks decide what a 404 means.
func (c *Client) DoJSON(ctx context.Context, method, rawURL string, payload []byte) (RequestRecord, []byte, error) {
	return c.do(ctx, method, rawURL, payload, true)
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload []byte, asJSON bool) (RequestRecord, []byte, error) {
	var body io.Reader
	if len(payload) > 0 {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return RequestRecord{}, nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if asJSON {
		req.Header.Set("Accept", "application/json")
		if len(payload) > 0 {
			req.Header.Set("Content-Type", "application/json")
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return RequestRecord{}, nil, transportErr(ctx, err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return RequestRecord{}, nil, transportErr(ctx, err)
	}

	rec := RequestRecord{
		Method:    method,
		URL:       rawURL,
		Status:    resp.StatusCode,
		Duration:  time.Since(start),
		BodyBytes: len(data),
	}
	return rec, data, nil
}

// transportErr marks connection-level failures transient so the tick is
// retried. A cancelled context surfaces as-is; retrying it is pointless.
func transportErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return err
	}
	return harness.Transient(err)
}

// classifyStatus maps an error-class response onto the matching tick
// error: a 5xx is transient, the next attempt may succeed; a 4xx is
// final for this tick.
func classifyStatus(rec RequestRecord) error {
	switch {
	case rec.Status >= 500:
		return harness.Transient(fmt.Errorf("%s %s: server error %d", rec.Method, rec.URL, rec.Status))
	case rec.Status >= 400:
		return fmt.Errorf("%s %s: status %d", rec.Method, rec.URL, rec.Status)
	}
	return nil
}

// tickFields converts a completed exchange into the fields a tick records.
func tickFields(rec RequestRecord) observe.Fields {
	return observe.Fields{
		"url":           rec.URL,
		"status_code":   float64(rec.Status),
		"response_time": rec.Duration.Seconds(),
		"body_bytes":    float64(rec.BodyBytes),
		"ok":            true,
	}
}

// PageLoad returns the latency probe: fetch one resolved URL and record
// how long the full transfer took.
func PageLoad(client *Client, pageURL string) harness.Action {
	return harness.ActionFunc("page-load", func(ctx context.Context) (observe.Fields, error) {
		rec, _, err := client.Get(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		if err := classifyStatus(rec); err != nil {
			return nil, err
		}
		return tickFields(rec), nil
	})
}
