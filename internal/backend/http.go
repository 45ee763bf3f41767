// README: HTTP plumbing for the municipal backend client (auth header, retry/backoff).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Body)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if tok, err := c.token(ctx); err == nil && tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429, 5xx) with
// exponential backoff while respecting context cancellation. Requests are
// rebuilt per attempt so the body reader is fresh.
func (c *Client) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	const maxAttempts = 4
	backoff := 200 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := makeReq()
		if err != nil {
			return nil, err
		}
		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}
		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}
		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return nil, lastErr
}

// call issues a JSON request and decodes the JSON response into out (skipped
// when out is nil).
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, method, path, body)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
