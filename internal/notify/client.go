// Package notify delivers split fragments to a messaging webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// Client posts fragments to a webhook endpoint in sequence order.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
}

func NewClient(url, apiKey string, timeout time.Duration) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		backoff: Backoff,
	}
}

// Fragment is the delivery payload for one message-sized chunk.
type Fragment struct {
	JobID string `json:"job_id"`
	Seq   int    `json:"seq"`
	Total int    `json:"total"`
	HTML  string `json:"html"`
}

// RetryableError marks a delivery failure worth retrying (network errors
// and 5xx responses). Client errors are terminal.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

const MaxAttempts = 3

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

// SendFragments delivers fragments in order. Fragment n+1 is not sent
// until n succeeded, so the receiving channel renders them in sequence.
// sent is called after each successful delivery and may be nil.
func (c *Client) SendFragments(ctx context.Context, jobID string, fragments []string, sent func(seq int)) error {
	for i, html := range fragments {
		f := Fragment{JobID: jobID, Seq: i + 1, Total: len(fragments), HTML: html}
		if err := c.SendFragment(ctx, f); err != nil {
			return fmt.Errorf("fragment %d/%d: %w", f.Seq, f.Total, err)
		}
		if sent != nil {
			sent(f.Seq)
		}
	}
	return nil
}

// SendFragment posts a single fragment, retrying retryable failures with
// backoff.
func (c *Client) SendFragment(ctx context.Context, f Fragment) error {
	var lastErr error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err := c.post(ctx, f)
		if err == nil {
			return nil
		}
		lastErr = err
		var retry *RetryableError
		if !errors.As(err, &retry) {
			return err
		}
	}
	return lastErr
}

func (c *Client) post(ctx context.Context, f Fragment) error {
	body, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal fragment: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RetryableError{Err: fmt.Errorf("post fragment: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &RetryableError{Err: fmt.Errorf("webhook status %d: %s", resp.StatusCode, string(respBody))}
	default:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode, string(respBody))
	}
}

// Close releases any resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
