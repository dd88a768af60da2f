package remote

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 500 * time.Millisecond
)

type retryPolicy struct {
	maxAttempts    uint
	initialBackoff time.Duration
}

// retryDo executes a request with exponential backoff retry. Network errors,
// HTTP 429 and HTTP 5xx responses are retried; any other response is returned
// to the caller. newRequest is called once per attempt so bodies can be
// replayed.
func retryDo(ctx context.Context, client *http.Client, newRequest func() (*http.Request, error), policy retryPolicy) (*http.Response, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.initialBackoff

	attempt := 0
	return backoff.Retry(ctx, func() (*http.Response, error) {
		attempt++
		req, err := newRequest()
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			log.Debugw("presence request failed", "url", req.URL.String(), "attempt", attempt, "err", err)
			return nil, err
		}
		if !isRetryableStatus(resp.StatusCode) {
			return resp, nil
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		log.Debugw("presence request retryable status", "url", req.URL.String(), "attempt", attempt, "status", resp.StatusCode)
		return nil, tryParseRemoteError(resp.StatusCode, body)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(policy.maxAttempts))
}

// isRetryableStatus returns true for HTTP status codes that should be retried.
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
