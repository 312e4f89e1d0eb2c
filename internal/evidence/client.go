package evidence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/claimcheck/internal/util"
	"github.com/ppiankov/claimcheck/internal/worker"
)

// ErrStatus is matched by every StatusError
var ErrStatus = errors.New("unexpected status")

// StatusError reports a non-200 response from a search backend
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Is lets errors.Is(err, ErrStatus) match any status error
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Retryable reports whether the status is worth another attempt
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// ClientOptions configure the shared HTTP client used by search backends
type ClientOptions struct {
	Timeout         time.Duration
	RetryMaxElapsed time.Duration
	UserAgent       string
	Limiter         *worker.Limiter // nil disables pacing
	HTTPProxy       string
	HTTPSProxy      string
	NoProxy         string
	Log             logrus.FieldLogger
}

// jsonClient performs paced GET requests with bounded exponential retry
type jsonClient struct {
	httpClient      *http.Client
	limiter         *worker.Limiter
	retryMaxElapsed time.Duration
	userAgent       string
	log             logrus.FieldLogger
}

func newJSONClient(opts ClientOptions) *jsonClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	return &jsonClient{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy),
			},
		},
		limiter:         opts.Limiter,
		retryMaxElapsed: opts.RetryMaxElapsed,
		userAgent:       opts.UserAgent,
		log:             opts.Log,
	}
}

// getJSON fetches rawURL and decodes a 200 response into target. Transport
// errors, 429 and 5xx are retried until retryMaxElapsed; other statuses fail at once.
func (c *jsonClient) getJSON(ctx context.Context, rawURL string, header http.Header, target any) error {
	var lastErr error

	op := func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, rawURL); err != nil {
				return backoff.Permanent(err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			lastErr = fmt.Errorf("create request: %w", err)
			return backoff.Permanent(lastErr)
		}
		for k, v := range header {
			req.Header[k] = v
		}
		req.Header.Set("Accept", "application/json")
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				lastErr = ctxErr
				return backoff.Permanent(ctxErr)
			}
			lastErr = fmt.Errorf("execute request: %w", err)
			return lastErr
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			return lastErr
		}

		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
			lastErr = statusErr
			if statusErr.Retryable() {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			return backoff.Permanent(lastErr)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = c.retryMaxElapsed

	var policy backoff.BackOff = b
	if c.retryMaxElapsed <= 0 {
		policy = &backoff.StopBackOff{}
	}

	notify := func(err error, wait time.Duration) {
		c.log.WithError(err).WithField("retry_in", wait).Debug("evidence request failed, retrying")
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
