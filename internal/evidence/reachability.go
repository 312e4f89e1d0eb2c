package evidence

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ppiankov/claimcheck/internal/util"
)

// ReachabilityChecker verifies that a source URL still resolves
type ReachabilityChecker struct {
	httpClient      *http.Client
	userAgent       string
	retryMaxElapsed time.Duration
}

// NewReachabilityChecker creates a checker that follows at most 3 redirects
func NewReachabilityChecker(opts ClientOptions) *ReachabilityChecker {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	return &ReachabilityChecker{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:       opts.UserAgent,
		retryMaxElapsed: opts.RetryMaxElapsed,
	}
}

// Reachable reports whether a HEAD request to rawURL ends in 2xx or 3xx.
// 429 and 5xx are retried; 404, 410 and other 4xx are final.
func (r *ReachabilityChecker) Reachable(ctx context.Context, rawURL string) bool {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if r.userAgent != "" {
			req.Header.Set("User-Agent", r.userAgent)
		}

		resp, err := r.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		_ = resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 400 {
			return nil
		}
		statusErr := &StatusError{Code: resp.StatusCode}
		if statusErr.Retryable() {
			return statusErr
		}
		return backoff.Permanent(statusErr)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = r.retryMaxElapsed

	var policy backoff.BackOff = b
	if r.retryMaxElapsed <= 0 {
		policy = &backoff.StopBackOff{}
	}

	return backoff.Retry(op, backoff.WithContext(policy, ctx)) == nil
}
