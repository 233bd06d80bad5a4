package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/matillion/reaction-tally/internal/reaction"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

const (
	maxRetryAttempts = 5
	baseBackoff      = time.Second
	maxBackoff       = 30 * time.Second
)

// cookieTransport wraps an http.RoundTripper to add cookie headers
type cookieTransport struct {
	transport http.RoundTripper
	cookie    string
	logger    *zap.Logger
}

func (t *cookieTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Cookie", "d="+t.cookie)
	resp, err := t.transport.RoundTrip(req)
	if err != nil {
		t.logger.Debug("Slack request failed", zap.String("path", req.URL.Path), zap.Error(err))
		return nil, err
	}
	t.logger.Debug("Slack request", zap.String("path", req.URL.Path), zap.Int("status", resp.StatusCode))
	return resp, nil
}

// newCookieTransport creates a transport with cookie authentication
func newCookieTransport(cookie string, logger *zap.Logger) *cookieTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cookieTransport{
		transport: http.DefaultTransport,
		cookie:    cookie,
		logger:    logger,
	}
}

// withRetry calls fn until it succeeds, fails with something other than a
// rate limit, or maxRetryAttempts is reached. The wait honours Retry-After and
// falls back to exponential backoff when the service gives no hint.
func withRetry(ctx context.Context, logger *zap.Logger, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rateLimitErr *slack.RateLimitedError
		if !errors.As(err, &rateLimitErr) {
			return err
		}
		if attempt >= maxRetryAttempts {
			return fmt.Errorf("%w after %d attempts: %w", reaction.ErrRateLimited, attempt, err)
		}

		wait := rateLimitErr.RetryAfter
		if wait <= 0 {
			wait = backoff(attempt)
		}
		logger.Warn("Slack rate limit hit, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("retry_after", wait))

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// backoff returns the wait before retry number attempt (1-based).
func backoff(attempt int) time.Duration {
	d := baseBackoff << (attempt - 1)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}
