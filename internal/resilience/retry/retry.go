// Package retry re-runs a failing operation with exponential backoff.
// Provider strategies never retry on their own; the poll worker wraps whole
// fetches with WithBackoffFunc to ride out rate limits and transient failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"

	"feedient/internal/observability/logging"
)

// Config shapes the backoff. The n-th retry waits
// InitialDelay*Multiplier^(n-1), capped at MaxDelay, plus up to
// JitterFraction of that as random jitter.
type Config struct {
	// MaxAttempts counts the first call.
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
}

// PollConfig is used around one provider fetch. Provider rate limits reset
// on the order of minutes, so the delays are long and the attempts few.
func PollConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   15 * time.Second,
		MaxDelay:       2 * time.Minute,
		Multiplier:     3.0,
		JitterFraction: 0.2,
	}
}

// WithBackoff retries fn on errors IsRetryable accepts.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	return WithBackoffFunc(ctx, cfg, IsRetryable, fn)
}

// WithBackoffFunc calls fn until it succeeds, retryable rejects its error or
// cfg.MaxAttempts calls were made. An error carrying a RetryAfter hint waits
// that long instead of the computed delay, still capped at MaxDelay.
func WithBackoffFunc(ctx context.Context, cfg Config, retryable func(error) bool, fn func() error) error {
	logger := logging.FromContext(ctx)
	attempts := max(cfg.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("operation succeeded after retry", slog.Int("attempt", attempt))
			}
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		delay := cfg.delay(attempt)
		if hint := RetryAfter(lastErr); hint > 0 {
			delay = min(hint, cfg.MaxDelay)
		}
		logger.Warn("operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", delay),
			slog.Any("error", lastErr))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w", errors.Join(ctx.Err(), lastErr))
		}
	}
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", attempts, lastErr)
}

// delay is the wait before retry n, n starting at 1.
func (c Config) delay(n int) time.Duration {
	d := float64(c.InitialDelay)
	for i := 1; i < n; i++ {
		d *= c.Multiplier
		if c.MaxDelay > 0 && d >= float64(c.MaxDelay) {
			d = float64(c.MaxDelay)
			break
		}
	}
	return addJitter(time.Duration(d), c.JitterFraction)
}

// IsRetryable reports whether err is a transient transport failure.
// Cancellation and deadlines are final.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 ||
			httpErr.StatusCode == http.StatusTooManyRequests ||
			httpErr.StatusCode == http.StatusRequestTimeout
	}
	return false
}

// HTTPError is a provider response treated as a transport failure rather
// than a provider error body.
type HTTPError struct {
	StatusCode int
	Message    string
	// RetryAfter is the server's Retry-After, zero when absent.
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewHTTPError builds an HTTPError from resp, reading Retry-After when it
// is given in seconds.
func NewHTTPError(resp *http.Response) *HTTPError {
	e := &HTTPError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && s > 0 {
		e.RetryAfter = time.Duration(s) * time.Second
	}
	return e
}

// RetryAfter returns the wait an error in err's chain asks for, or zero.
func RetryAfter(err error) time.Duration {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.RetryAfter
	}
	return 0
}

func addJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 || d <= 0 {
		return d
	}
	fraction = min(fraction, 1.0)
	// #nosec G404 -- jitter does not need cryptographic randomness.
	return d + time.Duration(rand.Float64()*float64(d)*fraction)
}
