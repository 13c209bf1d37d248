package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"feedient/internal/observability/logging"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RateLimitError is a 429 answer from a webhook.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError is any other 4xx answer. It is not retried.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string { return e.Message }

// ServerError is a 5xx answer.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string { return e.Message }

// isRetryableError reports whether err is worth another attempt: server and
// network errors are, client errors are not. Rate limits are handled apart.
func isRetryableError(err error) bool {
	var (
		clientErr    *ClientError
		rateLimitErr *RateLimitError
	)
	if errors.As(err, &clientErr) || errors.As(err, &rateLimitErr) {
		return false
	}
	return true
}

const (
	defaultMaxAttempts = 2
	defaultBaseDelay   = 5 * time.Second
	defaultRetryAfter  = 5 * time.Second
	maxErrorBody       = 4 << 10
)

// webhook posts JSON payloads to one URL, paced by a token bucket and
// retried on server errors and 429 answers.
type webhook struct {
	service     string
	url         string
	client      *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseDelay   time.Duration
}

func newWebhook(service, url string, timeout time.Duration, rps float64, burst int) *webhook {
	return &webhook{
		service:     service,
		url:         url,
		client:      &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(rps), burst),
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}
}

// deliver waits for the rate limiter, then posts payload until it is
// accepted or the attempts run out.
func (w *webhook) deliver(ctx context.Context, payload any) error {
	logger := logging.FromContext(ctx).With(
		slog.String("webhook", w.service),
		slog.String("delivery_id", uuid.NewString()))

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", w.service, err)
	}

	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if err := w.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s rate limiter: %w", w.service, err)
		}

		err := w.post(ctx, body)
		if err == nil {
			logger.Debug("webhook delivered", slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		var rateLimitErr *RateLimitError
		delay := w.baseDelay * time.Duration(attempt)
		switch {
		case errors.As(err, &rateLimitErr):
			delay = rateLimitErr.RetryAfter
			logger.Warn("webhook rate limited, backing off",
				slog.Duration("retry_after", delay),
				slog.Int("attempt", attempt))
		case !isRetryableError(err):
			return err
		default:
			logger.Warn("webhook request failed",
				slog.Any("error", err),
				slog.Int("attempt", attempt))
		}
		if attempt == w.maxAttempts {
			break
		}

		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%s backoff: %w", w.service, ctx.Err())
		}
	}
	return fmt.Errorf("%s webhook failed after %d attempts: %w", w.service, w.maxAttempts, lastErr)
}

func (w *webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", w.service, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute %s request: %w", w.service, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    w.service + " rate limit exceeded",
			RetryAfter: retryAfter(resp, respBody),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s client error %d: %s", w.service, resp.StatusCode, respBody),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s server error %d: %s", w.service, resp.StatusCode, respBody),
		}
	}
	return fmt.Errorf("%s: unexpected status %d", w.service, resp.StatusCode)
}

// retryAfter reads the wait from a Discord style JSON body, then from the
// Retry-After header, and defaults to five seconds.
func retryAfter(resp *http.Response, body []byte) time.Duration {
	var payload struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.RetryAfter > 0 {
		return time.Duration(payload.RetryAfter * float64(time.Second))
	}
	if h := resp.Header.Get("Retry-After"); h != "" {
		if seconds, err := strconv.Atoi(h); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultRetryAfter
}
