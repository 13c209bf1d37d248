package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"feedient/internal/domain/entity"
	"feedient/internal/observability/logging"
	"feedient/internal/observability/metrics"
	"feedient/internal/observability/tracing"
	"feedient/internal/resilience/circuitbreaker"
	"feedient/internal/resilience/retry"
)

// maxResponseBytes caps how much of a provider response is read.
const maxResponseBytes = 10 << 20

// Response is a fully read provider response.
type Response struct {
	Provider   entity.ProviderName
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the body into v, reporting failures as *entity.ParseError.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &entity.ParseError{Provider: r.Provider, Err: err}
	}
	return nil
}

// Client performs outbound calls for one provider. Every call runs through the
// provider's circuit breaker, carries a deadline and is traced and measured.
// Responses below 500 are returned to the caller so auth strategies can
// classify error bodies; 5xx responses become *retry.HTTPError.
type Client struct {
	provider entity.ProviderName
	http     *http.Client
	breaker  *circuitbreaker.CircuitBreaker
	timeout  time.Duration
}

// NewClient builds a Client from the provider options.
func NewClient(name entity.ProviderName, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: tracing.NewTransport(name.String(), nil)}
	}

	breaker := opts.Breaker
	if breaker == nil {
		breaker = circuitbreaker.New(circuitbreaker.ProviderAPIConfig(name.String()))
	}

	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	return &Client{provider: name, http: httpClient, breaker: breaker, timeout: timeout}
}

// HTTPClient returns the underlying client, for libraries that make their own calls.
func (c *Client) HTTPClient() *http.Client { return c.http }

// WithHTTPClient returns a copy of c sending requests through h (for example
// an OAuth1 signing client) while sharing the breaker.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	cp := *c
	cp.http = h
	return &cp
}

// Get issues a GET with query appended to rawURL.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	return c.send(ctx, http.MethodGet, withQuery(rawURL, query), nil, "")
}

// Delete issues a DELETE with query appended to rawURL.
func (c *Client) Delete(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	return c.send(ctx, http.MethodDelete, withQuery(rawURL, query), nil, "")
}

// PostForm issues a url-encoded POST.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) (*Response, error) {
	return c.send(ctx, http.MethodPost, rawURL, []byte(form.Encode()), "application/x-www-form-urlencoded")
}

// PostJSON issues a POST with v encoded as JSON.
func (c *Client) PostJSON(ctx context.Context, rawURL string, v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return c.send(ctx, http.MethodPost, rawURL, body, "application/json")
}

// PostMultipart issues a multipart POST with fields and the file under fileField.
func (c *Client) PostMultipart(ctx context.Context, rawURL string, fields map[string]string, fileField string, file *Attachment) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile(fileField, file.Filename)
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, fmt.Errorf("write form file: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}
	return c.send(ctx, http.MethodPost, rawURL, buf.Bytes(), w.FormDataContentType())
}

func (c *Client) send(ctx context.Context, method, rawURL string, body []byte, contentType string) (*Response, error) {
	build := func(ctx context.Context) (*http.Request, error) {
		var r io.Reader
		if body != nil {
			r = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, r)
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		return req, nil
	}
	return c.Do(ctx, build)
}

// Do executes the request built by build under the call deadline.
func (c *Client) Do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", c.provider, err)
	}

	logger := logging.FromContext(ctx)
	start := time.Now()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(req)
	})
	if err != nil {
		if circuitbreaker.IsRejection(err) {
			metrics.RecordProviderRejected(c.provider.String())
			logger.Warn("provider circuit breaker open, request rejected",
				slog.String("provider", c.provider.String()),
				slog.String("state", c.breaker.State().String()))
		} else {
			metrics.RecordProviderRequest(c.provider.String(), statusOf(err), time.Since(start))
		}
		return nil, fmt.Errorf("%s %s %s: %w", c.provider, req.Method, redact(req.URL), err)
	}

	res := result.(*Response)
	metrics.RecordProviderRequest(c.provider.String(), res.StatusCode, time.Since(start))
	logger.Debug("provider call",
		slog.String("provider", c.provider.String()),
		slog.String("method", req.Method),
		slog.String("url", redact(req.URL)),
		slog.Int("status", res.StatusCode),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

func (c *Client) roundTrip(req *http.Request) (*Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		// *url.Error repeats the request URL, tokens included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redactRaw(urlErr.URL)
		}
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, retry.NewHTTPError(resp)
	}

	return &Response{
		Provider:   c.provider,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func statusOf(err error) int {
	var httpErr *retry.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

func withQuery(rawURL string, query url.Values) string {
	if len(query) == 0 {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + query.Encode()
}

func redactRaw(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(unparsable url)"
	}
	return redact(u)
}

// redact strips credentials from u for logs and errors.
func redact(u *url.URL) string {
	cp := *u
	q := cp.Query()
	for _, k := range []string{"access_token", "client_secret", "refresh_token", "key", "api_key"} {
		if q.Has(k) {
			q.Set(k, "REDACTED")
		}
	}
	cp.RawQuery = q.Encode()
	return cp.String()
}
