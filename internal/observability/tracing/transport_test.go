package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracer(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(sdktrace.NewTracerProvider())
	})
	return exporter, tp
}

func attrs(span tracetest.SpanStub) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(span.Attributes))
	for _, kv := range span.Attributes {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestTransport_CreatesClientSpan(t *testing.T) {
	exporter, _ := setupTracer(t)

	var traceparent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: NewTransport("twitter", nil)}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL+"/1.1/statuses/home_timeline.json", nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "twitter GET", span.Name)
	assert.NotEmpty(t, traceparent, "trace context should be propagated")
	assert.Contains(t, traceparent, span.SpanContext.TraceID().String())

	a := attrs(span)
	assert.Equal(t, "twitter", a["provider.name"].AsString())
	assert.Equal(t, "/1.1/statuses/home_timeline.json", a["http.path"].AsString())
	assert.Equal(t, int64(200), a["http.status_code"].AsInt64())
	assert.NotEqual(t, codes.Error, span.Status.Code)
	assert.Empty(t, req.Header.Get("traceparent"), "caller request must not be mutated")
}

func TestTransport_ServerErrorMarksSpan(t *testing.T) {
	exporter, _ := setupTracer(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := &http.Client{Transport: NewTransport("tumblr", nil)}
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

type failingTransport struct{ err error }

func (f failingTransport) RoundTrip(*http.Request) (*http.Response, error) { return nil, f.err }

func TestTransport_TransportErrorRecorded(t *testing.T) {
	exporter, _ := setupTracer(t)

	boom := errors.New("connection reset")
	tr := NewTransport("youtube", failingTransport{err: boom})
	req := httptest.NewRequest(http.MethodPost, "http://example.invalid/token", nil)

	_, err := tr.RoundTrip(req)
	require.ErrorIs(t, err, boom)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.NotEmpty(t, spans[0].Events, "error event should be recorded")
}

func TestTransport_ParentSpanPropagates(t *testing.T) {
	exporter, tp := setupTracer(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, parent := tp.Tracer("test").Start(context.Background(), "poll-cycle")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := (&http.Client{Transport: NewTransport("rss", nil)}).Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	parent.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].SpanContext.TraceID())
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}
