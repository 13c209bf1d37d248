package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Transport is an http.RoundTripper that wraps every outbound provider call
// in a client span and injects the trace context into the request headers.
type Transport struct {
	// Provider is recorded as the provider.name span attribute.
	Provider string
	// Base is the underlying transport; http.DefaultTransport when nil.
	Base http.RoundTripper
}

// NewTransport wraps base for provider.
func NewTransport(provider string, base http.RoundTripper) *Transport {
	return &Transport{Provider: provider, Base: base}
}

// RoundTrip implements http.RoundTripper.
//
// The span is named "<provider> <METHOD>" and records:
//   - provider.name, http.method, http.host and http.path before the call
//   - http.status_code after the call
//   - an error status for transport failures and 5xx responses
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	ctx, span := GetTracer().Start(req.Context(), t.Provider+" "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("provider.name", t.Provider),
			attribute.String("http.method", req.Method),
			attribute.String("http.host", req.URL.Host),
			attribute.String("http.path", req.URL.Path),
		),
	)
	defer span.End()

	// RoundTrippers must not modify the caller's request.
	out := req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(out.Header))

	resp, err := base.RoundTrip(out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, resp.Status)
	}
	return resp, nil
}
