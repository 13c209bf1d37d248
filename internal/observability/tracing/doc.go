// Package tracing provides OpenTelemetry tracing integration for outbound provider calls.
//
// Every provider HTTP client is built on a Transport, so each API call made by a
// strategy becomes a client span carrying the provider name and response status.
// The trace context of the caller (for example a poll cycle span) is propagated.
//
// Example usage:
//
//	httpClient := &http.Client{Transport: tracing.NewTransport("twitter", nil)}
//
//	ctx, span := tracing.GetTracer().Start(ctx, "poll-cycle")
//	defer span.End()
package tracing
