// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - Provider API metrics (requests, latency, auth errors, token refreshes)
//   - Poll metrics (cycles, per-account duration, collected items)
//   - Database query metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the worker's /metrics endpoint.
//
// Example usage:
//
//	start := time.Now()
//	resp, err := httpClient.Do(req)
//	metrics.RecordProviderRequest("twitter", resp.StatusCode, time.Since(start))
package metrics
