// Package observability groups the logging, metrics and tracing used by the
// API and the poll worker.
//
// Subpackages:
//   - logging: slog setup and context propagation of request and account fields
//   - metrics: Prometheus collectors for provider calls, polling and the database
//   - tracing: OpenTelemetry spans around outbound provider requests
//   - slo: service level indicators derived from poll results
//
// Example usage:
//
//	import (
//	    "feedient/internal/observability/logging"
//	    "feedient/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("worker started")
//
//	    metrics.RecordPollCycle(12, 1)
//	}
package observability
