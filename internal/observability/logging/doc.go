// Package logging provides structured logging utilities with context propagation.
//
// Loggers are plain *slog.Logger values. The poll worker stores one per poll
// cycle in the context (WithLogger) tagged with the cycle's request id, and
// provider strategies read it back with FromContext.
//
// Example usage:
//
//	logger := logging.NewLogger()
//	ctx := logging.WithLogger(requestid.Ensure(ctx), logger)
//	logging.ForUserProvider(logging.FromContext(ctx), up).Info("polling")
package logging
