// Package respond writes JSON responses and maps domain errors to HTTP
// statuses without leaking credentials.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"feedient/internal/domain/entity"
	"feedient/internal/observability/logging"
	"feedient/internal/resilience/circuitbreaker"
)

// JSON writes v with status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// Headers are already sent.
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// Error writes {"error": err.Error()} with status code.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// AppError carries a user-facing message and status for an internal error.
type AppError struct {
	UserMsg string
	Err     error
	Code    int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMsg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with the message and status shown to the caller.
func NewAppError(code int, userMsg string, err error) *AppError {
	return &AppError{Code: code, UserMsg: userMsg, Err: err}
}

// Status maps err to the HTTP status it is answered with.
func Status(err error) int {
	var (
		appErr      *AppError
		oauthErr    *entity.OAuthError
		validation  *entity.ValidationError
		providerErr *entity.ProviderError
		parseErr    *entity.ParseError
	)
	switch {
	case errors.As(err, &appErr):
		return appErr.Code
	case errors.As(err, &oauthErr):
		return http.StatusUnauthorized
	case errors.Is(err, entity.ErrRateLimitReached):
		return http.StatusTooManyRequests
	case circuitbreaker.IsRejection(err):
		return http.StatusServiceUnavailable
	case errors.As(err, &validation),
		errors.Is(err, entity.ErrFormEmptyFields),
		errors.Is(err, entity.ErrComposeMaxLength):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrProviderNotSupported),
		errors.Is(err, entity.ErrActionNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrCapabilityNotSupported):
		return http.StatusNotImplemented
	case errors.As(err, &providerErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// Fail answers err. Provider auth failures are returned as the OAuthError
// body so clients can prompt for re-linking; errors that map to a 5xx status
// other than 501, 502 and 503 are logged and answered generically.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	code := Status(err)

	var oauthErr *entity.OAuthError
	if errors.As(err, &oauthErr) {
		JSON(w, code, map[string]any{"error": oauthErr})
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			logging.FromContext(r.Context()).Warn("request failed",
				slog.Int("code", code),
				slog.String("user_message", appErr.UserMsg),
				slog.String("error", SanitizeError(appErr.Err)))
		}
		JSON(w, code, map[string]string{"error": appErr.UserMsg})
		return
	}

	switch code {
	case http.StatusInternalServerError, http.StatusGatewayTimeout:
		logging.FromContext(r.Context()).Error("internal server error",
			slog.Int("code", code),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", SanitizeError(err)))
		JSON(w, code, map[string]string{"error": http.StatusText(code)})
	default:
		JSON(w, code, map[string]string{"error": SanitizeError(err)})
	}
}
