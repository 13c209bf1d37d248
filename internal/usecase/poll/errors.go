package poll

import (
	"context"
	"errors"

	"feedient/internal/domain/entity"
	"feedient/internal/resilience/circuitbreaker"
	"feedient/internal/resilience/retry"
)

// Error types reported in poll_errors_total.
const (
	ErrorTypeAuth        = "auth"
	ErrorTypeRateLimit   = "rate_limit"
	ErrorTypeCircuitOpen = "circuit_open"
	ErrorTypeTransport   = "transport"
	ErrorTypeParse       = "parse"
	ErrorTypeProvider    = "provider"
	ErrorTypeValidation  = "validation"
	ErrorTypeCanceled    = "canceled"
	ErrorTypeOther       = "other"
)

// Classify maps a poll error to its metric label.
func Classify(err error) string {
	var (
		oauthErr     *entity.OAuthError
		parseErr     *entity.ParseError
		providerErr  *entity.ProviderError
		validErr     *entity.ValidationError
		transformErr *entity.TransformError
	)
	switch {
	case errors.As(err, &oauthErr):
		return ErrorTypeAuth
	case errors.Is(err, entity.ErrRateLimitReached):
		return ErrorTypeRateLimit
	case circuitbreaker.IsRejection(err):
		return ErrorTypeCircuitOpen
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeCanceled
	case errors.As(err, &parseErr), errors.As(err, &transformErr):
		return ErrorTypeParse
	case errors.As(err, &providerErr):
		return ErrorTypeProvider
	case errors.As(err, &validErr), errors.Is(err, entity.ErrFormEmptyFields):
		return ErrorTypeValidation
	case retry.IsRetryable(err):
		return ErrorTypeTransport
	}
	return ErrorTypeOther
}

// Retryable reports whether a failed fetch is worth repeating within the
// same cycle: provider rate limits and transient transport failures. Auth
// errors and an open circuit wait for the next cycle.
func Retryable(err error) bool {
	if entity.IsAuthError(err) || circuitbreaker.IsRejection(err) {
		return false
	}
	return errors.Is(err, entity.ErrRateLimitReached) || retry.IsRetryable(err)
}
