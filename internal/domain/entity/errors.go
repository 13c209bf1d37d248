package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")
)

// Provider errors. The messages are the stable error keys clients translate.
var (
	// ErrFormEmptyFields is returned when a required action or query field is missing.
	ErrFormEmptyFields = errors.New("errors.FORM_EMPTY_FIELDS")

	// ErrActionNotFound is returned when a provider does not declare the requested action.
	ErrActionNotFound = errors.New("errors.ACTION_NOT_FOUND")

	// ErrRateLimitReached is returned when the provider reports a rate limit.
	ErrRateLimitReached = errors.New("errors.OAUTH_RATE_LIMIT_REACHED")

	// ErrComposeMaxLength is returned when a composed message is too long for the provider.
	ErrComposeMaxLength = errors.New("errors.COMPOSE_MAX_LENGTH_EXCEEDED")

	// ErrProviderNotSupported is returned for provider names with no registration.
	ErrProviderNotSupported = errors.New("provider not supported")

	// ErrCapabilityNotSupported is returned when a known provider lacks a capability.
	ErrCapabilityNotSupported = errors.New("capability not supported by provider")

	// ErrMissingAuthStrategy is returned by strategy constructors given no auth strategy.
	ErrMissingAuthStrategy = errors.New("strategy requires an authentication strategy")

	// ErrMissingAPIURL is returned by strategy constructors given no API base URL.
	ErrMissingAPIURL = errors.New("strategy requires an apiURL option")
)

// OAuth error codes surfaced to clients so they can prompt a re-link.
const (
	CodeTokenRevoked     = 1000
	CodeNoLinkedAccount  = 1005
	CodePermissionDenied = 1006
)

// OAuthExceptionType is the Type of every OAuthError.
const OAuthExceptionType = "OAuthException"

// OAuthError is a terminal authentication failure for one linked account.
// It stays terminal until the user authorizes again.
type OAuthError struct {
	ProviderID string `json:"providerId"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
}

// NewOAuthError builds an OAuthError for the linked account providerID.
func NewOAuthError(providerID string, code int) *OAuthError {
	return &OAuthError{ProviderID: providerID, Type: OAuthExceptionType, Code: code}
}

func (e *OAuthError) Error() string {
	return fmt.Sprintf("%s %d for provider %s", e.Type, e.Code, e.ProviderID)
}

// ProviderError carries an error message reported by the provider API that is
// not an authentication failure.
type ProviderError struct {
	Provider ProviderName
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// TransformError means a fetch returned no usable data.
type TransformError struct {
	Subject string
}

func (e *TransformError) Error() string {
	return e.Subject + " is undefined"
}

// ParseError wraps a payload that could not be decoded.
type ParseError struct {
	Provider ProviderName
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s response: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// IsAuthError reports whether err is a terminal OAuthError.
func IsAuthError(err error) bool {
	var oe *OAuthError
	return errors.As(err, &oe)
}
