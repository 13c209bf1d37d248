package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOAuthError(t *testing.T) {
	err := NewOAuthError("up-1", CodeTokenRevoked)

	assert.Equal(t, "OAuthException", err.Type)
	assert.Equal(t, 1000, err.Code)
	assert.Equal(t, "OAuthException 1000 for provider up-1", err.Error())

	wrapped := fmt.Errorf("get feed: %w", err)
	assert.True(t, IsAuthError(wrapped))

	var oe *OAuthError
	if assert.True(t, errors.As(wrapped, &oe)) {
		assert.Equal(t, "up-1", oe.ProviderID)
	}
}

func TestIsAuthError_OtherErrors(t *testing.T) {
	assert.False(t, IsAuthError(nil))
	assert.False(t, IsAuthError(ErrRateLimitReached))
	assert.False(t, IsAuthError(&ProviderError{Provider: Facebook, Message: "boom"}))
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "form empty fields", err: ErrFormEmptyFields, want: "errors.FORM_EMPTY_FIELDS"},
		{name: "action not found", err: ErrActionNotFound, want: "errors.ACTION_NOT_FOUND"},
		{name: "rate limit", err: ErrRateLimitReached, want: "errors.OAUTH_RATE_LIMIT_REACHED"},
		{name: "compose length", err: ErrComposeMaxLength, want: "errors.COMPOSE_MAX_LENGTH_EXCEEDED"},
		{name: "transform", err: &TransformError{Subject: "Posts"}, want: "Posts is undefined"},
		{name: "provider", err: &ProviderError{Provider: Twitter, Message: "Sorry"}, want: "twitter: Sorry"},
		{name: "validation", err: &ValidationError{Field: "url", Message: "required"}, want: "validation error on field 'url': required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestParseError_Unwrap(t *testing.T) {
	inner := errors.New("unexpected end of JSON input")
	err := &ParseError{Provider: Instagram, Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "instagram")
}
