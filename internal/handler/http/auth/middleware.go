// Package auth authenticates API callers with HS256 bearer tokens issued by
// the identity service. The token subject is the user that owns linked
// accounts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"feedient/internal/handler/http/respond"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const ctxUser ctxKey = "user"

// MinSecretLength is the shortest accepted signing secret (256 bits).
const MinSecretLength = 32

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid token")
	errExpiredToken = errors.New("token expired")
)

// ValidateSecret rejects secrets too short or too common to sign tokens with.
func ValidateSecret(secret string) error {
	if secret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if len(secret) < MinSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", MinSecretLength)
	}
	for _, weak := range []string{"secret", "password", "changeme", "default"} {
		if strings.Contains(strings.ToLower(secret), weak) && len(secret) < 2*MinSecretLength {
			return fmt.Errorf("JWT_SECRET must not be built from %q", weak)
		}
	}
	return nil
}

// Authz requires a valid bearer token on every endpoint that is not public
// and stores the token subject as the request's user.
func Authz(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublicEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			user, err := validateJWT(r.Header.Get("Authorization"), secret)
			RecordAuthzCheckDuration(time.Since(start).Seconds())
			if err != nil {
				RecordAuthzResult(result(err))
				respond.Error(w, http.StatusUnauthorized, fmt.Errorf("unauthorized: %w", err))
				return
			}
			RecordAuthzResult("success")
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser stores the authenticated user id in ctx.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUser, userID)
}

// UserFromContext returns the authenticated user id, or "".
func UserFromContext(ctx context.Context) string {
	user, _ := ctx.Value(ctxUser).(string)
	return user
}

func result(err error) string {
	switch {
	case errors.Is(err, errMissingToken):
		return "missing"
	case errors.Is(err, errExpiredToken):
		return "expired"
	}
	return "invalid"
}

func validateJWT(authz string, secret []byte) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return "", errMissingToken
	}
	tok, err := jwt.Parse(strings.TrimPrefix(authz, prefix), func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if errors.Is(err, jwt.ErrTokenExpired) {
		return "", errExpiredToken
	}
	if err != nil || !tok.Valid {
		return "", errInvalidToken
	}

	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errInvalidToken
	}
	return sub, nil
}
