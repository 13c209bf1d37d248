package accounts

import (
	"errors"
	"net/http"
	"strconv"

	"feedient/internal/domain/entity"
	"feedient/internal/handler/http/auth"
	"feedient/internal/handler/http/respond"
	"feedient/internal/usecase/account"
)

var errNoUser = errors.New("missing user")

// fail maps account errors onto respond's status table.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, account.ErrAccountNotFound):
		err = respond.NewAppError(http.StatusNotFound, "account not found", nil)
	case errors.Is(err, account.ErrNoProfiles):
		err = respond.NewAppError(http.StatusUnprocessableEntity, "provider returned no account to link", err)
	}
	respond.Fail(w, r, err)
}

// user returns the authenticated user or answers 401.
func user(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := auth.UserFromContext(r.Context())
	if id == "" {
		respond.Error(w, http.StatusUnauthorized, errNoUser)
		return "", false
	}
	return id, true
}

// intParam parses an optional non-negative integer query parameter.
func intParam(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &entity.ValidationError{Field: key, Message: "must be a non-negative integer"}
	}
	return n, nil
}
