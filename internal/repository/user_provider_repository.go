package repository

import (
	"context"
	"errors"
	"time"

	"feedient/internal/domain/entity"
)

// CursorKind names the stream a stored cursor belongs to.
type CursorKind string

// Cursor kinds kept per linked account.
const (
	CursorFeed          CursorKind = "feed"
	CursorNotifications CursorKind = "notifications"
)

// Cursor is the stored position of one polled stream: the pagination cursor
// of the newest delivered item and the ids of the items delivered at exactly
// that cursor. Providers may hand those boundary items back on the next poll.
type Cursor struct {
	Since   string
	SeenIDs []string
}

// UserProviderRepository stores linked accounts, their tokens and the
// pagination cursor of each polled stream.
type UserProviderRepository interface {
	Get(ctx context.Context, id string) (*entity.UserProvider, error)
	// ListPollable returns the accounts that do not need re-authorization.
	ListPollable(ctx context.Context) ([]*entity.UserProvider, error)
	// ListByUser returns the accounts of userID in display order.
	ListByUser(ctx context.Context, userID string) ([]*entity.UserProvider, error)
	// Save links up, assigning an id when it has none.
	Save(ctx context.Context, up *entity.UserProvider) error
	// Delete unlinks id when it belongs to userID.
	Delete(ctx context.Context, id, userID string) error
	UpdateTokens(ctx context.Context, id string, tokens entity.Tokens) error
	MarkNeedsReauth(ctx context.Context, id string, code int) error
	TouchPolledAt(ctx context.Context, id string, t time.Time) error

	// Cursor returns the zero Cursor when nothing was stored yet.
	Cursor(ctx context.Context, id string, kind CursorKind) (Cursor, error)
	SaveCursor(ctx context.Context, id string, kind CursorKind, c Cursor) error
}

// ErrNotFound is returned by writes addressed to an unknown account.
var ErrNotFound = errors.New("user provider not found")
