package tumblr

import (
	"feedient/internal/domain/entity"
	"feedient/internal/provider"
)

// Notifications is empty: the API exposes no notifications.
type Notifications struct {
	provider.NoNotifications[Post]
}

var _ provider.NotificationStrategy[Post] = (*Notifications)(nil)

// NewNotifications builds the strategy on top of auth.
func NewNotifications(auth *Auth, opts provider.Options) (*Notifications, error) {
	if auth == nil {
		return nil, entity.ErrMissingAuthStrategy
	}
	if err := opts.RequireAPIURL(); err != nil {
		return nil, err
	}
	return &Notifications{}, nil
}
