package rss

import (
	"feedient/internal/domain/entity"
	"feedient/internal/provider"
)

// Notifications is empty: feeds have no notifications.
type Notifications struct {
	provider.NoNotifications[Item]
}

var _ provider.NotificationStrategy[Item] = (*Notifications)(nil)

// NewNotifications builds the strategy on top of auth.
func NewNotifications(auth *Auth, _ provider.Options) (*Notifications, error) {
	if auth == nil {
		return nil, entity.ErrMissingAuthStrategy
	}
	return &Notifications{}, nil
}
