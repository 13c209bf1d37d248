package provider

import (
	"context"

	"feedient/internal/domain/entity"
)

// NoNotifications is the notification strategy of providers without a
// notification API. It always yields an empty list.
type NoNotifications[N any] struct{}

// GetNotifications implements NotificationStrategy.
func (NoNotifications[N]) GetNotifications(context.Context, *entity.UserProvider, string, int) ([]*N, error) {
	return []*N{}, nil
}

// ProcessNotification implements NotificationStrategy.
func (NoNotifications[N]) ProcessNotification(*N, *entity.UserProvider) *entity.Notification {
	return nil
}

// NoComments is the comment thread of providers without a comments API.
func NoComments[C any]() *RawComments[C] {
	return &RawComments[C]{Comments: []*C{}, ParentComments: []*C{}}
}
