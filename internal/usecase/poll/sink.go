package poll

import (
	"context"
	"log/slog"

	"feedient/internal/domain/entity"
	"feedient/internal/observability/logging"
)

// LogSink reports new items to the logger carried by the context. It is the
// worker's sink when no downstream consumer is configured.
type LogSink struct{}

func (LogSink) Posts(ctx context.Context, up *entity.UserProvider, posts []*entity.Post) error {
	logging.FromContext(ctx).Info("new posts",
		slog.Int("count", len(posts)),
		slog.String("newest_id", posts[0].ID),
		slog.Time("newest_date", posts[0].Content.DateCreated))
	return nil
}

func (LogSink) Notifications(ctx context.Context, up *entity.UserProvider, notifications []*entity.Notification) error {
	logging.FromContext(ctx).Info("new notifications",
		slog.Int("count", len(notifications)),
		slog.String("newest_id", notifications[0].ID),
		slog.Time("newest_date", notifications[0].CreatedTime))
	return nil
}
