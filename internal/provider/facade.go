package provider

import (
	"context"
	"slices"

	"feedient/internal/domain/entity"
	"feedient/internal/observability/metrics"
)

// FeedAPI applies the normalization pipeline on top of a FeedStrategy.
// A FeedAPI is immutable; build one per call.
type FeedAPI[P, C any] struct {
	strategy FeedStrategy[P, C]
}

// NewFeedAPI wraps strategy.
func NewFeedAPI[P, C any](strategy FeedStrategy[P, C]) *FeedAPI[P, C] {
	return &FeedAPI[P, C]{strategy: strategy}
}

// GetFeed fetches raw posts, maps them through ProcessPost, drops unsupported
// ones, keeps only posts at or after q.Since and sorts them newest first.
func (f *FeedAPI[P, C]) GetFeed(ctx context.Context, up *entity.UserProvider, q FeedQuery) ([]*entity.Post, error) {
	raw, err := f.strategy.GetFeed(ctx, up, q)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &entity.TransformError{Subject: "Posts"}
	}

	posts := transform(raw, up, f.strategy.ProcessPost, "post")
	if q.Since != "" {
		posts = slices.DeleteFunc(posts, func(p *entity.Post) bool {
			return entity.CompareCursor(p.Pagination.Since, q.Since) < 0
		})
	}

	slices.SortStableFunc(posts, func(a, b *entity.Post) int {
		return b.Content.DateCreated.Compare(a.Content.DateCreated)
	})
	return posts, nil
}

// GetPost fetches and normalizes a single post. An unsupported post is
// reported the same way as a missing one.
func (f *FeedAPI[P, C]) GetPost(ctx context.Context, up *entity.UserProvider, postID string) (*entity.Post, error) {
	raw, err := f.strategy.GetPost(ctx, up, postID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &entity.TransformError{Subject: "Post"}
	}

	post := f.strategy.ProcessPost(raw, up)
	if post == nil {
		metrics.RecordItemsDropped(up.Provider.String(), "post", 1)
		return nil, &entity.TransformError{Subject: "Post"}
	}
	return post, nil
}

// GetPostComments fetches a comment thread and normalizes both the comments
// and their parents. Comments are sorted newest first; parents keep the order
// the provider walked them in.
func (f *FeedAPI[P, C]) GetPostComments(ctx context.Context, up *entity.UserProvider, q CommentQuery) (*entity.CommentThread, error) {
	raw, err := f.strategy.GetPostComments(ctx, up, q)
	if err != nil {
		return nil, err
	}
	if raw == nil || raw.Comments == nil {
		return nil, &entity.TransformError{Subject: "Comments"}
	}

	comments := transform(raw.Comments, up, f.strategy.ProcessComment, "comment")
	slices.SortStableFunc(comments, func(a, b *entity.Comment) int {
		return b.Content.DateCreated.Compare(a.Content.DateCreated)
	})

	thread := &entity.CommentThread{
		UserProviderID:  up.ID,
		PostID:          q.PostID,
		Comments:        deref(comments),
		ParentComments:  deref(transform(raw.ParentComments, up, f.strategy.ProcessComment, "comment")),
		HasMoreComments: raw.HasMore,
		PostLink:        raw.PostLink,
	}
	return thread, nil
}

// NotificationAPI applies the normalization pipeline on top of a NotificationStrategy.
type NotificationAPI[N any] struct {
	strategy NotificationStrategy[N]
}

// NewNotificationAPI wraps strategy.
func NewNotificationAPI[N any](strategy NotificationStrategy[N]) *NotificationAPI[N] {
	return &NotificationAPI[N]{strategy: strategy}
}

// GetNotifications fetches, normalizes and sorts notifications newest first.
// Providers without a notification API return an empty list, never an error.
func (n *NotificationAPI[N]) GetNotifications(ctx context.Context, up *entity.UserProvider, since string, limit int) ([]*entity.Notification, error) {
	raw, err := n.strategy.GetNotifications(ctx, up, since, limit)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &entity.TransformError{Subject: "Notifications"}
	}

	out := transform(raw, up, n.strategy.ProcessNotification, "notification")
	slices.SortStableFunc(out, func(a, b *entity.Notification) int {
		return b.CreatedTime.Compare(a.CreatedTime)
	})
	return out, nil
}

// PagesAPI applies the normalization pipeline on top of a PageStrategy.
type PagesAPI[G any] struct {
	strategy PageStrategy[G]
}

// NewPagesAPI wraps strategy.
func NewPagesAPI[G any](strategy PageStrategy[G]) *PagesAPI[G] {
	return &PagesAPI[G]{strategy: strategy}
}

// GetPages fetches and normalizes managed pages in provider order.
func (p *PagesAPI[G]) GetPages(ctx context.Context, up *entity.UserProvider) ([]*entity.Page, error) {
	raw, err := p.strategy.GetPages(ctx, up)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &entity.TransformError{Subject: "Pages"}
	}
	return transform(raw, up, p.strategy.ProcessPage, "page"), nil
}

// transform maps raw through process, skipping nil inputs and nil outputs.
func transform[R, T any](raw []*R, up *entity.UserProvider, process func(*R, *entity.UserProvider) *T, kind string) []*T {
	out := make([]*T, 0, len(raw))
	for _, r := range raw {
		if r == nil {
			continue
		}
		if t := process(r, up); t != nil {
			out = append(out, t)
		}
	}
	metrics.RecordItemsDropped(up.Provider.String(), kind, len(raw)-len(out))
	return out
}

func deref[T any](in []*T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = *v
	}
	return out
}
