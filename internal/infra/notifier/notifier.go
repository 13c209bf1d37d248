// Package notifier forwards items found by the poll worker to a chat
// webhook. Delivery is best effort: a failed webhook is logged and never
// holds back the poll cursor.
package notifier

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"feedient/internal/domain/entity"
	"feedient/internal/observability/logging"
)

// Item is one post or notification rendered for a chat message.
type Item struct {
	Title  string
	Text   string
	URL    string
	Author string
	Time   time.Time
}

// Notifier delivers the items of one linked account.
type Notifier interface {
	Notify(ctx context.Context, up *entity.UserProvider, items []Item) error
}

// Next receives items after the Sink has notified.
type Next interface {
	Posts(ctx context.Context, up *entity.UserProvider, posts []*entity.Post) error
	Notifications(ctx context.Context, up *entity.UserProvider, notifications []*entity.Notification) error
}

// DefaultMaxItems caps the items sent for one account and stream per cycle.
const DefaultMaxItems = 10

// Sink sends new notifications, and new posts when ForwardPosts is set, to
// every Notifier, then hands the batch to Next.
type Sink struct {
	Notifiers    []Notifier
	Next         Next
	ForwardPosts bool
	// MaxItems keeps the newest items only; 0 means DefaultMaxItems.
	MaxItems int
}

func (s *Sink) Posts(ctx context.Context, up *entity.UserProvider, posts []*entity.Post) error {
	if s.ForwardPosts {
		newest := posts[:s.limit(len(posts))]
		items := make([]Item, 0, len(newest))
		for _, p := range newest {
			items = append(items, PostItem(p))
		}
		s.notify(ctx, up, items)
	}
	if s.Next == nil {
		return nil
	}
	return s.Next.Posts(ctx, up, posts)
}

func (s *Sink) Notifications(ctx context.Context, up *entity.UserProvider, notifications []*entity.Notification) error {
	newest := notifications[:s.limit(len(notifications))]
	items := make([]Item, 0, len(newest))
	for _, n := range newest {
		items = append(items, NotificationItem(n))
	}
	s.notify(ctx, up, items)
	if s.Next == nil {
		return nil
	}
	return s.Next.Notifications(ctx, up, notifications)
}

func (s *Sink) limit(n int) int {
	if s.MaxItems <= 0 {
		return min(n, DefaultMaxItems)
	}
	return min(n, s.MaxItems)
}

func (s *Sink) notify(ctx context.Context, up *entity.UserProvider, items []Item) {
	if len(items) == 0 {
		return
	}
	for _, n := range s.Notifiers {
		if err := n.Notify(ctx, up, items); err != nil {
			logging.FromContext(ctx).Warn("webhook notification dropped",
				slog.Int("items", len(items)),
				slog.Any("error", err))
		}
	}
}

// PostItem renders a post.
func PostItem(p *entity.Post) Item {
	title := p.Content.Title
	if title == "" && p.Content.Action != nil {
		title = p.Content.Action.Message
	}
	return Item{
		Title:  title,
		Text:   p.Content.Message,
		URL:    p.PostLink,
		Author: p.User.Name,
		Time:   p.Content.DateCreated,
	}
}

// NotificationItem renders a notification.
func NotificationItem(n *entity.Notification) Item {
	return Item{
		Text:   n.Content.Message,
		URL:    n.Link,
		Author: n.UserFrom.Name,
		Time:   n.CreatedTime,
	}
}

// accountLabel names the linked account a message is about.
func accountLabel(up *entity.UserProvider) string {
	if up.Account == nil {
		return string(up.Provider)
	}
	name := up.Account.Username
	if name == "" {
		name = up.Account.UserFullName
	}
	if name == "" {
		return string(up.Provider)
	}
	return string(up.Provider) + " / " + name
}

// truncate shortens text to at most maxLength runes, ending it with suffix
// when cut.
func truncate(text string, maxLength int, suffix string) string {
	r := []rune(text)
	if len(r) <= maxLength {
		return text
	}
	cut := max(maxLength-len([]rune(suffix)), 0)
	return strings.TrimRight(string(r[:cut]), " ") + suffix
}

// NoOpNotifier drops every item.
type NoOpNotifier struct{}

func (NoOpNotifier) Notify(context.Context, *entity.UserProvider, []Item) error { return nil }
