package twitter

import (
	"context"
	"net/url"
	"strconv"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"
)

// Notifications reads the mentions timeline.
type Notifications struct {
	auth   *Auth
	apiURL string
}

var _ provider.NotificationStrategy[Tweet] = (*Notifications)(nil)

// NewNotifications builds the strategy on top of auth.
func NewNotifications(auth *Auth, opts provider.Options) (*Notifications, error) {
	if auth == nil {
		return nil, entity.ErrMissingAuthStrategy
	}
	if err := opts.RequireAPIURL(); err != nil {
		return nil, err
	}
	return &Notifications{auth: auth, apiURL: opts.APIURL}, nil
}

// GetNotifications implements provider.NotificationStrategy. since is a tweet id.
func (n *Notifications) GetNotifications(ctx context.Context, up *entity.UserProvider, since string, limit int) ([]*Tweet, error) {
	params := url.Values{"include_rts": {"true"}}
	if limit > 0 {
		params.Set("count", strconv.Itoa(limit))
	}
	if since != "" {
		params.Set("since_id", since)
	}

	res, err := n.auth.call(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.Get(ctx, n.apiURL+"/statuses/mentions_timeline.json", params)
	})
	if err != nil {
		return nil, err
	}
	var mentions []*Tweet
	if err := res.JSON(&mentions); err != nil {
		return nil, err
	}
	return mentions, nil
}

// ProcessNotification implements provider.NotificationStrategy. Mentions are
// never marked read.
func (n *Notifications) ProcessNotification(t *Tweet, _ *entity.UserProvider) *entity.Notification {
	if t.User == nil {
		return nil
	}
	return &entity.Notification{
		ID:          t.IDStr,
		CreatedTime: t.CreatedAt.Time,
		Link:        statusLink(t.User, t.IDStr),
		Read:        0,
		UserFrom:    postUser(t.User),
		Content:     entity.NotificationContent{Message: t.Text},
		Pagination:  entity.Pagination{Since: t.IDStr},
	}
}
