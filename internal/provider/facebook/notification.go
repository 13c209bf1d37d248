package facebook

import (
	"context"
	"strconv"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"
)

const notificationFields = "to{link,id,name},from{link,id,name},created_time,updated_time,title,link,unread"

// Notifications reads /me/notifications, read ones included.
type Notifications struct {
	auth   *Auth
	apiURL string
}

var _ provider.NotificationStrategy[Notification] = (*Notifications)(nil)

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

// GetNotifications implements provider.NotificationStrategy. since is unix seconds.
func (n *Notifications) GetNotifications(ctx context.Context, up *entity.UserProvider, since string, limit int) ([]*Notification, error) {
	params := token(up)
	params.Set("include_read", "true")
	params.Set("fields", notificationFields)
	if since != "" {
		params.Set("since", since)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	res, err := n.auth.call(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.Get(ctx, n.apiURL+"/me/notifications", params)
	})
	if err != nil {
		return nil, err
	}

	var page list[Notification]
	if err := res.JSON(&page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// ProcessNotification implements provider.NotificationStrategy.
func (n *Notifications) ProcessNotification(raw *Notification, up *entity.UserProvider) *entity.Notification {
	read := 1
	if raw.Unread == 1 {
		read = 0
	}
	return &entity.Notification{
		ID:          raw.ID,
		CreatedTime: raw.CreatedTime.Time,
		Link:        raw.Link,
		Read:        read,
		UserFrom:    n.notificationUser(raw.From, up),
		UserTo:      ptrUser(n.notificationUser(raw.To, up)),
		Content:     entity.NotificationContent{Message: raw.Title},
		Pagination:  entity.Pagination{Since: entity.UnixCursor(raw.CreatedTime.Time)},
	}
}

func (n *Notifications) notificationUser(u *User, up *entity.UserProvider) entity.PostUser {
	if u == nil {
		return entity.PostUser{}
	}
	return entity.PostUser{
		ID:          u.ID,
		Name:        u.Name,
		Image:       n.auth.picture(u.ID, up.Tokens.AccessToken),
		ProfileLink: u.Link,
	}
}

func ptrUser(u entity.PostUser) *entity.PostUser { return &u }
