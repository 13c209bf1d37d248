package tumblr

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"
)

// Actions performs writes on the account's blog.
type Actions struct {
	auth   *Auth
	apiURL string
}

var _ provider.ActionStrategy = (*Actions)(nil)

// NewActions builds the strategy on top of auth.
func NewActions(auth *Auth, opts provider.Options) (*Actions, error) {
	if auth == nil {
		return nil, entity.ErrMissingAuthStrategy
	}
	if err := opts.RequireAPIURL(); err != nil {
		return nil, err
	}
	return &Actions{auth: auth, apiURL: opts.APIURL}, nil
}

// Actions implements provider.ActionStrategy.
func (a *Actions) Actions() map[provider.ActionName]provider.ActionFunc {
	return map[provider.ActionName]provider.ActionFunc{
		provider.ActionCompose: a.compose,
		provider.ActionReblog:  a.reblog,
		provider.ActionLike:    a.like,
		provider.ActionUnlike:  a.unlike,
	}
}

// ComposeTags returns the words of message that start with '#', without it.
func ComposeTags(message string) []string {
	var tags []string
	for _, word := range strings.Split(message, " ") {
		if strings.HasPrefix(word, "#") && len(word) > 1 {
			tags = append(tags, word[1:])
		}
	}
	return tags
}

// compose publishes a text post; hashtag words become post tags.
func (a *Actions) compose(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("message"); err != nil {
		return nil, err
	}
	form := url.Values{"type": {"text"}, "body": {p.Get("message")}}
	if tags := ComposeTags(p.Get("message")); len(tags) > 0 {
		form.Set("tags", strings.Join(tags, ","))
	}
	return a.post(ctx, up, a.blogURL(up)+"/post", form)
}

func (a *Actions) reblog(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("media_id", "reblog_key"); err != nil {
		return nil, err
	}
	form := url.Values{"id": {p.Get("media_id")}, "reblog_key": {p.Get("reblog_key")}}
	return a.post(ctx, up, a.blogURL(up)+"/post/reblog", form)
}

func (a *Actions) like(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("media_id", "reblog_key"); err != nil {
		return nil, err
	}
	form := url.Values{"id": {p.Get("media_id")}, "reblog_key": {p.Get("reblog_key")}}
	return a.post(ctx, up, a.apiURL+"/user/like", form)
}

func (a *Actions) unlike(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("media_id", "reblog_key"); err != nil {
		return nil, err
	}
	form := url.Values{"id": {p.Get("media_id")}, "reblog_key": {p.Get("reblog_key")}}
	return a.post(ctx, up, a.apiURL+"/user/unlike", form)
}

func (a *Actions) blogURL(up *entity.UserProvider) string {
	return a.apiURL + "/blog/" + url.PathEscape(up.ProviderUserID) + ".tumblr.com"
}

func (a *Actions) post(ctx context.Context, up *entity.UserProvider, target string, form url.Values) (*provider.ActionResult, error) {
	data, err := a.auth.call(ctx, up, nil, func(c *provider.Client) (*provider.Response, error) {
		return c.PostForm(ctx, target, form)
	})
	if err != nil {
		return nil, err
	}
	out := &provider.ActionResult{Data: data}
	var created struct {
		ID json.Number `json:"id"`
	}
	if json.Unmarshal(data, &created) == nil {
		out.ID = created.ID.String()
	}
	return out, nil
}
