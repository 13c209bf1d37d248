package instagram

import (
	"context"
	"encoding/json"
	"net/url"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"
)

// Actions performs writes on media.
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
		provider.ActionComment:            a.comment,
		provider.ActionDeleteCommentCamel: a.deleteComment,
		provider.ActionLike:               a.like,
		provider.ActionUnlike:             a.unlike,
	}
}

func (a *Actions) comment(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("media_id", "comment"); err != nil {
		return nil, err
	}
	form := token(up)
	form.Set("text", p.Get("comment"))
	return a.send(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.PostForm(ctx, a.mediaURL(p, "comments"), form)
	})
}

func (a *Actions) deleteComment(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("media_id", "comment_id"); err != nil {
		return nil, err
	}
	target := a.mediaURL(p, "comments") + "/" + url.PathEscape(p.Get("comment_id"))
	return a.send(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.Delete(ctx, target, token(up))
	})
}

func (a *Actions) like(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("media_id"); err != nil {
		return nil, err
	}
	return a.send(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.PostForm(ctx, a.mediaURL(p, "likes"), token(up))
	})
}

func (a *Actions) unlike(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("media_id"); err != nil {
		return nil, err
	}
	return a.send(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.Delete(ctx, a.mediaURL(p, "likes"), token(up))
	})
}

func (a *Actions) mediaURL(p provider.ActionPayload, sub string) string {
	return a.apiURL + "/media/" + url.PathEscape(p.Get("media_id")) + "/" + sub
}

// send returns the data field of the response.
func (a *Actions) send(ctx context.Context, up *entity.UserProvider, call func(*provider.Client) (*provider.Response, error)) (*provider.ActionResult, error) {
	data, err := a.auth.do(ctx, up, nil, call)
	if err != nil {
		return nil, err
	}
	out := &provider.ActionResult{Data: data}
	var created struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(data, &created) == nil {
		out.ID = created.ID
	}
	return out, nil
}
