package facebook

import (
	"context"
	"fmt"
	"net/url"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"
)

// Actions performs writes against the Graph API.
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
		provider.ActionCompose:            a.compose,
		provider.ActionComposeWithPicture: a.composeWithPicture,
		provider.ActionDelete:             a.delete,
		provider.ActionLike:               a.like,
		provider.ActionUnlike:             a.unlike,
		provider.ActionComment:            a.comment,
		provider.ActionDeleteComment:      a.deleteComment,
		provider.ActionShare:              a.share,
	}
}

func (a *Actions) compose(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("message"); err != nil {
		return nil, err
	}
	form := token(up)
	form.Set("message", p.Get("message"))
	return a.post(ctx, up, a.apiURL+"/me/feed", form)
}

func (a *Actions) composeWithPicture(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if p.Picture == nil || len(p.Picture.Data) == 0 {
		return nil, fmt.Errorf("%w: picture", entity.ErrFormEmptyFields)
	}
	fields := map[string]string{}
	if msg := p.Get("message"); msg != "" {
		fields["message"] = msg
	}
	target := a.apiURL + "/me/photos?" + token(up).Encode()

	res, err := a.auth.call(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.PostMultipart(ctx, target, fields, "source", p.Picture)
	})
	if err != nil {
		return nil, err
	}
	var body struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := res.JSON(&body); err != nil {
		return nil, err
	}
	id := body.PostID
	if id == "" {
		id = body.ID
	}
	return &provider.ActionResult{ID: id, Data: res.Body}, nil
}

func (a *Actions) delete(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("post_id"); err != nil {
		return nil, err
	}
	return a.remove(ctx, up, a.apiURL+"/"+url.PathEscape(p.Get("post_id")))
}

func (a *Actions) like(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("post_id"); err != nil {
		return nil, err
	}
	return a.post(ctx, up, a.apiURL+"/"+url.PathEscape(p.Get("post_id"))+"/likes", token(up))
}

func (a *Actions) unlike(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("post_id"); err != nil {
		return nil, err
	}
	return a.remove(ctx, up, a.apiURL+"/"+url.PathEscape(p.Get("post_id"))+"/likes")
}

func (a *Actions) comment(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("post_id", "comment_message"); err != nil {
		return nil, err
	}
	form := token(up)
	form.Set("message", p.Get("comment_message"))
	return a.post(ctx, up, a.apiURL+"/"+url.PathEscape(p.Get("post_id"))+"/comments", form)
}

func (a *Actions) deleteComment(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("comment_id"); err != nil {
		return nil, err
	}
	return a.remove(ctx, up, a.apiURL+"/"+url.PathEscape(p.Get("comment_id")))
}

// share reposts post_id to the user's own wall.
func (a *Actions) share(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("post_id"); err != nil {
		return nil, err
	}
	form := token(up)
	form.Set("link", "https://www.facebook.com/"+p.Get("post_id"))
	if msg := p.Get("message"); msg != "" {
		form.Set("message", msg)
	}
	return a.post(ctx, up, a.apiURL+"/me/feed", form)
}

func (a *Actions) post(ctx context.Context, up *entity.UserProvider, target string, form url.Values) (*provider.ActionResult, error) {
	res, err := a.auth.call(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.PostForm(ctx, target, form)
	})
	if err != nil {
		return nil, err
	}
	return result(res)
}

func (a *Actions) remove(ctx context.Context, up *entity.UserProvider, target string) (*provider.ActionResult, error) {
	res, err := a.auth.call(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.Delete(ctx, target, token(up))
	})
	if err != nil {
		return nil, err
	}
	return result(res)
}

func result(res *provider.Response) (*provider.ActionResult, error) {
	out := &provider.ActionResult{Data: res.Body}
	if isObject(res.Body) {
		var body struct {
			ID string `json:"id"`
		}
		if err := res.JSON(&body); err != nil {
			return nil, err
		}
		out.ID = body.ID
	}
	return out, nil
}
