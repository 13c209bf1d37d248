package youtube

import (
	"context"
	"net/http"
	"net/url"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"
)

// Ratings accepted by videos/rate.
const (
	ratingLike    = "like"
	ratingDislike = "dislike"
	ratingNone    = "none"
)

// Actions rates videos through the Data API v3.
type Actions struct {
	auth *Auth
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
	return &Actions{auth: auth}, nil
}

// Actions implements provider.ActionStrategy.
func (a *Actions) Actions() map[provider.ActionName]provider.ActionFunc {
	return map[provider.ActionName]provider.ActionFunc{
		provider.ActionLike:    a.rater(ratingLike),
		provider.ActionDislike: a.rater(ratingDislike),
		provider.ActionUnlike:  a.rater(ratingNone),
	}
}

func (a *Actions) rater(rating string) provider.ActionFunc {
	return func(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
		if err := p.Require("media_id"); err != nil {
			return nil, err
		}
		id := p.Get("media_id")

		res, err := a.auth.do(ctx, up, func(up *entity.UserProvider) requestFunc {
			query := url.Values{
				"access_token": {up.Tokens.AccessToken},
				"id":           {id},
				"rating":       {rating},
			}
			return request(http.MethodPost, a.auth.dataAPIURL+"/videos/rate", query, nil)
		})
		if err != nil {
			return nil, err
		}

		out := &provider.ActionResult{ID: id}
		if isObject(res.Body) {
			out.Data = res.Body
		}
		return out, nil
	}
}
