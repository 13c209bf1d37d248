// Package tumblr implements the provider strategies for the Tumblr API v2.
package tumblr

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"feedient/internal/domain/entity"
	"feedient/internal/observability/logging"
	"feedient/internal/observability/metrics"
	"feedient/internal/provider"
	"feedient/internal/provider/oauth"
)

// meta.status values that signal auth problems.
const (
	statusUnauthorized = 401
	statusRateLimit    = 88
	statusInvalidToken = 89
)

// Auth is the Tumblr OAuth1 strategy.
type Auth struct {
	apiURL      string
	consumerKey string
	client      *provider.Client
	oauth       *oauth.OAuth1
}

var _ provider.OAuth1Strategy = (*Auth)(nil)

// NewAuth builds the strategy.
func NewAuth(opts provider.Options) (*Auth, error) {
	if err := opts.RequireAPIURL(); err != nil {
		return nil, err
	}
	client := provider.NewClient(entity.Tumblr, opts)
	return &Auth{
		apiURL:      opts.APIURL,
		consumerKey: opts.ClientID,
		client:      client,
		oauth:       oauth.NewOAuth1(entity.Tumblr, opts, client),
	}, nil
}

// Provider implements provider.AuthStrategy.
func (a *Auth) Provider() entity.ProviderName { return entity.Tumblr }

// GetRequestToken implements provider.OAuth1Strategy.
func (a *Auth) GetRequestToken(ctx context.Context) (*provider.RequestToken, error) {
	return a.oauth.RequestToken(ctx)
}

// HandleCallback exchanges the verified request token and loads user/info.
// The blog name doubles as the provider user id.
func (a *Auth) HandleCallback(ctx context.Context, payload provider.CallbackPayload) ([]entity.Profile, error) {
	tokens, err := a.oauth.AccessToken(ctx, payload)
	if err != nil {
		return nil, err
	}

	up := &entity.UserProvider{Provider: entity.Tumblr, Tokens: *tokens}
	var info struct {
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	if _, err := a.call(ctx, up, &info, func(c *provider.Client) (*provider.Response, error) {
		return c.Get(ctx, a.apiURL+"/user/info", nil)
	}); err != nil {
		return nil, err
	}

	name := info.User.Name
	return []entity.Profile{{
		UserID: name,
		Account: entity.Account{
			Username:     name,
			UserFullName: name,
			Avatar:       a.avatar(name),
		},
		Tokens: &entity.Tokens{AccessToken: tokens.AccessToken, AccessTokenSecret: tokens.AccessTokenSecret},
	}}, nil
}

// CheckAccessToken maps meta.status: 401 and 89 are revoked tokens, 88 is a
// rate limit.
func (a *Auth) CheckAccessToken(ctx context.Context, up *entity.UserProvider, res *provider.Response) (*entity.UserProvider, error) {
	if b := bytes.TrimSpace(res.Body); len(b) == 0 || b[0] != '{' {
		return nil, nil
	}
	var body envelope
	if err := res.JSON(&body); err != nil {
		return nil, err
	}
	if body.Meta == nil {
		return nil, nil
	}

	log := logging.ForUserProvider(logging.FromContext(ctx), up)
	switch status := body.Meta.Status; {
	case status == statusUnauthorized || status == statusInvalidToken:
		metrics.RecordAuthError(entity.Tumblr.String(), entity.CodeTokenRevoked)
		log.Warn("tumblr token rejected", slog.Int("status", status))
		return nil, entity.NewOAuthError(up.ID, entity.CodeTokenRevoked)
	case status == statusRateLimit || status == 429:
		log.Warn("tumblr rate limit reached")
		return nil, entity.ErrRateLimitReached
	case status >= 400:
		return nil, &entity.ProviderError{Provider: entity.Tumblr, Message: body.Meta.Msg}
	}
	return nil, nil
}

// FormatProvider implements provider.AuthStrategy.
func (a *Auth) FormatProvider(up *entity.UserProvider) *entity.ProviderView {
	return provider.FormatProvider(up)
}

// call runs do with a client signed for up, checks the response and decodes
// the response field into v when v is not nil.
func (a *Auth) call(ctx context.Context, up *entity.UserProvider, v any, do func(*provider.Client) (*provider.Response, error)) (json.RawMessage, error) {
	res, err := do(a.oauth.Client(ctx, up.Tokens))
	if err != nil {
		return nil, err
	}
	if _, err := a.CheckAccessToken(ctx, up, res); err != nil {
		return nil, err
	}
	var body envelope
	if err := res.JSON(&body); err != nil {
		return nil, err
	}
	if v != nil && len(body.Response) > 0 {
		if err := json.Unmarshal(body.Response, v); err != nil {
			return nil, &entity.ParseError{Provider: entity.Tumblr, Err: err}
		}
	}
	return body.Response, nil
}

func (a *Auth) avatar(blog string) string {
	return a.apiURL + "/blog/" + blog + ".tumblr.com/avatar"
}
