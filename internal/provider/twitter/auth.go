// Package twitter implements the provider strategies for the Twitter REST
// API v1.1. Every call is signed with the linked account's OAuth1 tokens.
package twitter

import (
	"bytes"
	"context"
	"log/slog"

	"feedient/internal/domain/entity"
	"feedient/internal/observability/logging"
	"feedient/internal/observability/metrics"
	"feedient/internal/provider"
	"feedient/internal/provider/oauth"
)

// REST API error codes.
const (
	codeRateLimit    = 88
	codeInvalidToken = 89
)

const webURL = "https://twitter.com/"

// Auth is the Twitter OAuth1 strategy.
type Auth struct {
	apiURL string
	client *provider.Client
	oauth  *oauth.OAuth1
}

var _ provider.OAuth1Strategy = (*Auth)(nil)

// NewAuth builds the strategy.
func NewAuth(opts provider.Options) (*Auth, error) {
	if err := opts.RequireAPIURL(); err != nil {
		return nil, err
	}
	client := provider.NewClient(entity.Twitter, opts)
	return &Auth{
		apiURL: opts.APIURL,
		client: client,
		oauth:  oauth.NewOAuth1(entity.Twitter, opts, client),
	}, nil
}

// Provider implements provider.AuthStrategy.
func (a *Auth) Provider() entity.ProviderName { return entity.Twitter }

// GetRequestToken implements provider.OAuth1Strategy.
func (a *Auth) GetRequestToken(ctx context.Context) (*provider.RequestToken, error) {
	return a.oauth.RequestToken(ctx)
}

// HandleCallback exchanges the verified request token and loads the account.
func (a *Auth) HandleCallback(ctx context.Context, payload provider.CallbackPayload) ([]entity.Profile, error) {
	tokens, err := a.oauth.AccessToken(ctx, payload)
	if err != nil {
		return nil, err
	}

	up := &entity.UserProvider{Provider: entity.Twitter, Tokens: *tokens}
	res, err := a.call(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.Get(ctx, a.apiURL+"/account/verify_credentials.json", nil)
	})
	if err != nil {
		return nil, err
	}
	var me User
	if err := res.JSON(&me); err != nil {
		return nil, err
	}

	return []entity.Profile{{
		UserID: me.IDStr,
		Account: entity.Account{
			Username:     me.ScreenName,
			UserFullName: me.Name,
			Avatar:       me.ProfileImageURLHTTPS,
		},
		Tokens: &entity.Tokens{AccessToken: tokens.AccessToken, AccessTokenSecret: tokens.AccessTokenSecret},
	}}, nil
}

// CheckAccessToken maps the first entry of an errors envelope: 88 is a rate
// limit and 89 an invalid or expired token.
func (a *Auth) CheckAccessToken(ctx context.Context, up *entity.UserProvider, res *provider.Response) (*entity.UserProvider, error) {
	body := bytes.TrimSpace(res.Body)
	if len(body) == 0 || body[0] != '{' {
		return nil, nil
	}
	var envelope apiErrors
	if err := res.JSON(&envelope); err != nil {
		return nil, err
	}
	if len(envelope.Errors) == 0 {
		return nil, nil
	}

	first := envelope.Errors[0]
	log := logging.ForUserProvider(logging.FromContext(ctx), up)
	switch first.Code {
	case codeRateLimit:
		log.Warn("twitter rate limit reached")
		return nil, entity.ErrRateLimitReached
	case codeInvalidToken:
		metrics.RecordAuthError(entity.Twitter.String(), entity.CodeTokenRevoked)
		log.Warn("twitter token rejected", slog.Int("code", first.Code))
		return nil, entity.NewOAuthError(up.ID, entity.CodeTokenRevoked)
	default:
		return nil, &entity.ProviderError{Provider: entity.Twitter, Message: first.Message}
	}
}

// FormatProvider implements provider.AuthStrategy.
func (a *Auth) FormatProvider(up *entity.UserProvider) *entity.ProviderView {
	return provider.FormatProvider(up)
}

// call runs do with a client signed for up and checks the response.
func (a *Auth) call(ctx context.Context, up *entity.UserProvider, do func(*provider.Client) (*provider.Response, error)) (*provider.Response, error) {
	res, err := do(a.oauth.Client(ctx, up.Tokens))
	if err != nil {
		return nil, err
	}
	if _, err := a.CheckAccessToken(ctx, up, res); err != nil {
		return nil, err
	}
	return res, nil
}
