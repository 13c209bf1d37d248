package oauth

import (
	"context"
	"fmt"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"

	"github.com/dghubble/oauth1"
)

// OAuth1 performs the three-legged OAuth 1.0a flow with HMAC-SHA1 signatures
// and signs API calls for linked accounts.
type OAuth1 struct {
	provider entity.ProviderName
	cfg      *oauth1.Config
	client   *provider.Client
}

// NewOAuth1 builds the flow from the provider options.
func NewOAuth1(name entity.ProviderName, opts provider.Options, client *provider.Client) *OAuth1 {
	cfg := oauth1.NewConfig(opts.ClientID, opts.ClientSecret)
	cfg.CallbackURL = opts.CallbackURL
	cfg.Endpoint = oauth1.Endpoint{
		RequestTokenURL: opts.RequestTokenURL,
		AuthorizeURL:    opts.AuthorizeURL,
		AccessTokenURL:  opts.AccessTokenURL,
	}
	if client != nil {
		cfg.HTTPClient = client.HTTPClient()
	}
	return &OAuth1{provider: name, cfg: cfg, client: client}
}

// RequestToken obtains a temporary request token and the URL the user must visit.
func (o *OAuth1) RequestToken(ctx context.Context) (*provider.RequestToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	token, secret, err := o.cfg.RequestToken()
	if err != nil {
		return nil, &entity.ProviderError{Provider: o.provider, Message: err.Error()}
	}

	rt := &provider.RequestToken{Token: token, TokenSecret: secret}
	if o.cfg.Endpoint.AuthorizeURL != "" {
		if u, err := o.cfg.AuthorizationURL(token); err == nil {
			rt.AuthorizeURL = u.String()
		}
	}
	return rt, nil
}

// AccessToken exchanges a verified request token for long-lived tokens.
func (o *OAuth1) AccessToken(ctx context.Context, payload provider.CallbackPayload) (*entity.Tokens, error) {
	if payload.OAuthToken == "" || payload.OAuthVerifier == "" {
		return nil, fmt.Errorf("%w: oauth_token, oauth_verifier", entity.ErrFormEmptyFields)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	token, secret, err := o.cfg.AccessToken(payload.OAuthToken, payload.OAuthSecret, payload.OAuthVerifier)
	if err != nil {
		return nil, &entity.ProviderError{Provider: o.provider, Message: err.Error()}
	}
	return &entity.Tokens{AccessToken: token, AccessTokenSecret: secret}, nil
}

// Client returns a provider client whose requests are signed with tokens.
func (o *OAuth1) Client(ctx context.Context, tokens entity.Tokens) *provider.Client {
	base := o.client.HTTPClient()
	signed := o.cfg.Client(context.WithValue(ctx, oauth1.HTTPClient, base),
		oauth1.NewToken(tokens.AccessToken, tokens.AccessTokenSecret))
	return o.client.WithHTTPClient(signed)
}
