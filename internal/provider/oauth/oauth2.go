// Package oauth wraps the OAuth1 and OAuth2 handshakes shared by the provider
// auth strategies.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"

	"golang.org/x/oauth2"
)

// GrantRefreshToken selects the refresh flow in provider.AccessTokenOptions.
const GrantRefreshToken = "refresh_token"

// OAuth2 performs authorization code and refresh token exchanges. Token
// endpoints may answer with JSON or a url-encoded form; both are accepted.
type OAuth2 struct {
	provider entity.ProviderName
	cfg      oauth2.Config
	client   *provider.Client
}

// NewOAuth2 builds the exchanger from the provider options. Credentials are
// sent as request parameters.
func NewOAuth2(name entity.ProviderName, opts provider.Options, client *provider.Client) *OAuth2 {
	return &OAuth2{
		provider: name,
		client:   client,
		cfg: oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.CallbackURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   opts.AuthorizeURL,
				TokenURL:  opts.AccessTokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// Exchange trades an authorization code for a token.
func (o *OAuth2) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: oauth_code", entity.ErrFormEmptyFields)
	}
	tok, err := o.cfg.Exchange(o.context(ctx), code)
	if err != nil {
		return nil, o.classify(err)
	}
	return tok, nil
}

// Refresh trades a refresh token for a new access token. Providers that do
// not rotate refresh tokens keep the one passed in.
func (o *OAuth2) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh_token", entity.ErrFormEmptyFields)
	}
	src := o.cfg.TokenSource(o.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, o.classify(err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}

// GetAccessToken dispatches on opts.GrantType and converts the result.
func (o *OAuth2) GetAccessToken(ctx context.Context, code string, opts provider.AccessTokenOptions) (*oauth2.Token, error) {
	if opts.GrantType == GrantRefreshToken {
		return o.Refresh(ctx, code)
	}
	return o.Exchange(ctx, code)
}

// AuthCodeURL returns the consent page URL for state.
func (o *OAuth2) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return o.cfg.AuthCodeURL(state, opts...)
}

func (o *OAuth2) context(ctx context.Context) context.Context {
	if o.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, o.client.HTTPClient())
}

func (o *OAuth2) classify(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		msg := re.ErrorDescription
		if msg == "" {
			msg = re.ErrorCode
		}
		if msg == "" {
			msg = string(re.Body)
		}
		return &entity.ProviderError{Provider: o.provider, Message: msg}
	}
	return fmt.Errorf("%s token exchange: %w", o.provider, err)
}

// Tokens converts tok into stored tokens. ExpiresIn falls back to the legacy
// "expires" field some providers send instead of expires_in.
func Tokens(tok *oauth2.Token) entity.Tokens {
	t := entity.Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		t.ExpiresIn = int64(time.Until(tok.Expiry).Round(time.Second).Seconds())
	} else {
		t.ExpiresIn = extraInt(tok, "expires")
	}
	return t
}

func extraInt(tok *oauth2.Token, key string) int64 {
	switch v := tok.Extra(key).(type) {
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case float64:
		return int64(v)
	}
	return 0
}
