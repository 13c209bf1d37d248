// Package facebook implements the provider strategies for the Facebook Graph API.
package facebook

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"feedient/internal/domain/entity"
	"feedient/internal/observability/logging"
	"feedient/internal/observability/metrics"
	"feedient/internal/provider"
	"feedient/internal/provider/oauth"
)

// Graph API error codes.
const (
	codeTokenInvalid     = 190
	codePermissionDenied = 10
)

// Auth is the Facebook OAuth2 strategy.
type Auth struct {
	apiURL string
	client *provider.Client
	oauth  *oauth.OAuth2
}

var _ provider.OAuth2Strategy = (*Auth)(nil)

// NewAuth builds the strategy.
func NewAuth(opts provider.Options) (*Auth, error) {
	if err := opts.RequireAPIURL(); err != nil {
		return nil, err
	}
	client := provider.NewClient(entity.Facebook, opts)
	return &Auth{
		apiURL: opts.APIURL,
		client: client,
		oauth:  oauth.NewOAuth2(entity.Facebook, opts, client),
	}, nil
}

// Provider implements provider.AuthStrategy.
func (a *Auth) Provider() entity.ProviderName { return entity.Facebook }

// GetAccessToken implements provider.OAuth2Strategy.
func (a *Auth) GetAccessToken(ctx context.Context, code string, opts provider.AccessTokenOptions) (*entity.Tokens, error) {
	tok, err := a.oauth.GetAccessToken(ctx, code, opts)
	if err != nil {
		return nil, err
	}
	tokens := oauth.Tokens(tok)
	return &tokens, nil
}

// HandleCallback exchanges the code and loads /me.
func (a *Auth) HandleCallback(ctx context.Context, payload provider.CallbackPayload) ([]entity.Profile, error) {
	tokens, err := a.GetAccessToken(ctx, payload.Code, provider.AccessTokenOptions{})
	if err != nil {
		return nil, err
	}

	res, err := a.client.Get(ctx, a.apiURL+"/me", url.Values{"access_token": {tokens.AccessToken}})
	if err != nil {
		return nil, err
	}
	var me struct {
		graphError
		User
	}
	if err := res.JSON(&me); err != nil {
		return nil, err
	}
	if me.Error != nil {
		return nil, &entity.ProviderError{Provider: entity.Facebook, Message: me.Error.Message}
	}

	return []entity.Profile{{
		UserID: me.ID,
		Account: entity.Account{
			Username:     me.Name,
			UserFullName: me.Name,
			Avatar:       a.picture(me.ID, tokens.AccessToken),
		},
		Tokens: &entity.Tokens{AccessToken: tokens.AccessToken, ExpiresIn: tokens.ExpiresIn},
	}}, nil
}

// CheckAccessToken maps Graph API error bodies: code 190 means the token is
// revoked or expired, code 10 and 200-299 are permission errors.
func (a *Auth) CheckAccessToken(ctx context.Context, up *entity.UserProvider, res *provider.Response) (*entity.UserProvider, error) {
	if !isObject(res.Body) {
		return nil, nil
	}
	var body graphError
	if err := res.JSON(&body); err != nil {
		return nil, err
	}
	if body.Error == nil {
		return nil, nil
	}

	code := body.Error.Code
	switch {
	case code == codeTokenInvalid:
		return nil, a.authError(ctx, up, entity.CodeTokenRevoked)
	case code == codePermissionDenied || (code >= 200 && code <= 299):
		return nil, a.authError(ctx, up, entity.CodePermissionDenied)
	default:
		return nil, &entity.ProviderError{Provider: entity.Facebook, Message: body.Error.Message}
	}
}

func (a *Auth) authError(ctx context.Context, up *entity.UserProvider, code int) error {
	metrics.RecordAuthError(entity.Facebook.String(), code)
	logging.ForUserProvider(logging.FromContext(ctx), up).Warn("facebook token rejected", slog.Int("code", code))
	return entity.NewOAuthError(up.ID, code)
}

// FormatProvider implements provider.AuthStrategy.
func (a *Auth) FormatProvider(up *entity.UserProvider) *entity.ProviderView {
	return provider.FormatProvider(up)
}

// call issues a GET or POST and runs the response through CheckAccessToken.
func (a *Auth) call(ctx context.Context, up *entity.UserProvider, do func(*provider.Client) (*provider.Response, error)) (*provider.Response, error) {
	res, err := do(a.client)
	if err != nil {
		return nil, err
	}
	if _, err := a.CheckAccessToken(ctx, up, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (a *Auth) picture(userID, accessToken string) string {
	return fmt.Sprintf("%s/%s/picture?access_token=%s", a.apiURL, userID, url.QueryEscape(accessToken))
}

// isObject reports whether b is a JSON object; deletes answer with a bare true.
func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

func token(up *entity.UserProvider) url.Values {
	return url.Values{"access_token": {up.Tokens.AccessToken}}
}
