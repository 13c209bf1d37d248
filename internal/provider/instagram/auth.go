// Package instagram implements the provider strategies for the legacy
// Instagram API (api.instagram.com/v1).
package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/url"

	"feedient/internal/domain/entity"
	"feedient/internal/observability/logging"
	"feedient/internal/observability/metrics"
	"feedient/internal/provider"
	"feedient/internal/provider/oauth"
)

// Error types reported in meta.error_type.
const (
	errPermissions = "OAuthPermissionsException"
	errAccessToken = "OAuthAccessTokenException"
)

// Auth is the Instagram OAuth2 strategy.
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
	client := provider.NewClient(entity.Instagram, opts)
	return &Auth{
		apiURL: opts.APIURL,
		client: client,
		oauth:  oauth.NewOAuth2(entity.Instagram, opts, client),
	}, nil
}

// Provider implements provider.AuthStrategy.
func (a *Auth) Provider() entity.ProviderName { return entity.Instagram }

// GetAccessToken implements provider.OAuth2Strategy.
func (a *Auth) GetAccessToken(ctx context.Context, code string, opts provider.AccessTokenOptions) (*entity.Tokens, error) {
	tok, err := a.oauth.GetAccessToken(ctx, code, opts)
	if err != nil {
		return nil, err
	}
	tokens := oauth.Tokens(tok)
	return &tokens, nil
}

// HandleCallback exchanges the code and loads users/self.
func (a *Auth) HandleCallback(ctx context.Context, payload provider.CallbackPayload) ([]entity.Profile, error) {
	tokens, err := a.GetAccessToken(ctx, payload.Code, provider.AccessTokenOptions{})
	if err != nil {
		return nil, err
	}

	up := &entity.UserProvider{Provider: entity.Instagram, Tokens: *tokens}
	var me User
	if err := a.get(ctx, up, a.apiURL+"/users/self", nil, &me); err != nil {
		return nil, err
	}

	return []entity.Profile{{
		UserID: me.ID,
		Account: entity.Account{
			Username:     me.Username,
			UserFullName: me.FullName,
			Avatar:       me.ProfilePicture,
		},
		Tokens: &entity.Tokens{AccessToken: tokens.AccessToken},
	}}, nil
}

// CheckAccessToken maps meta.error_type on a 400 meta code.
func (a *Auth) CheckAccessToken(ctx context.Context, up *entity.UserProvider, res *provider.Response) (*entity.UserProvider, error) {
	if b := bytes.TrimSpace(res.Body); len(b) == 0 || b[0] != '{' {
		return nil, nil
	}
	var body envelope
	if err := res.JSON(&body); err != nil {
		return nil, err
	}
	if body.Meta == nil || body.Meta.Code < 400 {
		return nil, nil
	}

	if body.Meta.Code == 400 {
		switch body.Meta.ErrorType {
		case errPermissions:
			return nil, a.authError(ctx, up, entity.CodePermissionDenied)
		case errAccessToken:
			return nil, a.authError(ctx, up, entity.CodeTokenRevoked)
		}
	}
	msg := body.Meta.ErrorMessage
	if msg == "" {
		msg = body.Meta.ErrorType
	}
	return nil, &entity.ProviderError{Provider: entity.Instagram, Message: msg}
}

func (a *Auth) authError(ctx context.Context, up *entity.UserProvider, code int) error {
	metrics.RecordAuthError(entity.Instagram.String(), code)
	logging.ForUserProvider(logging.FromContext(ctx), up).Warn("instagram token rejected", slog.Int("code", code))
	return entity.NewOAuthError(up.ID, code)
}

// FormatProvider implements provider.AuthStrategy.
func (a *Auth) FormatProvider(up *entity.UserProvider) *entity.ProviderView {
	return provider.FormatProvider(up)
}

// get loads rawURL with the account's token and decodes the data field into v.
func (a *Auth) get(ctx context.Context, up *entity.UserProvider, rawURL string, params url.Values, v any) error {
	_, err := a.do(ctx, up, v, func(c *provider.Client) (*provider.Response, error) {
		q := token(up)
		for k, vs := range params {
			q[k] = vs
		}
		return c.Get(ctx, rawURL, q)
	})
	return err
}

// do runs the call, checks the token and decodes data into v when v is not
// nil. It returns the raw data field.
func (a *Auth) do(ctx context.Context, up *entity.UserProvider, v any, call func(*provider.Client) (*provider.Response, error)) (json.RawMessage, error) {
	res, err := call(a.client)
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
	if v != nil && len(body.Data) > 0 && string(body.Data) != "null" {
		if err := json.Unmarshal(body.Data, v); err != nil {
			return nil, &entity.ParseError{Provider: entity.Instagram, Err: err}
		}
	}
	return body.Data, nil
}

func token(up *entity.UserProvider) url.Values {
	return url.Values{"access_token": {up.Tokens.AccessToken}}
}
