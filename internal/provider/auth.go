package provider

import (
	"context"
	"fmt"

	"feedient/internal/domain/entity"
)

// AuthAPI is the auth capability handed to callers.
type AuthAPI struct {
	strategy AuthStrategy
}

// NewAuthAPI wraps strategy.
func NewAuthAPI(strategy AuthStrategy) *AuthAPI {
	return &AuthAPI{strategy: strategy}
}

// Strategy returns the wrapped strategy.
func (a *AuthAPI) Strategy() AuthStrategy { return a.strategy }

// HandleCallback completes a link flow.
func (a *AuthAPI) HandleCallback(ctx context.Context, payload CallbackPayload) ([]entity.Profile, error) {
	return a.strategy.HandleCallback(ctx, payload)
}

// GetRequestToken starts an OAuth1 flow. OAuth2 and tokenless providers
// return entity.ErrCapabilityNotSupported.
func (a *AuthAPI) GetRequestToken(ctx context.Context) (*RequestToken, error) {
	s, ok := a.strategy.(OAuth1Strategy)
	if !ok {
		return nil, fmt.Errorf("%w: %s request token", entity.ErrCapabilityNotSupported, a.strategy.Provider())
	}
	return s.GetRequestToken(ctx)
}

// GetAccessToken exchanges an OAuth2 code or refresh token.
func (a *AuthAPI) GetAccessToken(ctx context.Context, code string, opts AccessTokenOptions) (*entity.Tokens, error) {
	s, ok := a.strategy.(OAuth2Strategy)
	if !ok {
		return nil, fmt.Errorf("%w: %s access token", entity.ErrCapabilityNotSupported, a.strategy.Provider())
	}
	return s.GetAccessToken(ctx, code, opts)
}

// CheckAccessToken classifies a raw response for up.
func (a *AuthAPI) CheckAccessToken(ctx context.Context, up *entity.UserProvider, res *Response) (*entity.UserProvider, error) {
	return a.strategy.CheckAccessToken(ctx, up, res)
}

// FormatProvider renders the public view of up.
func (a *AuthAPI) FormatProvider(up *entity.UserProvider) *entity.ProviderView {
	return a.strategy.FormatProvider(up)
}

// FormatProvider is the default public view shared by the token based providers.
// Missing account data renders as "undefined", missing strings as "".
func FormatProvider(up *entity.UserProvider) *entity.ProviderView {
	if up == nil {
		return nil
	}

	acc := entity.Account{Username: "undefined", UserFullName: "undefined"}
	if up.Account != nil {
		acc = *up.Account
	}

	var accessToken *string
	if up.Tokens.AccessToken != "" {
		accessToken = ptr(up.Tokens.AccessToken)
	}

	return &entity.ProviderView{
		ID:        up.ID,
		Order:     up.Order,
		DateAdded: up.DateAdded,
		Provider: entity.ProviderViewDetails{
			Name:           up.Provider,
			Username:       acc.Username,
			UserID:         ptr(up.ProviderUserID),
			FullName:       ptr(acc.UserFullName),
			UserAvatar:     ptr(acc.Avatar),
			Authentication: &entity.ProviderViewTokens{AccessToken: accessToken},
		},
	}
}

func ptr(s string) *string { return &s }
