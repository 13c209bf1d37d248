// Package rss implements the provider strategies for plain RSS 2.0 and Atom
// feeds. A linked feed has no credentials; the account only stores its URL.
package rss

import (
	"context"
	"fmt"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"
)

// Auth links feeds by URL.
type Auth struct {
	client *provider.Client
}

var _ provider.AuthStrategy = (*Auth)(nil)

// NewAuth builds the strategy. No option is required.
func NewAuth(opts provider.Options) (*Auth, error) {
	return &Auth{client: provider.NewClient(entity.RSS, opts)}, nil
}

// Provider implements provider.AuthStrategy.
func (a *Auth) Provider() entity.ProviderName { return entity.RSS }

// HandleCallback turns the submitted feed into a profile keyed by its URL.
func (a *Auth) HandleCallback(_ context.Context, payload provider.CallbackPayload) ([]entity.Profile, error) {
	if payload.RSSURL == "" {
		return nil, fmt.Errorf("%w: rss_url", entity.ErrFormEmptyFields)
	}
	if err := entity.ValidateURL(payload.RSSURL); err != nil {
		return nil, err
	}
	return []entity.Profile{{
		UserID: payload.RSSURL,
		Account: entity.Account{
			URL:      payload.RSSURL,
			Username: payload.RSSName,
			Avatar:   payload.RSSFavicon,
		},
	}}, nil
}

// CheckAccessToken implements provider.AuthStrategy. Feeds carry no tokens.
func (a *Auth) CheckAccessToken(context.Context, *entity.UserProvider, *provider.Response) (*entity.UserProvider, error) {
	return nil, nil
}

// FormatProvider renders the feed name only.
func (a *Auth) FormatProvider(up *entity.UserProvider) *entity.ProviderView {
	if up == nil {
		return nil
	}
	var name string
	if up.Account != nil {
		name = up.Account.Username
	}
	return &entity.ProviderView{
		ID:        up.ID,
		Order:     up.Order,
		DateAdded: up.DateAdded,
		Provider: entity.ProviderViewDetails{
			Name:     up.Provider,
			Username: name,
		},
	}
}
