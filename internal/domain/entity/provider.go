package entity

import (
	"fmt"
	"strings"
	"time"
)

// ProviderName identifies a third-party network a user can link.
type ProviderName string

// Supported providers.
const (
	Facebook  ProviderName = "facebook"
	Twitter   ProviderName = "twitter"
	Instagram ProviderName = "instagram"
	Tumblr    ProviderName = "tumblr"
	YouTube   ProviderName = "youtube"
	RSS       ProviderName = "rss"
)

// AllProviders lists every provider in registration order.
var AllProviders = []ProviderName{Facebook, Twitter, Instagram, Tumblr, YouTube, RSS}

// ParseProviderName normalizes name and checks it against the known providers.
// Unknown names return ErrProviderNotSupported.
func ParseProviderName(name string) (ProviderName, error) {
	p := ProviderName(strings.ToLower(strings.TrimSpace(name)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrProviderNotSupported, name)
	}
	return p, nil
}

// Valid reports whether p is one of AllProviders.
func (p ProviderName) Valid() bool {
	for _, known := range AllProviders {
		if p == known {
			return true
		}
	}
	return false
}

func (p ProviderName) String() string { return string(p) }

// Tokens are the credentials stored for a linked account. They are opaque to
// everything except the provider's own auth strategy.
type Tokens struct {
	AccessToken       string `json:"accessToken,omitempty"`
	AccessTokenSecret string `json:"accessTokenSecret,omitempty"`
	RefreshToken      string `json:"refreshToken,omitempty"`
	TokenType         string `json:"tokenType,omitempty"`
	ExpiresIn         int64  `json:"expiresIn,omitempty"`
}

// Account is the provider-side metadata of a linked account.
type Account struct {
	Username     string `json:"username,omitempty"`
	UserFullName string `json:"userFullName,omitempty"`
	Avatar       string `json:"avatar,omitempty"`

	// ChannelID is only set for youtube.
	ChannelID string `json:"channelId,omitempty"`
	// URL is only set for rss; it is the feed location.
	URL string `json:"url,omitempty"`
}

// UserProvider is an external account linked by a user.
type UserProvider struct {
	ID             string
	UserID         string
	Provider       ProviderName
	ProviderUserID string
	// Account is nil when the provider never returned profile data.
	Account   *Account
	Tokens    Tokens
	Order     int
	DateAdded time.Time
}

// Validate checks the invariants a UserProvider must hold before strategies
// are selected for it.
func (u *UserProvider) Validate() error {
	if u.ID == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	if !u.Provider.Valid() {
		return &ValidationError{Field: "provider", Message: fmt.Sprintf("unknown provider %q", u.Provider)}
	}
	if u.Provider == RSS {
		if u.Account == nil {
			return &ValidationError{Field: "account", Message: "rss account requires a feed url"}
		}
		return ValidateURL(u.Account.URL)
	}
	return nil
}

// WithTokens returns a copy of u carrying tokens.
func (u *UserProvider) WithTokens(tokens Tokens) *UserProvider {
	cp := *u
	if u.Account != nil {
		acc := *u.Account
		cp.Account = &acc
	}
	cp.Tokens = tokens
	return &cp
}

// Profile is what an auth strategy produces from a completed OAuth callback.
// It becomes a UserProvider once persisted.
type Profile struct {
	UserID  string  `json:"userId"`
	Account Account `json:"account"`
	Tokens  *Tokens `json:"tokens,omitempty"`
}

// ProviderView is the public JSON shape of a linked account.
type ProviderView struct {
	ID        string              `json:"id"`
	Order     int                 `json:"order"`
	DateAdded time.Time           `json:"date_added"`
	Provider  ProviderViewDetails `json:"provider"`
}

// ProviderViewDetails is the provider block of ProviderView.
type ProviderViewDetails struct {
	Name           ProviderName        `json:"name"`
	Username       string              `json:"username"`
	UserID         *string             `json:"user_id,omitempty"`
	FullName       *string             `json:"full_name,omitempty"`
	UserAvatar     *string             `json:"user_avatar,omitempty"`
	Authentication *ProviderViewTokens `json:"authentication,omitempty"`
}

// ProviderViewTokens exposes the access token only.
type ProviderViewTokens struct {
	AccessToken *string `json:"access_token"`
}
