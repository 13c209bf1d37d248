// Package provider defines the capability interfaces every social network
// implements and the facades that normalize their output.
//
// A provider package (facebook, twitter, ...) implements an AuthStrategy and any
// of FeedStrategy, NotificationStrategy, PageStrategy and ActionStrategy over its
// own raw payload types. Callers never use strategies directly: they receive a
// Feed, Notifications, Pages, Actions or AuthAPI facade built by the registry,
// which applies the fetch, transform, drop-nil and sort pipeline uniformly.
package provider

import (
	"context"
	"time"

	"feedient/internal/domain/entity"
)

// CallbackPayload is what the client posts back after an OAuth redirect.
type CallbackPayload struct {
	// Code is the OAuth2 authorization code (oauth_code).
	Code string `json:"oauth_code,omitempty"`

	// OAuth1 callback fields.
	OAuthToken    string `json:"oauth_token,omitempty"`
	OAuthSecret   string `json:"oauth_secret,omitempty"`
	OAuthVerifier string `json:"oauth_verifier,omitempty"`

	// RSS "authentication" fields.
	RSSURL     string `json:"rss_url,omitempty"`
	RSSName    string `json:"rss_name,omitempty"`
	RSSFavicon string `json:"rss_favicon,omitempty"`
}

// RequestToken is a temporary OAuth1 request token.
type RequestToken struct {
	Token        string `json:"oauth_token"`
	TokenSecret  string `json:"oauth_token_secret"`
	AuthorizeURL string `json:"authorize_url,omitempty"`
}

// AccessTokenOptions overrides parameters of an OAuth2 token request.
type AccessTokenOptions struct {
	// GrantType is authorization_code when empty. With refresh_token the
	// request token is sent as the refresh token.
	GrantType string
}

// AuthStrategy owns the credentials of one provider.
type AuthStrategy interface {
	Provider() entity.ProviderName

	// HandleCallback exchanges the callback payload for tokens and returns the
	// linked account descriptors.
	HandleCallback(ctx context.Context, payload CallbackPayload) ([]entity.Profile, error)

	// CheckAccessToken inspects a raw API response for auth failure markers.
	// It returns (nil, nil) when the response is fine, a refreshed copy of up
	// when the tokens were transparently renewed, or an error (*entity.OAuthError,
	// entity.ErrRateLimitReached, *entity.ProviderError).
	CheckAccessToken(ctx context.Context, up *entity.UserProvider, res *Response) (*entity.UserProvider, error)

	// FormatProvider renders the public view of up; nil for nil.
	FormatProvider(up *entity.UserProvider) *entity.ProviderView
}

// OAuth1Strategy is implemented by auth strategies with a request token step.
type OAuth1Strategy interface {
	AuthStrategy
	GetRequestToken(ctx context.Context) (*RequestToken, error)
}

// OAuth2Strategy is implemented by auth strategies with a code exchange step.
type OAuth2Strategy interface {
	AuthStrategy
	GetAccessToken(ctx context.Context, code string, opts AccessTokenOptions) (*entity.Tokens, error)
}

// FeedQuery bounds a feed fetch. Zero values mean "unbounded".
type FeedQuery struct {
	// Since is the pagination cursor of the newest post already seen.
	Since string
	// Until is the cursor to page backwards from.
	Until string
	Limit int
}

// CommentQuery selects comments of one post.
type CommentQuery struct {
	PostID     string
	BeforeTime string
	Limit      int
	// UserID is the provider user id of the post author (twitter only).
	UserID string
}

// RawComments is a provider-native comment thread.
type RawComments[C any] struct {
	Comments       []*C
	ParentComments []*C
	PostLink       string
	HasMore        bool
}

// FeedStrategy fetches raw posts of type P and comments of type C.
type FeedStrategy[P, C any] interface {
	// GetFeed returns nil (not empty) with a nil error when the provider
	// responded without a usable post list.
	GetFeed(ctx context.Context, up *entity.UserProvider, q FeedQuery) ([]*P, error)
	GetPost(ctx context.Context, up *entity.UserProvider, postID string) (*P, error)
	GetPostComments(ctx context.Context, up *entity.UserProvider, q CommentQuery) (*RawComments[C], error)

	// ProcessPost returns nil for unsupported post types.
	ProcessPost(raw *P, up *entity.UserProvider) *entity.Post
	ProcessComment(raw *C, up *entity.UserProvider) *entity.Comment
}

// NotificationStrategy fetches raw notifications of type N.
type NotificationStrategy[N any] interface {
	GetNotifications(ctx context.Context, up *entity.UserProvider, since string, limit int) ([]*N, error)
	ProcessNotification(raw *N, up *entity.UserProvider) *entity.Notification
}

// PageStrategy fetches raw managed pages of type G.
type PageStrategy[G any] interface {
	GetPages(ctx context.Context, up *entity.UserProvider) ([]*G, error)
	ProcessPage(raw *G, up *entity.UserProvider) *entity.Page
}

// ActionStrategy declares the write actions a provider supports.
type ActionStrategy interface {
	Actions() map[ActionName]ActionFunc
}

// Feed is the normalized feed capability handed to callers.
type Feed interface {
	GetFeed(ctx context.Context, up *entity.UserProvider, q FeedQuery) ([]*entity.Post, error)
	GetPost(ctx context.Context, up *entity.UserProvider, postID string) (*entity.Post, error)
	GetPostComments(ctx context.Context, up *entity.UserProvider, q CommentQuery) (*entity.CommentThread, error)
}

// Notifications is the normalized notification capability.
type Notifications interface {
	GetNotifications(ctx context.Context, up *entity.UserProvider, since string, limit int) ([]*entity.Notification, error)
}

// Pages is the normalized page capability.
type Pages interface {
	GetPages(ctx context.Context, up *entity.UserProvider) ([]*entity.Page, error)
}

// Actions is the write-action capability.
type Actions interface {
	HasAction(name ActionName) bool
	Do(ctx context.Context, up *entity.UserProvider, name ActionName, payload ActionPayload) (*ActionResult, error)
}

// Unix converts a provider epoch (seconds) to UTC time.
func Unix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
