package provider

import (
	"context"
	"net/http"
	"time"

	"feedient/internal/domain/entity"
	"feedient/internal/resilience/circuitbreaker"
)

// DefaultCallTimeout bounds every outbound provider call.
const DefaultCallTimeout = 30 * time.Second

// Options is the static configuration injected into every strategy of one provider.
type Options struct {
	ClientID        string
	ClientSecret    string
	CallbackURL     string
	AccessTokenURL  string
	RequestTokenURL string
	AuthorizeURL    string
	APIURL          string
	DeveloperKey    string
	StreamTimeout   time.Duration

	// ImageProxy rewrites legacy avatar URLs (instagram only).
	ImageProxy ImageProxy

	// HTTPClient is the base client for outbound calls. A traced client is
	// built when nil.
	HTTPClient *http.Client
	// Breaker is shared by every strategy of the provider. A private one is
	// created when nil.
	Breaker *circuitbreaker.CircuitBreaker
	// CallTimeout overrides DefaultCallTimeout when positive.
	CallTimeout time.Duration

	// DataAPIURL is the secondary API base (youtube Data API v3).
	DataAPIURL string
	// Tokens persists refreshed credentials (youtube only).
	Tokens TokenUpdater
}

// TokenUpdater stores renewed tokens of a linked account.
type TokenUpdater interface {
	UpdateTokens(ctx context.Context, userProviderID string, tokens entity.Tokens) error
}

// ImageProxy maps legacy avatar CDN hosts to a proxy.
type ImageProxy struct {
	ClientURL string
	// AvatarsImages is the proxy prefix for images.ak.instagram.com avatars.
	AvatarsImages string
	// AvatarsPhotos maps the server letter of photos-X.ak.instagram.com to a proxy prefix.
	AvatarsPhotos map[string]string
}

// RequireAPIURL returns ErrMissingAPIURL when o has no API base URL.
func (o Options) RequireAPIURL() error {
	if o.APIURL == "" {
		return entity.ErrMissingAPIURL
	}
	return nil
}
