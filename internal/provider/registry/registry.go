// Package registry maps provider names to the strategies that implement
// them. The table is fixed at startup; every lookup builds fresh strategies
// and facades that share only the per-provider HTTP client and circuit
// breaker.
package registry

import (
	"fmt"
	"net/http"

	"feedient/internal/domain/entity"
	"feedient/internal/observability/tracing"
	"feedient/internal/provider"
	"feedient/internal/provider/facebook"
	"feedient/internal/provider/instagram"
	"feedient/internal/provider/rss"
	"feedient/internal/provider/tumblr"
	"feedient/internal/provider/twitter"
	"feedient/internal/provider/youtube"
	"feedient/internal/resilience/circuitbreaker"
)

// Capability names one strategy kind.
type Capability string

// Capabilities a provider may implement.
const (
	CapabilityAuth          Capability = "auth"
	CapabilityFeed          Capability = "feed"
	CapabilityNotifications Capability = "notifications"
	CapabilityPages         Capability = "pages"
	CapabilityActions       Capability = "actions"
)

// registration holds the constructors of one provider. A nil constructor
// means the capability is not supported.
type registration struct {
	auth          func(provider.Options) (provider.AuthStrategy, error)
	feed          func(provider.Options) (provider.Feed, error)
	notifications func(provider.Options) (provider.Notifications, error)
	pages         func(provider.Options) (provider.Pages, error)
	actions       func(provider.Options) (provider.Actions, error)
}

var table = map[entity.ProviderName]registration{
	entity.Facebook: {
		auth:          authOf(facebook.NewAuth),
		feed:          feedOf[facebook.Post, facebook.Comment](facebook.NewAuth, facebook.NewFeed),
		notifications: notificationsOf[facebook.Notification](facebook.NewAuth, facebook.NewNotifications),
		pages:         pagesOf[facebook.Page](facebook.NewAuth, facebook.NewPages),
		actions:       actionsOf(facebook.NewAuth, facebook.NewActions),
	},
	entity.Twitter: {
		auth:          authOf(twitter.NewAuth),
		feed:          feedOf[twitter.Tweet, twitter.Tweet](twitter.NewAuth, twitter.NewFeed),
		notifications: notificationsOf[twitter.Tweet](twitter.NewAuth, twitter.NewNotifications),
		actions:       actionsOf(twitter.NewAuth, twitter.NewActions),
	},
	entity.Instagram: {
		auth:    authOf(instagram.NewAuth),
		feed:    feedOf[instagram.Media, instagram.Comment](instagram.NewAuth, instagram.NewFeed),
		actions: actionsOf(instagram.NewAuth, instagram.NewActions),
	},
	entity.Tumblr: {
		auth:          authOf(tumblr.NewAuth),
		feed:          feedOf[tumblr.Post, tumblr.Post](tumblr.NewAuth, tumblr.NewFeed),
		notifications: notificationsOf[tumblr.Post](tumblr.NewAuth, tumblr.NewNotifications),
		actions:       actionsOf(tumblr.NewAuth, tumblr.NewActions),
	},
	entity.YouTube: {
		auth:    authOf(youtube.NewAuth),
		feed:    feedOf[youtube.Post, youtube.Post](youtube.NewAuth, youtube.NewFeed),
		actions: actionsOf(youtube.NewAuth, youtube.NewActions),
	},
	entity.RSS: {
		auth:          authOf(rss.NewAuth),
		feed:          feedOf[rss.Item, rss.Item](rss.NewAuth, rss.NewFeed),
		notifications: notificationsOf[rss.Item](rss.NewAuth, rss.NewNotifications),
	},
}

// Registry resolves capability facades by provider name.
type Registry struct {
	options map[entity.ProviderName]provider.Options
}

// New binds the provider options. Providers without options get zero
// options. Each provider is given one traced HTTP client and one circuit
// breaker shared by all its strategies; tokens, when not nil, receives
// refreshed credentials.
func New(options map[entity.ProviderName]provider.Options, tokens provider.TokenUpdater) *Registry {
	bound := make(map[entity.ProviderName]provider.Options, len(table))
	for name := range table {
		opts := options[name]
		if opts.HTTPClient == nil {
			opts.HTTPClient = &http.Client{Transport: tracing.NewTransport(name.String(), nil)}
		}
		if opts.Breaker == nil {
			opts.Breaker = circuitbreaker.New(circuitbreaker.ProviderAPIConfig(name.String()))
		}
		if opts.Tokens == nil {
			opts.Tokens = tokens
		}
		bound[name] = opts
	}
	return &Registry{options: bound}
}

// Providers lists the registered provider names in registration order.
func (r *Registry) Providers() []entity.ProviderName {
	out := make([]entity.ProviderName, 0, len(table))
	for _, name := range entity.AllProviders {
		if _, ok := table[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Supports reports whether name is registered with capability c.
func (r *Registry) Supports(name entity.ProviderName, c Capability) bool {
	reg, ok := table[name]
	if !ok {
		return false
	}
	switch c {
	case CapabilityAuth:
		return reg.auth != nil
	case CapabilityFeed:
		return reg.feed != nil
	case CapabilityNotifications:
		return reg.notifications != nil
	case CapabilityPages:
		return reg.pages != nil
	case CapabilityActions:
		return reg.actions != nil
	}
	return false
}

// Breaker returns the circuit breaker shared by the strategies of name.
func (r *Registry) Breaker(name entity.ProviderName) *circuitbreaker.CircuitBreaker {
	return r.options[name].Breaker
}

// Auth returns the auth facade of name.
func (r *Registry) Auth(name entity.ProviderName) (*provider.AuthAPI, error) {
	reg, opts, err := r.lookup(name, CapabilityAuth, func(reg registration) bool { return reg.auth != nil })
	if err != nil {
		return nil, err
	}
	s, err := reg.auth(opts)
	if err != nil {
		return nil, fmt.Errorf("build %s auth: %w", name, err)
	}
	return provider.NewAuthAPI(s), nil
}

// Feed returns the feed facade of name.
func (r *Registry) Feed(name entity.ProviderName) (provider.Feed, error) {
	reg, opts, err := r.lookup(name, CapabilityFeed, func(reg registration) bool { return reg.feed != nil })
	if err != nil {
		return nil, err
	}
	return build(name, CapabilityFeed, reg.feed, opts)
}

// Notifications returns the notification facade of name.
func (r *Registry) Notifications(name entity.ProviderName) (provider.Notifications, error) {
	reg, opts, err := r.lookup(name, CapabilityNotifications, func(reg registration) bool { return reg.notifications != nil })
	if err != nil {
		return nil, err
	}
	return build(name, CapabilityNotifications, reg.notifications, opts)
}

// Pages returns the page facade of name.
func (r *Registry) Pages(name entity.ProviderName) (provider.Pages, error) {
	reg, opts, err := r.lookup(name, CapabilityPages, func(reg registration) bool { return reg.pages != nil })
	if err != nil {
		return nil, err
	}
	return build(name, CapabilityPages, reg.pages, opts)
}

// Actions returns the action facade of name.
func (r *Registry) Actions(name entity.ProviderName) (provider.Actions, error) {
	reg, opts, err := r.lookup(name, CapabilityActions, func(reg registration) bool { return reg.actions != nil })
	if err != nil {
		return nil, err
	}
	return build(name, CapabilityActions, reg.actions, opts)
}

func (r *Registry) lookup(name entity.ProviderName, c Capability, has func(registration) bool) (registration, provider.Options, error) {
	reg, ok := table[name]
	if !ok {
		return registration{}, provider.Options{}, fmt.Errorf("%w: %q", entity.ErrProviderNotSupported, name)
	}
	if !has(reg) {
		return registration{}, provider.Options{}, fmt.Errorf("%w: %s %s", entity.ErrCapabilityNotSupported, name, c)
	}
	return reg, r.options[name], nil
}

func build[T any](name entity.ProviderName, c Capability, ctor func(provider.Options) (T, error), opts provider.Options) (T, error) {
	v, err := ctor(opts)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("build %s %s: %w", name, c, err)
	}
	return v, nil
}

func authOf[A provider.AuthStrategy](newAuth func(provider.Options) (A, error)) func(provider.Options) (provider.AuthStrategy, error) {
	return func(o provider.Options) (provider.AuthStrategy, error) {
		a, err := newAuth(o)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}

func feedOf[P, C any, A any, S provider.FeedStrategy[P, C]](newAuth func(provider.Options) (A, error), newFeed func(A, provider.Options) (S, error)) func(provider.Options) (provider.Feed, error) {
	return func(o provider.Options) (provider.Feed, error) {
		a, err := newAuth(o)
		if err != nil {
			return nil, err
		}
		s, err := newFeed(a, o)
		if err != nil {
			return nil, err
		}
		return provider.NewFeedAPI[P, C](s), nil
	}
}

func notificationsOf[N any, A any, S provider.NotificationStrategy[N]](newAuth func(provider.Options) (A, error), newNotifications func(A, provider.Options) (S, error)) func(provider.Options) (provider.Notifications, error) {
	return func(o provider.Options) (provider.Notifications, error) {
		a, err := newAuth(o)
		if err != nil {
			return nil, err
		}
		s, err := newNotifications(a, o)
		if err != nil {
			return nil, err
		}
		return provider.NewNotificationAPI[N](s), nil
	}
}

func pagesOf[G any, A any, S provider.PageStrategy[G]](newAuth func(provider.Options) (A, error), newPages func(A, provider.Options) (S, error)) func(provider.Options) (provider.Pages, error) {
	return func(o provider.Options) (provider.Pages, error) {
		a, err := newAuth(o)
		if err != nil {
			return nil, err
		}
		s, err := newPages(a, o)
		if err != nil {
			return nil, err
		}
		return provider.NewPagesAPI[G](s), nil
	}
}

func actionsOf[A any, S provider.ActionStrategy](newAuth func(provider.Options) (A, error), newActions func(A, provider.Options) (S, error)) func(provider.Options) (provider.Actions, error) {
	return func(o provider.Options) (provider.Actions, error) {
		a, err := newAuth(o)
		if err != nil {
			return nil, err
		}
		s, err := newActions(a, o)
		if err != nil {
			return nil, err
		}
		return provider.NewActionAPI(s), nil
	}
}
