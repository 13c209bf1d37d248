package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"

	"gopkg.in/yaml.v3"
)

// DefaultProvidersPath is used when PROVIDERS_CONFIG is not set.
const DefaultProvidersPath = "configs/providers.yaml"

// ProvidersConfig is the provider configuration file.
type ProvidersConfig struct {
	Providers  map[string]ProviderConfig `yaml:"providers"`
	ImageProxy ImageProxyConfig          `yaml:"imageProxy"`
}

// ProviderConfig holds the credentials and endpoints of one provider.
type ProviderConfig struct {
	ClientID        string        `yaml:"clientID"`
	ClientSecret    string        `yaml:"clientSecret"`
	CallbackURL     string        `yaml:"callbackURL"`
	AccessTokenURL  string        `yaml:"accessTokenURL"`
	RequestTokenURL string        `yaml:"requestTokenURL"`
	AuthorizeURL    string        `yaml:"authorizeURL"`
	APIURL          string        `yaml:"apiURL"`
	DataAPIURL      string        `yaml:"dataAPIURL"`
	DeveloperKey    string        `yaml:"developerKey"`
	StreamTimeout   time.Duration `yaml:"streamTimeout"`
	CallTimeout     time.Duration `yaml:"callTimeout"`
}

// ImageProxyConfig rewrites legacy instagram avatar hosts.
type ImageProxyConfig struct {
	ClientURL              string            `yaml:"clientURL"`
	InstagramAvatarsImages string            `yaml:"instagramAvatarsImages"`
	InstagramAvatarsPhotos map[string]string `yaml:"instagramAvatarsPhotos"`
}

// DefaultProviders returns the public endpoints of every provider. Secrets
// are left empty.
func DefaultProviders() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		entity.Facebook.String(): {
			AccessTokenURL: "https://graph.facebook.com/oauth/access_token",
			AuthorizeURL:   "https://www.facebook.com/dialog/oauth",
			APIURL:         "https://graph.facebook.com/v2.1",
		},
		entity.Twitter.String(): {
			RequestTokenURL: "https://api.twitter.com/oauth/request_token",
			AccessTokenURL:  "https://api.twitter.com/oauth/access_token",
			AuthorizeURL:    "https://api.twitter.com/oauth/authorize",
			APIURL:          "https://api.twitter.com/1.1",
		},
		entity.Instagram.String(): {
			AccessTokenURL: "https://api.instagram.com/oauth/access_token",
			AuthorizeURL:   "https://api.instagram.com/oauth/authorize",
			APIURL:         "https://api.instagram.com/v1",
		},
		entity.Tumblr.String(): {
			RequestTokenURL: "https://www.tumblr.com/oauth/request_token",
			AccessTokenURL:  "https://www.tumblr.com/oauth/access_token",
			AuthorizeURL:    "https://www.tumblr.com/oauth/authorize",
			APIURL:          "https://api.tumblr.com/v2",
		},
		entity.YouTube.String(): {
			AccessTokenURL: "https://accounts.google.com/o/oauth2/token",
			AuthorizeURL:   "https://accounts.google.com/o/oauth2/auth",
			APIURL:         "https://gdata.youtube.com/feeds/api",
			DataAPIURL:     "https://www.googleapis.com/youtube/v3",
		},
		entity.RSS.String(): {},
	}
}

// LoadProvidersConfig reads the file at path (PROVIDERS_CONFIG, then
// DefaultProvidersPath, when empty), fills unset fields from
// DefaultProviders and applies the FEEDIENT_<PROVIDER>_* secret overrides.
// A missing file at the default path yields the defaults.
func LoadProvidersConfig(path string) (*ProvidersConfig, error) {
	explicit := path != ""
	if !explicit {
		path = getEnvOrDefault("PROVIDERS_CONFIG", DefaultProvidersPath)
		explicit = os.Getenv("PROVIDERS_CONFIG") != ""
	}

	cfg := &ProvidersConfig{}
	// #nosec G304 -- path comes from the operator (flag or env), not user input
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse providers config: %w", err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read providers config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("providers config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *ProvidersConfig) applyDefaults() {
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	for name, def := range DefaultProviders() {
		p, ok := c.Providers[name]
		if !ok {
			c.Providers[name] = def
			continue
		}
		fill(&p.AccessTokenURL, def.AccessTokenURL)
		fill(&p.RequestTokenURL, def.RequestTokenURL)
		fill(&p.AuthorizeURL, def.AuthorizeURL)
		fill(&p.APIURL, def.APIURL)
		fill(&p.DataAPIURL, def.DataAPIURL)
		c.Providers[name] = p
	}
}

func fill(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

// applyEnv overrides secrets from FEEDIENT_<PROVIDER>_CLIENT_ID,
// _CLIENT_SECRET and _DEVELOPER_KEY.
func (c *ProvidersConfig) applyEnv() {
	for name, p := range c.Providers {
		prefix := "FEEDIENT_" + strings.ToUpper(name) + "_"
		p.ClientID = getEnvOrDefault(prefix+"CLIENT_ID", p.ClientID)
		p.ClientSecret = getEnvOrDefault(prefix+"CLIENT_SECRET", p.ClientSecret)
		p.DeveloperKey = getEnvOrDefault(prefix+"DEVELOPER_KEY", p.DeveloperKey)
		c.Providers[name] = p
	}
}

// Validate rejects unknown provider keys and negative timeouts.
func (c *ProvidersConfig) Validate() error {
	for name, p := range c.Providers {
		if !entity.ProviderName(name).Valid() {
			return fmt.Errorf("unknown provider %q", name)
		}
		if p.StreamTimeout < 0 {
			return fmt.Errorf("%s: streamTimeout must not be negative", name)
		}
		if p.CallTimeout < 0 {
			return fmt.Errorf("%s: callTimeout must not be negative", name)
		}
	}
	for letter := range c.ImageProxy.InstagramAvatarsPhotos {
		if len(letter) != 1 {
			return fmt.Errorf("imageProxy.instagramAvatarsPhotos: key %q must be a single letter", letter)
		}
	}
	return nil
}

// Options converts the file into strategy options keyed by provider.
func (c *ProvidersConfig) Options() map[entity.ProviderName]provider.Options {
	proxy := provider.ImageProxy{
		ClientURL:     c.ImageProxy.ClientURL,
		AvatarsImages: c.ImageProxy.InstagramAvatarsImages,
		AvatarsPhotos: c.ImageProxy.InstagramAvatarsPhotos,
	}
	out := make(map[entity.ProviderName]provider.Options, len(c.Providers))
	for name, p := range c.Providers {
		out[entity.ProviderName(name)] = provider.Options{
			ClientID:        p.ClientID,
			ClientSecret:    p.ClientSecret,
			CallbackURL:     p.CallbackURL,
			AccessTokenURL:  p.AccessTokenURL,
			RequestTokenURL: p.RequestTokenURL,
			AuthorizeURL:    p.AuthorizeURL,
			APIURL:          p.APIURL,
			DataAPIURL:      p.DataAPIURL,
			DeveloperKey:    p.DeveloperKey,
			StreamTimeout:   p.StreamTimeout,
			CallTimeout:     p.CallTimeout,
			ImageProxy:      proxy,
		}
	}
	return out
}
