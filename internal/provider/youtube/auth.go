// Package youtube implements the provider strategies for YouTube: the legacy
// GData subscription feed for reading and the Data API v3 for statistics and
// ratings.
package youtube

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"feedient/internal/domain/entity"
	"feedient/internal/observability/logging"
	"feedient/internal/observability/metrics"
	"feedient/internal/provider"
	"feedient/internal/provider/oauth"
)

const (
	defaultDataAPIURL = "https://www.googleapis.com/youtube/v3"

	gdataUsersPrefix   = "http://gdata.youtube.com/feeds/api/users/"
	gdataVideosPrefix  = "http://gdata.youtube.com/feeds/api/videos/"
	channelPrefix      = "https://www.youtube.com/channel/"
	authorPrefix       = "https://gdata.youtube.com/feeds/api/users/"
	userProfilePrefix  = "https://www.youtube.com/user/"
	watchURL           = "https://www.youtube.com/watch?v="
	legacyWatchURL     = "http://www.youtube.com/watch?v="
	avatarProfileField = "yt:username,media:thumbnail,title"
)

// Markers searched for in response bodies.
const (
	markerNoChannel    = "NoLinkedYouTubeAccount"
	markerForbidden    = "Forbidden"
	markerDeveloperKey = "Invalid developer key"
	markerTokenInvalid = "Token invalid"
)

// requestFunc builds one outbound request.
type requestFunc func(ctx context.Context) (*http.Request, error)

// Auth is the YouTube OAuth2 strategy. Expired access tokens are renewed
// with the stored refresh token and persisted through the TokenUpdater.
type Auth struct {
	apiURL       string
	dataAPIURL   string
	developerKey string
	client       *provider.Client
	oauth        *oauth.OAuth2
	store        provider.TokenUpdater
}

var _ provider.OAuth2Strategy = (*Auth)(nil)

// NewAuth builds the strategy.
func NewAuth(opts provider.Options) (*Auth, error) {
	if err := opts.RequireAPIURL(); err != nil {
		return nil, err
	}
	dataAPIURL := opts.DataAPIURL
	if dataAPIURL == "" {
		dataAPIURL = defaultDataAPIURL
	}
	client := provider.NewClient(entity.YouTube, opts)
	return &Auth{
		apiURL:       opts.APIURL,
		dataAPIURL:   dataAPIURL,
		developerKey: opts.DeveloperKey,
		client:       client,
		oauth:        oauth.NewOAuth2(entity.YouTube, opts, client),
		store:        opts.Tokens,
	}, nil
}

// Provider implements provider.AuthStrategy.
func (a *Auth) Provider() entity.ProviderName { return entity.YouTube }

// GetAccessToken implements provider.OAuth2Strategy.
func (a *Auth) GetAccessToken(ctx context.Context, code string, opts provider.AccessTokenOptions) (*entity.Tokens, error) {
	tok, err := a.oauth.GetAccessToken(ctx, code, opts)
	if err != nil {
		return nil, err
	}
	tokens := oauth.Tokens(tok)
	return &tokens, nil
}

// HandleCallback exchanges the code and loads the GData profile and avatar.
func (a *Auth) HandleCallback(ctx context.Context, payload provider.CallbackPayload) ([]entity.Profile, error) {
	tokens, err := a.GetAccessToken(ctx, payload.Code, provider.AccessTokenOptions{})
	if err != nil {
		return nil, err
	}

	up := &entity.UserProvider{Provider: entity.YouTube, Tokens: *tokens}
	query := url.Values{"access_token": {tokens.AccessToken}, "alt": {"json"}}
	res, _, err := a.call(ctx, up, false, get(a.apiURL+"/users/default", query, nil))
	if err != nil {
		return nil, err
	}
	var p profile
	if err := res.JSON(&p); err != nil {
		return nil, err
	}

	userID := strings.TrimPrefix(p.Entry.ID.T, gdataUsersPrefix)
	var channelID string
	if len(p.Entry.Link) > 0 {
		channelID = strings.TrimPrefix(p.Entry.Link[0].Href, channelPrefix)
	}

	return []entity.Profile{{
		UserID: userID,
		Account: entity.Account{
			Username:     p.Entry.Username.T,
			UserFullName: p.Entry.Title.T,
			ChannelID:    channelID,
			Avatar:       a.avatar(ctx, up, userID),
		},
		Tokens: tokens,
	}}, nil
}

// avatar returns the thumbnail of userID, or "" when it cannot be loaded.
func (a *Auth) avatar(ctx context.Context, up *entity.UserProvider, userID string) string {
	query := url.Values{
		"access_token": {up.Tokens.AccessToken},
		"fields":       {avatarProfileField},
		"alt":          {"json"},
		"format":       {"5"},
	}
	res, _, err := a.call(ctx, up, false, get(a.apiURL+"/users/"+url.PathEscape(userID), query, nil))
	if err != nil {
		logging.FromContext(ctx).Debug("youtube avatar unavailable", slog.Any("error", err))
		return ""
	}
	var p profile
	if err := res.JSON(&p); err != nil || p.Entry.Thumbnail == nil {
		return ""
	}
	return p.Entry.Thumbnail.URL
}

// CheckAccessToken matches the error markers YouTube puts in response
// bodies. An invalid or missing access token is renewed; the returned
// UserProvider then carries the new tokens and the call should be repeated.
func (a *Auth) CheckAccessToken(ctx context.Context, up *entity.UserProvider, res *provider.Response) (*entity.UserProvider, error) {
	return a.classify(ctx, up, res, true)
}

func (a *Auth) classify(ctx context.Context, up *entity.UserProvider, res *provider.Response, refresh bool) (*entity.UserProvider, error) {
	body := string(res.Body)
	switch {
	case strings.Contains(body, markerNoChannel):
		return nil, a.authError(ctx, up, entity.CodeNoLinkedAccount)
	case strings.Contains(body, markerForbidden):
		return nil, a.authError(ctx, up, entity.CodeTokenRevoked)
	case strings.Contains(body, markerDeveloperKey):
		return nil, a.authError(ctx, up, entity.CodePermissionDenied)
	case strings.Contains(body, markerTokenInvalid),
		res.StatusCode == http.StatusUnauthorized,
		up.Tokens.AccessToken == "":
		if !refresh {
			return nil, a.authError(ctx, up, entity.CodeTokenRevoked)
		}
		return a.refresh(ctx, up)
	}
	return nil, nil
}

// refresh renews the access token and persists it. Any failure, including
// persistence, is terminal.
func (a *Auth) refresh(ctx context.Context, up *entity.UserProvider) (*entity.UserProvider, error) {
	logger := logging.ForUserProvider(logging.FromContext(ctx), up)

	tok, err := a.oauth.Refresh(ctx, up.Tokens.RefreshToken)
	if err != nil {
		metrics.RecordTokenRefresh(entity.YouTube.String(), false)
		logger.Warn("youtube token refresh failed", slog.Any("error", err))
		return nil, a.authError(ctx, up, entity.CodeTokenRevoked)
	}

	tokens := entity.Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: up.Tokens.RefreshToken,
		ExpiresIn:    oauth.Tokens(tok).ExpiresIn,
		TokenType:    "Bearer",
	}
	if a.store == nil {
		metrics.RecordTokenRefresh(entity.YouTube.String(), false)
		logger.Warn("youtube token refreshed but no token store is configured")
		return nil, a.authError(ctx, up, entity.CodeTokenRevoked)
	}
	if err := a.store.UpdateTokens(ctx, up.ID, tokens); err != nil {
		metrics.RecordTokenRefresh(entity.YouTube.String(), false)
		logger.Warn("youtube refreshed tokens not persisted", slog.Any("error", err))
		return nil, a.authError(ctx, up, entity.CodeTokenRevoked)
	}

	metrics.RecordTokenRefresh(entity.YouTube.String(), true)
	logger.Info("youtube access token refreshed")
	return up.WithTokens(tokens), nil
}

func (a *Auth) authError(ctx context.Context, up *entity.UserProvider, code int) error {
	metrics.RecordAuthError(entity.YouTube.String(), code)
	logging.ForUserProvider(logging.FromContext(ctx), up).Warn("youtube token rejected", slog.Int("code", code))
	return entity.NewOAuthError(up.ID, code)
}

// FormatProvider implements provider.AuthStrategy.
func (a *Auth) FormatProvider(up *entity.UserProvider) *entity.ProviderView {
	return provider.FormatProvider(up)
}

// call sends the request and classifies the response. With refresh set, a
// renewed UserProvider is returned instead of a response when the tokens had
// to be refreshed; without it the same condition is a terminal auth error.
func (a *Auth) call(ctx context.Context, up *entity.UserProvider, refresh bool, build requestFunc) (*provider.Response, *entity.UserProvider, error) {
	res, err := a.client.Do(ctx, build)
	if err != nil {
		return nil, nil, err
	}
	fresh, err := a.classify(ctx, up, res, refresh)
	if err != nil {
		return nil, nil, err
	}
	if fresh != nil {
		return nil, fresh, nil
	}
	return res, nil, nil
}

// do sends the request built for up and repeats it once with refreshed
// tokens when needed.
func (a *Auth) do(ctx context.Context, up *entity.UserProvider, build func(up *entity.UserProvider) requestFunc) (*provider.Response, error) {
	res, fresh, err := a.call(ctx, up, true, build(up))
	if err != nil || fresh == nil {
		return res, err
	}
	res, _, err = a.call(ctx, fresh, false, build(fresh))
	return res, err
}

func get(rawURL string, query url.Values, header http.Header) requestFunc {
	return request(http.MethodGet, rawURL, query, header)
}

func request(method, rawURL string, query url.Values, header http.Header) requestFunc {
	target := rawURL
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, target, nil)
		if err != nil {
			return nil, err
		}
		for k, vs := range header {
			req.Header[k] = vs
		}
		return req, nil
	}
}

func bearer(up *entity.UserProvider) http.Header {
	return http.Header{"Authorization": {"Bearer " + up.Tokens.AccessToken}}
}

func isObject(b []byte) bool {
	var v map[string]json.RawMessage
	return json.Unmarshal(b, &v) == nil
}
