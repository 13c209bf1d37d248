package accounts_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"feedient/internal/domain/entity"
	"feedient/internal/handler/http/accounts"
	"feedient/internal/handler/http/auth"
	"feedient/internal/provider"
	"feedient/internal/provider/registry"
	"feedient/internal/usecase/account"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*──────────────────── stubs ────────────────────*/

type stubService struct {
	err error

	userID   string
	id       string
	provider entity.ProviderName
	callback provider.CallbackPayload
	feed     provider.FeedQuery
	comments provider.CommentQuery
	since    string
	limit    int
	action   provider.ActionName
	payload  provider.ActionPayload
}

func (s *stubService) RequestToken(_ context.Context, name entity.ProviderName) (*provider.RequestToken, error) {
	s.provider = name
	if s.err != nil {
		return nil, s.err
	}
	return &provider.RequestToken{Token: "rt", TokenSecret: "rts", AuthorizeURL: "https://api.twitter.com/oauth/authorize?oauth_token=rt"}, nil
}

func (s *stubService) Link(_ context.Context, userID string, name entity.ProviderName, p provider.CallbackPayload) ([]*entity.ProviderView, error) {
	s.userID, s.provider, s.callback = userID, name, p
	if s.err != nil {
		return nil, s.err
	}
	return []*entity.ProviderView{{ID: "acc-1", Provider: entity.ProviderViewDetails{Name: name, Username: "News"}}}, nil
}

func (s *stubService) List(_ context.Context, userID string) ([]*entity.ProviderView, error) {
	s.userID = userID
	return []*entity.ProviderView{{ID: "acc-1"}, {ID: "acc-2"}}, s.err
}

func (s *stubService) Unlink(_ context.Context, userID, id string) error {
	s.userID, s.id = userID, id
	return s.err
}

func (s *stubService) Feed(_ context.Context, userID, id string, q provider.FeedQuery) ([]*entity.Post, error) {
	s.userID, s.id, s.feed = userID, id, q
	if s.err != nil {
		return nil, s.err
	}
	return []*entity.Post{{ID: "p1"}, {ID: "p2"}}, nil
}

func (s *stubService) Post(_ context.Context, userID, id, postID string) (*entity.Post, error) {
	s.userID, s.id = userID, id
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Post{ID: postID}, nil
}

func (s *stubService) Comments(_ context.Context, userID, id string, q provider.CommentQuery) (*entity.CommentThread, error) {
	s.userID, s.id, s.comments = userID, id, q
	if s.err != nil {
		return nil, s.err
	}
	return &entity.CommentThread{UserProviderID: id, PostID: q.PostID}, nil
}

func (s *stubService) Notifications(_ context.Context, userID, id, since string, limit int) ([]*entity.Notification, error) {
	s.userID, s.id, s.since, s.limit = userID, id, since, limit
	return []*entity.Notification{}, s.err
}

func (s *stubService) Pages(_ context.Context, userID, id string) ([]*entity.Page, error) {
	s.userID, s.id = userID, id
	return []*entity.Page{{ID: "pg"}}, s.err
}

func (s *stubService) Do(_ context.Context, userID, id string, name provider.ActionName, p provider.ActionPayload) (*provider.ActionResult, error) {
	s.userID, s.id, s.action, s.payload = userID, id, name, p
	if s.err != nil {
		return nil, s.err
	}
	return &provider.ActionResult{ID: "created"}, nil
}

type stubCatalog struct{}

func (stubCatalog) Providers() []entity.ProviderName {
	return []entity.ProviderName{entity.Twitter, entity.RSS}
}

func (stubCatalog) Supports(name entity.ProviderName, c registry.Capability) bool {
	if name == entity.RSS {
		return c != registry.CapabilityActions && c != registry.CapabilityPages
	}
	return c != registry.CapabilityPages
}

// newServer mounts the API with every request authenticated as userID.
func newServer(svc *stubService, userID string) http.Handler {
	mux := http.NewServeMux()
	accounts.Register(mux, &accounts.Handler{Svc: svc, Catalog: stubCatalog{}})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID != "" {
			r = r.WithContext(auth.WithUser(r.Context(), userID))
		}
		mux.ServeHTTP(w, r)
	})
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	msg, _ := body["error"].(string)
	return msg
}

/*──────────────────── tests ────────────────────*/

func TestListProviders(t *testing.T) {
	rec := do(t, newServer(&stubService{}, "u-1"), httptest.NewRequest(http.MethodGet, "/v1/providers", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out []accounts.ProviderDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.Len(t, out, 2)
	assert.Equal(t, "twitter", out[0].Name)
	assert.Equal(t, []string{"auth", "feed", "notifications", "actions"}, out[0].Capabilities)
	assert.Equal(t, []string{"auth", "feed", "notifications"}, out[1].Capabilities)
}

func TestRequestToken(t *testing.T) {
	svc := &stubService{}
	rec := do(t, newServer(svc, "u-1"), httptest.NewRequest(http.MethodGet, "/v1/providers/Twitter/request-token", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.Twitter, svc.provider)
	var rt provider.RequestToken
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rt))
	assert.Equal(t, "rt", rt.Token)
}

func TestRequestToken_UnknownProvider(t *testing.T) {
	rec := do(t, newServer(&stubService{}, "u-1"), httptest.NewRequest(http.MethodGet, "/v1/providers/myspace/request-token", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCallback_JSONAndForm(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
	}{
		{"json", `{"rss_url":"https://news.example.org/rss.xml","rss_name":"News"}`, "application/json"},
		{"form", url.Values{"rss_url": {"https://news.example.org/rss.xml"}, "rss_name": {"News"}}.Encode(), "application/x-www-form-urlencoded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			req := httptest.NewRequest(http.MethodPost, "/v1/providers/rss/callback", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := do(t, newServer(svc, "u-1"), req)

			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			assert.Equal(t, "u-1", svc.userID)
			assert.Equal(t, entity.RSS, svc.provider)
			assert.Equal(t, "https://news.example.org/rss.xml", svc.callback.RSSURL)
			assert.Equal(t, "News", svc.callback.RSSName)
		})
	}
}

func TestCallback_Errors(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		body     string
		err      error
		wantCode int
	}{
		{name: "unauthenticated", userID: "", body: `{}`, wantCode: http.StatusUnauthorized},
		{name: "bad json", userID: "u-1", body: `{`, wantCode: http.StatusBadRequest},
		{name: "empty fields", userID: "u-1", body: `{}`, err: entity.ErrFormEmptyFields, wantCode: http.StatusBadRequest},
		{name: "no profiles", userID: "u-1", body: `{}`, err: account.ErrNoProfiles, wantCode: http.StatusUnprocessableEntity},
		{name: "provider rejected code", userID: "u-1", body: `{"oauth_code":"x"}`, err: entity.NewOAuthError("", 1005), wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/providers/facebook/callback", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := do(t, newServer(&stubService{err: tt.err}, tt.userID), req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestListAccounts(t *testing.T) {
	svc := &stubService{}
	rec := do(t, newServer(svc, "u-7"), httptest.NewRequest(http.MethodGet, "/v1/accounts", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-7", svc.userID)
	var views []entity.ProviderView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&views))
	assert.Len(t, views, 2)
}

func TestUnlink(t *testing.T) {
	svc := &stubService{}
	rec := do(t, newServer(svc, "u-1"), httptest.NewRequest(http.MethodDelete, "/v1/accounts/acc-1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "acc-1", svc.id)

	rec = do(t, newServer(&stubService{err: account.ErrAccountNotFound}, "u-1"),
		httptest.NewRequest(http.MethodDelete, "/v1/accounts/acc-9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "account not found", decodeError(t, rec))
}

func TestFeed_Query(t *testing.T) {
	svc := &stubService{}
	rec := do(t, newServer(svc, "u-1"), httptest.NewRequest(http.MethodGet, "/v1/accounts/acc-1/feed?since=100&until=50&limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, provider.FeedQuery{Since: "100", Until: "50", Limit: 5}, svc.feed)
	var posts []entity.Post
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&posts))
	assert.Len(t, posts, 2)
}

func TestFeed_InvalidLimit(t *testing.T) {
	svc := &stubService{}
	rec := do(t, newServer(svc, "u-1"), httptest.NewRequest(http.MethodGet, "/v1/accounts/acc-1/feed?limit=-3", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.id, "service must not be called")
}

func TestFeed_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", account.ErrAccountNotFound, http.StatusNotFound},
		{"needs reauth", errors.Join(account.ErrNeedsReauth, entity.NewOAuthError("acc-1", 1002)), http.StatusUnauthorized},
		{"rate limited", entity.ErrRateLimitReached, http.StatusTooManyRequests},
		{"breaker open", gobreaker.ErrOpenState, http.StatusServiceUnavailable},
		{"capability", entity.ErrCapabilityNotSupported, http.StatusNotImplemented},
		{"provider error", &entity.ProviderError{Provider: entity.Twitter, Message: "Over capacity"}, http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newServer(&stubService{err: tt.err}, "u-1"), httptest.NewRequest(http.MethodGet, "/v1/accounts/acc-1/feed", nil))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestFeed_NeedsReauthBody(t *testing.T) {
	err := errors.Join(account.ErrNeedsReauth, entity.NewOAuthError("acc-1", 1002))
	rec := do(t, newServer(&stubService{err: err}, "u-1"), httptest.NewRequest(http.MethodGet, "/v1/accounts/acc-1/feed", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body struct {
		Error entity.OAuthError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "acc-1", body.Error.ProviderID)
	assert.Equal(t, 1002, body.Error.Code)
}

func TestPostAndComments(t *testing.T) {
	svc := &stubService{}
	h := newServer(svc, "u-1")

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/v1/accounts/acc-1/posts/123_456", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var post entity.Post
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&post))
	assert.Equal(t, "123_456", post.ID)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/v1/accounts/acc-1/posts/123_456/comments?before=2024-01-01T00:00:00Z&limit=10&user_id=99", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, provider.CommentQuery{PostID: "123_456", BeforeTime: "2024-01-01T00:00:00Z", Limit: 10, UserID: "99"}, svc.comments)
}

func TestNotificationsAndPages(t *testing.T) {
	svc := &stubService{}
	h := newServer(svc, "u-1")

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/v1/accounts/acc-1/notifications?since=abc&limit=20", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", svc.since)
	assert.Equal(t, 20, svc.limit)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/v1/accounts/acc-1/pages", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acc-1", svc.id)
}

func TestDo_Form(t *testing.T) {
	svc := &stubService{}
	body := url.Values{"message": {"hello world"}, "post_id": {"42"}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts/acc-1/actions/compose", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(t, newServer(svc, "u-1"), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, provider.ActionCompose, svc.action)
	assert.Equal(t, "hello world", svc.payload.Get("message"))
	assert.Equal(t, "42", svc.payload.Get("post_id"))
	assert.Nil(t, svc.payload.Picture)
}

func TestDo_MultipartPicture(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("message", "look"))
	fw, err := mw.CreateFormFile("picture", "cat.png")
	require.NoError(t, err)
	png := []byte("\x89PNG\r\n\x1a\n0000")
	_, err = fw.Write(png)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	svc := &stubService{}
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts/acc-1/actions/composeWithPicture", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(t, newServer(svc, "u-1"), req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, provider.ActionComposeWithPicture, svc.action)
	assert.Equal(t, "look", svc.payload.Get("message"))
	require.NotNil(t, svc.payload.Picture)
	assert.Equal(t, "cat.png", svc.payload.Picture.Filename)
	assert.Equal(t, png, svc.payload.Picture.Data)
}

func TestDo_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"unknown action", entity.ErrActionNotFound, http.StatusNotFound},
		{"missing fields", entity.ErrFormEmptyFields, http.StatusBadRequest},
		{"too long", entity.ErrComposeMaxLength, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/accounts/acc-1/actions/poke", strings.NewReader(""))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := do(t, newServer(&stubService{err: tt.err}, "u-1"), req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
