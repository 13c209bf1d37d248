package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTokens struct {
	mu    sync.Mutex
	saved map[string]entity.Tokens
	err   error
}

func (m *memTokens) UpdateTokens(_ context.Context, id string, tokens entity.Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.saved == nil {
		m.saved = map[string]entity.Tokens{}
	}
	m.saved[id] = tokens
	return nil
}

func testUP() *entity.UserProvider {
	return &entity.UserProvider{
		ID:       "up-yt",
		Provider: entity.YouTube,
		Account:  &entity.Account{ChannelID: "UC123"},
		Tokens:   entity.Tokens{AccessToken: "old", RefreshToken: "rt"},
	}
}

// setup serves mux and counts refresh token requests.
func setup(t *testing.T, mux *http.ServeMux, store provider.TokenUpdater) (provider.Options, *Auth, *atomic.Int32) {
	t.Helper()
	refreshes := &atomic.Int32{}
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("grant_type") == "refresh_token" {
			refreshes.Add(1)
			assert.Equal(t, "rt", r.PostForm.Get("refresh_token"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"new","token_type":"Bearer","expires_in":3600}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	opts := provider.Options{
		APIURL:         server.URL + "/feeds/api",
		DataAPIURL:     server.URL + "/v3",
		AccessTokenURL: server.URL + "/token",
		DeveloperKey:   "dev-key",
		Tokens:         store,
	}
	auth, err := NewAuth(opts)
	require.NoError(t, err)
	return opts, auth, refreshes
}

const entryJSON = `{
	"id": {"$t": "http://gdata.youtube.com/feeds/api/videos/abc123"},
	"published": {"$t": "2014-05-10T12:00:00.000Z"},
	"title": {"$t": "A talk"},
	"content": {"$t": "Slides at http://example.com/slides"},
	"author": [{"name": {"$t": "TEDx"}, "uri": {"$t": "https://gdata.youtube.com/feeds/api/users/TEDxTalks"}}],
	"yt$statistics": {"viewCount": "301", "favoriteCount": "0"},
	"media$group": {"media$thumbnail": [{"url": "https://i.ytimg.com/vi/abc123/0.jpg"}], "yt$duration": {"seconds": "754"}}
}`

func TestNewStrategies_RequireAuthAndAPIURL(t *testing.T) {
	_, err := NewAuth(provider.Options{})
	assert.ErrorIs(t, err, entity.ErrMissingAPIURL)

	_, err = NewFeed(nil, provider.Options{APIURL: "x"})
	assert.ErrorIs(t, err, entity.ErrMissingAuthStrategy)

	_, err = NewActions(nil, provider.Options{APIURL: "x"})
	assert.ErrorIs(t, err, entity.ErrMissingAuthStrategy)
}

func TestProcessPost_Entry(t *testing.T) {
	var p Post
	require.NoError(t, json.Unmarshal([]byte(entryJSON), &p))
	require.NotNil(t, p.Entry)
	require.Nil(t, p.Video)
	p.Entry.PaginationID = 26

	feed := &Feed{}
	post := feed.ProcessPost(&p, testUP())
	require.NotNil(t, post)

	assert.Equal(t, "abc123", post.ID)
	assert.Equal(t, int64(26), post.PaginationID)
	assert.Equal(t, "http://www.youtube.com/watch?v=abc123", post.PostLink)
	assert.Equal(t, "TEDxTalks", post.User.ID)
	assert.Equal(t, "has uploaded a video", post.User.NameFormatted)
	assert.Equal(t, "https://www.youtube.com/user/TEDxTalks", post.User.ProfileLink)
	assert.Equal(t, time.Date(2014, 5, 10, 12, 0, 0, 0, time.UTC), post.Content.DateCreated)
	assert.Equal(t, "2014-05-10T12:00:00Z", post.Pagination.Since)

	views, err := json.Marshal(post.Content.ActionCounts[entity.CountViews])
	require.NoError(t, err)
	assert.JSONEq(t, `"301+"`, string(views))
	assert.Equal(t, entity.N(0), post.Content.ActionCounts[entity.CountLikes])

	v := post.Content.Entities.ExtendedVideo
	require.NotNil(t, v)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", v.Link)
	assert.Equal(t, "https://i.ytimg.com/vi/abc123/0.jpg", v.Thumbnail)
	assert.Equal(t, int64(754), v.Duration)
	require.Len(t, post.Content.Entities.Links, 1)
	assert.Equal(t, "http://example.com/slides", post.Content.Entities.Links[0].ExpandedURL)
}

func TestProcessPost_Video(t *testing.T) {
	var p Post
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"youtube#video","id":"abc123",
		"statistics":{"viewCount":"1000","likeCount":"12","dislikeCount":"1","favoriteCount":"0","commentCount":"4"}}`), &p))
	require.NotNil(t, p.Video)

	post := (&Feed{}).ProcessPost(&p, testUP())
	require.NotNil(t, post)
	assert.Equal(t, "abc123", post.ID)
	assert.Equal(t, map[string]entity.Count{
		entity.CountViews:     entity.N(1000),
		entity.CountLikes:     entity.N(12),
		entity.CountDislikes:  entity.N(1),
		entity.CountComments:  entity.N(4),
		entity.CountFavorites: entity.N(0),
	}, post.Content.ActionCounts)
	assert.Nil(t, post.Content.Entities)
}

func TestGetFeed_PaginationIDs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feeds/api/users/UC123/newsubscriptionvideos", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "old", q.Get("access_token"))
		assert.Equal(t, "json", q.Get("alt"))
		assert.Equal(t, "26", q.Get("start-index"))
		assert.Equal(t, "key=dev-key", r.Header.Get("X-GData-Key"))
		_, _ = io.WriteString(w, `{"feed":{"openSearch$startIndex":{"$t":"25"},"entry":[`+entryJSON+`,`+entryJSON+`]}}`)
	})
	opts, auth, refreshes := setup(t, mux, &memTokens{})
	feed, err := NewFeed(auth, opts)
	require.NoError(t, err)

	raw, err := feed.GetFeed(context.Background(), testUP(), provider.FeedQuery{Until: "26"})
	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.Equal(t, int64(26), raw[0].Entry.PaginationID)
	assert.Equal(t, int64(27), raw[1].Entry.PaginationID)
	assert.Zero(t, refreshes.Load())
}

func TestGetFeed_RefreshesOnceAndRetries(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/feeds/api/users/UC123/newsubscriptionvideos", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("access_token") == "old" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `<HTML><TITLE>Token invalid</TITLE></HTML>`)
			return
		}
		_, _ = io.WriteString(w, `{"feed":{"openSearch$startIndex":{"$t":"0"},"entry":[`+entryJSON+`]}}`)
	})
	store := &memTokens{}
	opts, auth, refreshes := setup(t, mux, store)
	feed, err := NewFeed(auth, opts)
	require.NoError(t, err)

	posts, err := provider.NewFeedAPI[Post, Post](feed).GetFeed(context.Background(), testUP(), provider.FeedQuery{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(1), posts[0].PaginationID)

	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, int32(2), calls.Load())
	saved := store.saved["up-yt"]
	assert.Equal(t, "new", saved.AccessToken)
	assert.Equal(t, "rt", saved.RefreshToken)
	assert.Equal(t, "Bearer", saved.TokenType)
}

func TestGetFeed_StillInvalidAfterRefresh(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/feeds/api/users/UC123/newsubscriptionvideos", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `Token invalid`)
	})
	opts, auth, refreshes := setup(t, mux, &memTokens{})
	feed, err := NewFeed(auth, opts)
	require.NoError(t, err)

	_, err = feed.GetFeed(context.Background(), testUP(), provider.FeedQuery{})
	var oauthErr *entity.OAuthError
	require.ErrorAs(t, err, &oauthErr)
	assert.Equal(t, entity.OAuthError{ProviderID: "up-yt", Type: entity.OAuthExceptionType, Code: entity.CodeTokenRevoked}, *oauthErr)

	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetFeed_PersistFailureIsTerminal(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/feeds/api/users/UC123/newsubscriptionvideos", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `Token invalid`)
	})
	opts, auth, refreshes := setup(t, mux, &memTokens{err: errors.New("db down")})
	feed, err := NewFeed(auth, opts)
	require.NoError(t, err)

	_, err = feed.GetFeed(context.Background(), testUP(), provider.FeedQuery{})
	var oauthErr *entity.OAuthError
	require.ErrorAs(t, err, &oauthErr)
	assert.Equal(t, entity.CodeTokenRevoked, oauthErr.Code)
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetFeed_RequiresChannel(t *testing.T) {
	opts, auth, _ := setup(t, http.NewServeMux(), nil)
	feed, err := NewFeed(auth, opts)
	require.NoError(t, err)

	up := testUP()
	up.Account = nil
	_, err = feed.GetFeed(context.Background(), up, provider.FeedQuery{})
	assert.ErrorIs(t, err, entity.ErrFormEmptyFields)
}

func TestCheckAccessToken(t *testing.T) {
	_, auth, _ := setup(t, http.NewServeMux(), nil)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"no channel", `{"error":"NoLinkedYouTubeAccount"}`, entity.CodeNoLinkedAccount},
		{"forbidden", `<errors><error><code>Forbidden</code></error></errors>`, entity.CodeTokenRevoked},
		{"developer key", `Invalid developer key`, entity.CodePermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.CheckAccessToken(context.Background(), testUP(), &provider.Response{StatusCode: 403, Body: []byte(tt.body)})
			var oauthErr *entity.OAuthError
			require.ErrorAs(t, err, &oauthErr)
			assert.Equal(t, tt.code, oauthErr.Code)
		})
	}

	fresh, err := auth.CheckAccessToken(context.Background(), testUP(), &provider.Response{StatusCode: 200, Body: []byte(`{"items":[]}`)})
	assert.NoError(t, err)
	assert.Nil(t, fresh)
}

func TestGetPost(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "id,statistics", q.Get("part"))
		assert.Equal(t, "dev-key", q.Get("key"))
		assert.Equal(t, "Bearer old", r.Header.Get("Authorization"))
		if q.Get("id") == "gone" {
			_, _ = io.WriteString(w, `{"items":[]}`)
			return
		}
		_, _ = io.WriteString(w, `{"items":[{"kind":"youtube#video","id":"abc123","statistics":{"viewCount":"5"}}]}`)
	})
	opts, auth, _ := setup(t, mux, nil)
	feed, err := NewFeed(auth, opts)
	require.NoError(t, err)

	post, err := provider.NewFeedAPI[Post, Post](feed).GetPost(context.Background(), testUP(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, entity.N(5), post.Content.ActionCounts[entity.CountViews])

	_, err = feed.GetPost(context.Background(), testUP(), "gone")
	assert.ErrorIs(t, err, entity.ErrFormEmptyFields)
}

func TestActions(t *testing.T) {
	var ratings []string
	var mu sync.Mutex
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/videos/rate", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "abc123", r.URL.Query().Get("id"))
		mu.Lock()
		ratings = append(ratings, r.URL.Query().Get("rating"))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	opts, auth, _ := setup(t, mux, nil)
	strategy, err := NewActions(auth, opts)
	require.NoError(t, err)
	api := provider.NewActionAPI(strategy)

	payload := provider.ActionPayload{Fields: map[string]string{"media_id": "abc123"}}
	for _, name := range []provider.ActionName{provider.ActionLike, provider.ActionDislike, provider.ActionUnlike} {
		res, err := api.Do(context.Background(), testUP(), name, payload)
		require.NoError(t, err, name)
		assert.Equal(t, "abc123", res.ID)
	}
	assert.Equal(t, []string{"like", "dislike", "none"}, ratings)

	_, err = api.Do(context.Background(), testUP(), provider.ActionLike, provider.ActionPayload{})
	assert.ErrorIs(t, err, entity.ErrFormEmptyFields)

	_, err = api.Do(context.Background(), testUP(), provider.ActionComment, payload)
	assert.ErrorIs(t, err, entity.ErrActionNotFound)
}

func TestHandleCallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feeds/api/users/default", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "new", r.URL.Query().Get("access_token"))
		_, _ = io.WriteString(w, `{"entry":{
			"id":{"$t":"http://gdata.youtube.com/feeds/api/users/uid42"},
			"title":{"$t":"Jane Doe"},
			"yt$username":{"$t":"jane"},
			"link":[{"href":"https://www.youtube.com/channel/UC42"}]}}`)
	})
	mux.HandleFunc("/feeds/api/users/uid42", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("format"))
		_, _ = io.WriteString(w, `{"entry":{"media$thumbnail":{"url":"https://yt3.example/photo.jpg"}}}`)
	})
	_, auth, _ := setup(t, mux, nil)

	profiles, err := auth.HandleCallback(context.Background(), provider.CallbackPayload{Code: "the-code"})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	p := profiles[0]
	assert.Equal(t, "uid42", p.UserID)
	assert.Equal(t, "jane", p.Account.Username)
	assert.Equal(t, "UC42", p.Account.ChannelID)
	assert.Equal(t, "https://yt3.example/photo.jpg", p.Account.Avatar)
	assert.Equal(t, "new", p.Tokens.AccessToken)
}
